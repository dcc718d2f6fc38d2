package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"moodcircle/internal/services"
)

type DashboardHandler struct {
	journals *services.JournalService
	logger   *zap.Logger
}

func NewDashboardHandler(journals *services.JournalService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{journals: journals, logger: logger}
}

// Get summarizes the caller's moods to power the mood chart.
// Accepts optional query param: days=N (1..90, default 7).
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days == 0 {
			writeMessage(w, http.StatusBadRequest, "days must be a number between 1 and 90")
			return
		}
	}

	summary, err := h.journals.MoodSummary(r.Context(), userID, days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
