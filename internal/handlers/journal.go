package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"moodcircle/internal/services"
)

type JournalHandler struct {
	journals *services.JournalService
	logger   *zap.Logger
}

func NewJournalHandler(journals *services.JournalService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{journals: journals, logger: logger}
}

// List returns every journal the caller can read: their own, public ones, and
// those shared with circles they belong to.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	journals, err := h.journals.ListAccessible(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, journals)
}

func (h *JournalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	journals, err := h.journals.ListOwn(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, journals)
}

// Create godoc
// @Summary Create a journal entry
// @Description Mood defaults to neutral and moodColor to the mood's palette color.
// @Description Sharing with a circle requires current membership.
// @Tags journals
// @Accept json
// @Produce json
// @Success 201 {object} models.Journal
// @Failure 400 {object} messageResponse
// @Failure 403 {object} messageResponse "You are not a member of this circle"
// @Router /journals [post]
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req journalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	journal, err := h.journals.Create(r.Context(), userID, services.CreateJournalInput{
		Title:              req.Title,
		Content:            req.Content,
		Category:           req.Category,
		Mood:               req.Mood,
		MoodColor:          req.MoodColor,
		IsPublic:           req.IsPublic,
		SharedWithCircleID: req.SharedWithCircleID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, journal)
}

func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	journal, err := h.journals.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, journal)
}

// Share godoc
// @Summary Share a journal with a circle, or stop sharing with null
// @Tags journals
// @Accept json
// @Produce json
// @Success 200 {object} models.Journal
// @Failure 403 {object} messageResponse
// @Failure 404 "Journal not found"
// @Router /journals/{id}/share [patch]
func (h *JournalHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	journal, err := h.journals.UpdateSharing(r.Context(), id, userID, req.CircleID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, journal)
}
