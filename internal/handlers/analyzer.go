package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"moodcircle/internal/insights"
)

// AnalyzerHandler exposes the AI gateway. Input is validated before any upstream
// call; upstream failures become 500s carrying the gateway's message.
type AnalyzerHandler struct {
	gateway insights.Gateway
	logger  *zap.Logger
}

func NewAnalyzerHandler(gateway insights.Gateway, logger *zap.Logger) *AnalyzerHandler {
	return &AnalyzerHandler{gateway: gateway, logger: logger}
}

func (h *AnalyzerHandler) Insights(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeMessage(w, http.StatusBadRequest, "Content is required")
		return
	}
	out, err := h.gateway.Insights(r.Context(), req.Content)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AnalyzerHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req entriesRequest
	if err := decodeJSON(w, r, &req); err != nil || len(req.Entries) == 0 {
		writeMessage(w, http.StatusBadRequest, "Previous entries are required")
		return
	}
	out, err := h.gateway.Recommendations(r.Context(), req.Entries)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AnalyzerHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeMessage(w, http.StatusBadRequest, "Content is required")
		return
	}
	reply, err := h.gateway.Chat(r.Context(), req.Content)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}
