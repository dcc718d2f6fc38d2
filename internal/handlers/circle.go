package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"moodcircle/internal/services"
)

type CircleHandler struct {
	circles *services.CircleService
	logger  *zap.Logger
}

func NewCircleHandler(circles *services.CircleService, logger *zap.Logger) *CircleHandler {
	return &CircleHandler{circles: circles, logger: logger}
}

func (h *CircleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req circleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	circle, err := h.circles.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, circle)
}

func (h *CircleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	circles, err := h.circles.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, circles)
}

func (h *CircleHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	circleID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	members, err := h.circles.ListMembers(r.Context(), circleID, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// AddMember godoc
// @Summary Add a user to a circle by username
// @Description Owner only. Role is member or admin, default member.
// @Tags circles
// @Accept json
// @Produce json
// @Success 201 {object} models.CircleMember
// @Failure 403 {object} messageResponse
// @Failure 404 "Circle or user not found"
// @Failure 409 {object} messageResponse "Already a member"
// @Router /circles/{id}/members [post]
func (h *CircleHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	circleID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	member, err := h.circles.AddMember(r.Context(), circleID, userID, req.Username, req.Role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *CircleHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	circleID, err := pathID(r, "circleId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	targetID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.circles.RemoveMember(r.Context(), circleID, userID, targetID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
