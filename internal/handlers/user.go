package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"moodcircle/internal/services"
)

type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// GetMe returns the session's user. A token for a user that no longer exists is
// treated as no session.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(*user))
}
