package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"moodcircle/internal/middleware"
	"moodcircle/internal/services"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps service errors onto status codes. 401 and 404 carry no body;
// anything unclassified is logged and reported as a 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, services.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, services.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &services.Error{Kind: services.ErrValidation, Message: "invalid body"}
	}
	return nil
}

// pathID parses a numeric URL parameter. Non-numeric ids cannot match any entity.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, &services.Error{Kind: services.ErrNotFound}
	}
	return id, nil
}

// currentUser returns the authenticated caller set by RequireAuth.
func currentUser(r *http.Request) (int, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, &services.Error{Kind: services.ErrUnauthenticated}
	}
	return id, nil
}
