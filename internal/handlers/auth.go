package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"moodcircle/internal/middleware"
	"moodcircle/internal/models"
	"moodcircle/internal/services"
)

type AuthHandler struct {
	users        *services.UserService
	auth         *middleware.AuthMiddleware
	sessionTTL   time.Duration
	cookieSecure bool
	logger       *zap.Logger
}

func NewAuthHandler(users *services.UserService, auth *middleware.AuthMiddleware, sessionTTL time.Duration, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, auth: auth, sessionTTL: sessionTTL, cookieSecure: cookieSecure, logger: logger}
}

// Register godoc
// @Summary Create an account and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} UserDTO
// @Failure 400 {object} messageResponse
// @Failure 409 {object} messageResponse "Username already exists"
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.users.Register(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.startSession(w, *user); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ToUserDTO(*user))
}

// Login godoc
// @Summary Start a session
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 401 "Invalid credentials"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.users.Authenticate(r.Context(), c.Username, c.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.startSession(w, *user); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(*user))
}

// Logout clears the session cookie. Tokens are stateless, so a copied token stays
// valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user models.User) error {
	token, expires, err := h.auth.IssueToken(user, h.sessionTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
