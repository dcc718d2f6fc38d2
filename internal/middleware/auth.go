package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"moodcircle/internal/models"
	"moodcircle/internal/services"
)

// SessionCookie holds the signed session token.
const SessionCookie = "session"

type contextKey string

const userIDKey contextKey = "userID"

var ErrInvalidToken = errors.New("invalid token")

// UserLookup resolves the account a session token names.
type UserLookup interface {
	Get(ctx context.Context, id int) (*models.User, error)
}

// Session is what a valid token carries.
type Session struct {
	UserID   int
	Username string
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	jwtSecret []byte
	users     UserLookup
}

// NewAuthMiddleware verifies tokens with secret. When users is non-nil every
// token must still name an existing account under the same username; ids are
// reused after the in-memory store restarts.
func NewAuthMiddleware(secret []byte, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: secret, users: users}
}

// IssueToken signs an HS256 session token for user.
func (m *AuthMiddleware) IssueToken(user models.User, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := sessionClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// ParseToken checks the signature and expiry of tokenStr.
func (m *AuthMiddleware) ParseToken(tokenStr string) (Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 || claims.Username == "" {
		return Session{}, ErrInvalidToken
	}
	return Session{UserID: id, Username: claims.Username}, nil
}

// RequireAuth accepts the session cookie or an Authorization bearer token and
// answers 401 with no body when neither is valid.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := tokenFromRequest(r)
		if tokenStr == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		sess, err := m.ParseToken(tokenStr)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := m.checkHolder(r.Context(), sess); err != nil {
			if errors.Is(err, ErrInvalidToken) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		noteUser(r.Context(), sess.UserID)
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), sess.UserID)))
	})
}

func (m *AuthMiddleware) checkHolder(ctx context.Context, sess Session) error {
	if m.users == nil {
		return nil
	}
	user, err := m.users.Get(ctx, sess.UserID)
	if errors.Is(err, services.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if user.Username != sess.Username {
		return ErrInvalidToken
	}
	return nil
}

func tokenFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}
