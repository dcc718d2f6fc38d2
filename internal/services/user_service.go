package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"moodcircle/internal/models"
	"moodcircle/internal/store"
)

const (
	maxUsernameLen = 64
	// bcrypt ignores input past this length.
	maxPasswordBytes = 72
)

type UserService struct {
	store    store.Store
	logger   *zap.Logger
	hashCost int
}

func NewUserService(st store.Store, logger *zap.Logger) *UserService {
	return &UserService{store: st, logger: logger, hashCost: bcrypt.DefaultCost}
}

// Register creates a user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, validationf("username and password are required")
	}
	if len(username) > maxUsernameLen {
		return nil, validationf("username must be at most %d characters", maxUsernameLen)
	}
	if len(password) > maxPasswordBytes {
		return nil, validationf("password must be at most %d bytes", maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, PasswordHash: string(hash)}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, conflict("Username already exists")
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong passwords
// fail the same way.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &Error{Kind: ErrUnauthenticated, Message: "Invalid username or password"}
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, &Error{Kind: ErrUnauthenticated, Message: "Invalid username or password"}
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("user not found")
		}
		return nil, err
	}
	return user, nil
}
