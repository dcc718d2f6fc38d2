package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"moodcircle/internal/access"
	"moodcircle/internal/metrics"
	"moodcircle/internal/models"
	"moodcircle/internal/store"
)

type CircleService struct {
	store  store.Store
	logger *zap.Logger
}

func NewCircleService(st store.Store, logger *zap.Logger) *CircleService {
	return &CircleService{store: st, logger: logger}
}

// Create makes ownerID the owner and first admin member of a new circle.
func (s *CircleService) Create(ctx context.Context, ownerID int, name, description string) (*models.Circle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("name is required")
	}
	circle := &models.Circle{Name: name, OwnerID: ownerID, Description: strings.TrimSpace(description)}
	admin, err := s.store.CreateCircle(ctx, circle)
	if err != nil {
		return nil, err
	}
	metrics.CirclesCreated.Inc()
	s.logger.Info("circle created",
		zap.Int("circle_id", circle.ID),
		zap.Int("owner_id", ownerID),
		zap.Int("admin_member_id", admin.ID),
	)
	return circle, nil
}

func (s *CircleService) ListForUser(ctx context.Context, userID int) ([]models.Circle, error) {
	circles, err := s.store.ListCirclesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if circles == nil {
		circles = []models.Circle{}
	}
	return circles, nil
}

// ListMembers is open to the owner and to anyone holding a member row.
func (s *CircleService) ListMembers(ctx context.Context, circleID, requesterID int) ([]models.CircleMember, error) {
	circle, err := s.load(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if circle.OwnerID != requesterID {
		ok, err := s.store.IsCircleMember(ctx, circleID, requesterID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, forbidden("You are not a member of this circle")
		}
	}
	members, err := s.store.ListCircleMembers(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.CircleMember{}
	}
	return members, nil
}

// AddMember adds the user named username. Only the owner may add members, and a
// user can hold at most one row per circle.
func (s *CircleService) AddMember(ctx context.Context, circleID, requesterID int, username string, role models.Role) (*models.CircleMember, error) {
	circle, err := s.load(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageCircle(requesterID, *circle) {
		return nil, forbidden("Only the circle owner can add members")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationf("username is required")
	}
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, validationf("invalid role %q", role)
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("user not found")
		}
		return nil, err
	}

	member := &models.CircleMember{CircleID: circleID, UserID: user.ID, Role: role}
	if err := s.store.AddCircleMember(ctx, member); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, conflict("User is already a member of this circle")
		}
		return nil, err
	}
	member.Username = user.Username

	metrics.MembershipChanges.WithLabelValues("added").Inc()
	s.logger.Info("circle member added",
		zap.Int("circle_id", circleID),
		zap.Int("user_id", user.ID),
		zap.String("role", string(role)),
	)
	return member, nil
}

// RemoveMember deletes targetUserID's row. Removing someone without a row is a no-op;
// the owner cannot be removed.
func (s *CircleService) RemoveMember(ctx context.Context, circleID, requesterID, targetUserID int) error {
	circle, err := s.load(ctx, circleID)
	if err != nil {
		return err
	}
	if !access.CanManageCircle(requesterID, *circle) {
		return forbidden("Only the circle owner can remove members")
	}
	if targetUserID == circle.OwnerID {
		return validationf("the circle owner cannot be removed")
	}
	if err := s.store.RemoveCircleMember(ctx, circleID, targetUserID); err != nil {
		return err
	}
	metrics.MembershipChanges.WithLabelValues("removed").Inc()
	s.logger.Info("circle member removed", zap.Int("circle_id", circleID), zap.Int("user_id", targetUserID))
	return nil
}

func (s *CircleService) load(ctx context.Context, id int) (*models.Circle, error) {
	circle, err := s.store.GetCircle(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("circle not found")
		}
		return nil, err
	}
	return circle, nil
}
