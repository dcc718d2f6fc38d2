package store

import (
	"context"
	"errors"

	"moodcircle/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Store is the entity store shared by every service. Implementations assign ids on
// create and write them back into the passed value.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// Journals
	CreateJournal(ctx context.Context, journal *models.Journal) error
	GetJournal(ctx context.Context, id int) (*models.Journal, error)
	ListJournals(ctx context.Context) ([]models.Journal, error)
	ListJournalsByUser(ctx context.Context, userID int) ([]models.Journal, error)
	UpdateJournalSharing(ctx context.Context, id int, circleID *int) (*models.Journal, error)

	// Circles. CreateCircle also records the owner as an admin member, atomically,
	// and returns that member row.
	CreateCircle(ctx context.Context, circle *models.Circle) (*models.CircleMember, error)
	GetCircle(ctx context.Context, id int) (*models.Circle, error)
	ListCirclesForUser(ctx context.Context, userID int) ([]models.Circle, error)

	// Membership
	AddCircleMember(ctx context.Context, member *models.CircleMember) error
	RemoveCircleMember(ctx context.Context, circleID, userID int) error
	ListCircleMembers(ctx context.Context, circleID int) ([]models.CircleMember, error)
	IsCircleMember(ctx context.Context, circleID, userID int) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}
