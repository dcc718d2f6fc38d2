package models

import "time"

type User struct {
	ID           int    `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"` // bcrypt, salt embedded
}

type Journal struct {
	ID                 int       `db:"id" json:"id"`
	UserID             int       `db:"user_id" json:"userId"`
	Title              string    `db:"title" json:"title"`
	Content            string    `db:"content" json:"content"` // Encrypted at rest when a key is configured
	Category           string    `db:"category" json:"category"`
	Mood               Mood      `db:"mood" json:"mood"`
	MoodColor          string    `db:"mood_color" json:"moodColor"`
	IsPublic           bool      `db:"is_public" json:"isPublic"`
	SharedWithCircleID *int      `db:"shared_with_circle_id" json:"sharedWithCircleId"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

type Circle struct {
	ID          int    `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	OwnerID     int    `db:"owner_id" json:"ownerId"`
	Description string `db:"description" json:"description,omitempty"`
}

// Role is a circle member's role. The circle owner always holds RoleAdmin.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

type CircleMember struct {
	ID       int    `db:"id" json:"id"`
	CircleID int    `db:"circle_id" json:"circleId"`
	UserID   int    `db:"user_id" json:"userId"`
	Role     Role   `db:"role" json:"role"`
	Username string `db:"username" json:"username,omitempty"` // Joined from users, never stored
}
