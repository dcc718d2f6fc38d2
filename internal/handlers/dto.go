package handlers

import (
	"moodcircle/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserDTO is the public view of a user; the password hash never leaves the server.
type UserDTO struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func ToUserDTO(u models.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username}
}

type journalRequest struct {
	Title              string      `json:"title"`
	Content            string      `json:"content"`
	Category           string      `json:"category"`
	Mood               models.Mood `json:"mood"`
	MoodColor          string      `json:"moodColor"`
	IsPublic           bool        `json:"isPublic"`
	SharedWithCircleID *int        `json:"sharedWithCircleId"`
}

// shareRequest sets or clears (null) the circle a journal is shared with.
type shareRequest struct {
	CircleID *int `json:"circleId"`
}

type circleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type memberRequest struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type entriesRequest struct {
	Entries []string `json:"entries"`
}

type chatResponse struct {
	Response string `json:"response"`
}
