package models

import "time"

// Cursor is a participant's last reported pointer position. It is
// replaced wholesale on every update.
type Cursor struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Tool string  `json:"tool,omitempty"`
}

type Presence struct {
	UserID      int     `json:"userId"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	Cursor      *Cursor `json:"cursor,omitempty"`
}

type ChatMessage struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	UserID      int       `json:"userId"`
	DisplayName string    `json:"displayName"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId,omitempty"`
	RoomID      string    `json:"roomId"`
	UserID      int       `json:"userId"`
	DisplayName string    `json:"displayName"`
	Color       string    `json:"color"`
	Size        float64   `json:"size"`
	Tool        string    `json:"tool,omitempty"`
	Points      []Point   `json:"points"`
	Timestamp   time.Time `json:"timestamp"`
}

// PresenceFromUser builds the presence record a user gets on join.
func PresenceFromUser(u *User) Presence {
	return Presence{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}
}
