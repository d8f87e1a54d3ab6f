package models

import "time"

// Room is the durable metadata for a collaboration room. Live state
// (participants, chat, strokes) is kept by the realtime hub only.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int       `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type UpdateRoomRequest struct {
	Name string `json:"name"`
}
