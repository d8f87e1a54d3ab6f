package database

import (
	"context"
	"errors"

	"collab-app/internal/models"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when a caller mutates a room it does not own.
var ErrForbidden = errors.New("forbidden - not the room owner")

// ErrEmailTaken is returned by CreateUser when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, req *models.CreateRoomRequest, ownerID int) (*models.Room, error)
	GetRoomByID(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)
	UpdateRoom(ctx context.Context, id string, req *models.UpdateRoomRequest) (*models.Room, error)
	DeleteRoom(ctx context.Context, roomID string, ownerID int) error
}

type Database interface {
	UserRepository
	RoomRepository
	Close() error
}
