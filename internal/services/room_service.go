package services

import (
	"context"
	"fmt"
	"strings"

	"collab-app/internal/database"
	"collab-app/internal/models"
)

type RoomService struct {
	db database.RoomRepository
}

func NewRoomService(db database.RoomRepository) *RoomService {
	return &RoomService{db: db}
}

func (s *RoomService) CreateRoom(ctx context.Context, req *models.CreateRoomRequest, ownerID int) (*models.Room, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("room name is required")
	}

	return s.db.CreateRoom(ctx, req, ownerID)
}

func (s *RoomService) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return s.db.ListRooms(ctx)
}

func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	return s.db.GetRoomByID(ctx, roomID)
}

func (s *RoomService) UpdateRoom(ctx context.Context, roomID string, userID int, req *models.UpdateRoomRequest) (*models.Room, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("room name is required")
	}

	room, err := s.db.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != userID {
		return nil, database.ErrForbidden
	}

	return s.db.UpdateRoom(ctx, roomID, req)
}

func (s *RoomService) DeleteRoom(ctx context.Context, roomID string, ownerID int) error {
	return s.db.DeleteRoom(ctx, roomID, ownerID)
}
