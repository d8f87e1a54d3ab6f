package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"collab-app/internal/auth"
	"collab-app/internal/database"
	"collab-app/internal/models"
	"collab-app/internal/realtime"
	"collab-app/internal/services"
	"collab-app/pkg/logger"
)

type RoomHandlers struct {
	roomService *services.RoomService
	authService *auth.Service
	hub         *realtime.Hub
}

func NewRoomHandlers(roomService *services.RoomService, authService *auth.Service, hub *realtime.Hub) *RoomHandlers {
	return &RoomHandlers{
		roomService: roomService,
		authService: authService,
		hub:         hub,
	}
}

// Rooms serves /rooms.
func (h *RoomHandlers) Rooms(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rooms" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.ListRooms(w, r)
	case http.MethodPost:
		h.CreateRoom(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Room serves /rooms/{id} and /rooms/{id}/presence.
func (h *RoomHandlers) Room(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[1] == "" {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	roomID := parts[1]

	// /rooms/{id}/presence
	if len(parts) == 3 && parts[2] == "presence" && r.Method == http.MethodGet {
		h.GetPresence(w, r, roomID)
		return
	}

	if len(parts) == 2 {
		switch r.Method {
		case http.MethodGet:
			h.GetRoom(w, r, roomID)
			return
		case http.MethodPatch:
			h.UpdateRoom(w, r, roomID)
			return
		case http.MethodDelete:
			h.DeleteRoom(w, r, roomID)
			return
		}
	}

	http.Error(w, "endpoint not found", http.StatusNotFound)
}

func (h *RoomHandlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	room, err := h.roomService.CreateRoom(r.Context(), &req, user.ID)
	if err != nil {
		logger.Error("Create room error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

func (h *RoomHandlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	if _, err := h.getUserFromToken(r); err != nil {
		writeAuthError(w, err)
		return
	}

	rooms, err := h.roomService.ListRooms(r.Context())
	if err != nil {
		logger.Error("List rooms error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}

	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandlers) GetRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	if _, err := h.getUserFromToken(r); err != nil {
		writeAuthError(w, err)
		return
	}

	room, err := h.roomService.GetRoom(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, "Get room", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (h *RoomHandlers) UpdateRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	var req models.UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	room, err := h.roomService.UpdateRoom(r.Context(), roomID, user.ID, &req)
	if err != nil {
		writeServiceError(w, "Update room", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (h *RoomHandlers) DeleteRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	if err := h.roomService.DeleteRoom(r.Context(), roomID, user.ID); err != nil {
		writeServiceError(w, "Delete room", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("room deleted successfully"))
}

// GetPresence lists who is live in the room right now.
func (h *RoomHandlers) GetPresence(w http.ResponseWriter, r *http.Request, roomID string) {
	if _, err := h.getUserFromToken(r); err != nil {
		writeAuthError(w, err)
		return
	}

	if _, err := h.roomService.GetRoom(r.Context(), roomID); err != nil {
		writeServiceError(w, "Get presence", err)
		return
	}

	participants, err := h.hub.Participants(r.Context(), roomID)
	if err != nil {
		logger.Error("Get presence error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if participants == nil {
		participants = []models.Presence{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id":      roomID,
		"participants": participants,
		"count":        len(participants),
	})
}

func (h *RoomHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	return h.authService.Authenticate(r.Context(), auth.TokenFromRequest(r))
}

func writeAuthError(w http.ResponseWriter, err error) {
	if auth.IsCredentialError(err) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	logger.Error("Authentication error: %v", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
	case errors.Is(err, database.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		logger.Error("%s error: %v", op, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
