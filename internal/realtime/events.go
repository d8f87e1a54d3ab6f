package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"collab-app/internal/models"
)

// Inbound event names.
const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventCursorUpdate = "cursor-update"
	EventChatSend     = "chat-send"
	EventStrokeSubmit = "stroke-submit"
	EventBoardClear   = "board-clear"
)

// Outbound event names.
const (
	EventRoomJoined        = "room-joined"
	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventChatMessage       = "chat-message"
	EventStrokeBroadcast   = "stroke-broadcast"
	EventBoardCleared      = "board-cleared"
	EventRoomError         = "room-error"
)

var errMissingRoomID = errors.New("roomId is required")

// Envelope is the frame layout in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event is a decoded inbound request. Every event is scoped to one room.
type Event interface {
	Type() string
	Room() string
}

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

type LeaveRoom struct {
	RoomID string `json:"roomId"`
}

type CursorUpdate struct {
	RoomID string         `json:"roomId"`
	Cursor *models.Cursor `json:"cursor"`
}

type ChatSend struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

// StrokeInput is the caller's half of a stroke; the hub stamps the rest.
type StrokeInput struct {
	ClientID string         `json:"clientId"`
	Points   []models.Point `json:"points"`
	Color    string         `json:"color"`
	Size     float64        `json:"size"`
	Tool     string         `json:"tool,omitempty"`
}

type StrokeSubmit struct {
	RoomID string       `json:"roomId"`
	Stroke *StrokeInput `json:"stroke"`
}

type BoardClear struct {
	RoomID string `json:"roomId"`
}

func (JoinRoom) Type() string     { return EventJoinRoom }
func (LeaveRoom) Type() string    { return EventLeaveRoom }
func (CursorUpdate) Type() string { return EventCursorUpdate }
func (ChatSend) Type() string     { return EventChatSend }
func (StrokeSubmit) Type() string { return EventStrokeSubmit }
func (BoardClear) Type() string   { return EventBoardClear }

func (e JoinRoom) Room() string     { return e.RoomID }
func (e LeaveRoom) Room() string    { return e.RoomID }
func (e CursorUpdate) Room() string { return e.RoomID }
func (e ChatSend) Room() string     { return e.RoomID }
func (e StrokeSubmit) Room() string { return e.RoomID }
func (e BoardClear) Room() string   { return e.RoomID }

// DecodeEvent parses one frame into its typed event.
func DecodeEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	var ev Event
	var err error
	switch env.Type {
	case EventJoinRoom:
		ev, err = decodePayload[JoinRoom](env.Payload)
	case EventLeaveRoom:
		ev, err = decodePayload[LeaveRoom](env.Payload)
	case EventCursorUpdate:
		var e CursorUpdate
		if e, err = decodePayload[CursorUpdate](env.Payload); err == nil && e.Cursor == nil {
			err = errors.New("cursor is required")
		}
		ev = e
	case EventChatSend:
		ev, err = decodePayload[ChatSend](env.Payload)
	case EventStrokeSubmit:
		var e StrokeSubmit
		if e, err = decodePayload[StrokeSubmit](env.Payload); err == nil && e.Stroke == nil {
			err = errors.New("stroke is required")
		}
		ev = e
	case EventBoardClear:
		ev, err = decodePayload[BoardClear](env.Payload)
	case "":
		return nil, errors.New("event type is required")
	default:
		return nil, fmt.Errorf("unknown event %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
	}
	if ev.Room() == "" {
		return nil, fmt.Errorf("invalid %s payload: %w", env.Type, errMissingRoomID)
	}
	return ev, nil
}

func decodePayload[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, errors.New("missing payload")
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

type RoomJoinedPayload struct {
	RoomID       string               `json:"roomId"`
	Participants []models.Presence    `json:"participants"`
	ChatHistory  []models.ChatMessage `json:"chatHistory"`
	Strokes      []models.Stroke      `json:"strokes"`
}

type ParticipantJoinedPayload struct {
	RoomID      string          `json:"roomId"`
	Participant models.Presence `json:"participant"`
}

type ParticipantLeftPayload struct {
	RoomID string `json:"roomId"`
	UserID int    `json:"userId"`
}

type CursorPayload struct {
	RoomID string        `json:"roomId"`
	UserID int           `json:"userId"`
	Cursor models.Cursor `json:"cursor"`
}

type StrokePayload struct {
	RoomID string        `json:"roomId"`
	Stroke models.Stroke `json:"stroke"`
}

type BoardClearedPayload struct {
	RoomID    string `json:"roomId"`
	ClearedBy int    `json:"clearedBy"`
}

type RoomErrorPayload struct {
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message"`
}

func encodeEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}
