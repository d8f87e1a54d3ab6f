package realtime

import (
	"encoding/json"
	"testing"

	"collab-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Event
	}{
		{
			name:  "join",
			frame: `{"type":"join-room","payload":{"roomId":"r1"}}`,
			want:  JoinRoom{RoomID: "r1"},
		},
		{
			name:  "leave",
			frame: `{"type":"leave-room","payload":{"roomId":"r1"}}`,
			want:  LeaveRoom{RoomID: "r1"},
		},
		{
			name:  "cursor",
			frame: `{"type":"cursor-update","payload":{"roomId":"r1","cursor":{"x":1.5,"y":2,"tool":"eraser"}}}`,
			want:  CursorUpdate{RoomID: "r1", Cursor: &models.Cursor{X: 1.5, Y: 2, Tool: "eraser"}},
		},
		{
			name:  "chat",
			frame: `{"type":"chat-send","payload":{"roomId":"r1","content":"hello"}}`,
			want:  ChatSend{RoomID: "r1", Content: "hello"},
		},
		{
			name:  "stroke",
			frame: `{"type":"stroke-submit","payload":{"roomId":"r1","stroke":{"clientId":"c9","points":[{"x":1,"y":2}],"color":"#000","size":2}}}`,
			want: StrokeSubmit{RoomID: "r1", Stroke: &StrokeInput{
				ClientID: "c9",
				Points:   []models.Point{{X: 1, Y: 2}},
				Color:    "#000",
				Size:     2,
			}},
		},
		{
			name:  "clear",
			frame: `{"type":"board-clear","payload":{"roomId":"r1"}}`,
			want:  BoardClear{RoomID: "r1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "r1", got.Room())
		})
	}
}

func TestDecodeEventRejectsBadFrames(t *testing.T) {
	tests := map[string]string{
		"not json":       `hello`,
		"no type":        `{"payload":{"roomId":"r1"}}`,
		"unknown type":   `{"type":"dance","payload":{"roomId":"r1"}}`,
		"no payload":     `{"type":"join-room"}`,
		"no room":        `{"type":"chat-send","payload":{"content":"hi"}}`,
		"wrong shape":    `{"type":"chat-send","payload":{"roomId":7}}`,
		"missing cursor": `{"type":"cursor-update","payload":{"roomId":"r1"}}`,
		"missing stroke": `{"type":"stroke-submit","payload":{"roomId":"r1"}}`,
	}

	for name, frame := range tests {
		t.Run(name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(frame))
			assert.Error(t, err)
			assert.Nil(t, ev)
		})
	}
}

func TestEncodeEventUsesEnvelope(t *testing.T) {
	data, err := encodeEvent(EventParticipantLeft, ParticipantLeftPayload{RoomID: "r1", UserID: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"participant-left","payload":{"roomId":"r1","userId":4}}`, string(data))

	data, err = encodeEvent(EventRoomJoined, newRoom("r1", 0).snapshot())
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.JSONEq(t, `{"roomId":"r1","participants":[],"chatHistory":[],"strokes":[]}`, string(env.Payload))
}
