package realtime

import (
	"testing"

	"collab-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(10)

	_, ok := r.Get("a")
	assert.False(t, ok)

	room := r.GetOrCreate("a")
	assert.Same(t, room, r.GetOrCreate("a"))
	assert.Equal(t, 1, r.Len())

	room.appendChat(models.ChatMessage{ID: "m"})
	room.appendStroke(models.Stroke{ID: "s"})

	r.Release("a")
	r.Release("a")
	assert.Equal(t, 0, r.Len())

	fresh := r.GetOrCreate("a")
	assert.NotSame(t, room, fresh)
	snap := fresh.snapshot()
	assert.Empty(t, snap.ChatHistory)
	assert.Empty(t, snap.Strokes)
	assert.Empty(t, snap.Participants)
}

func TestRoomPresence(t *testing.T) {
	room := newRoom("a", 0)
	room.upsertPresence(models.Presence{UserID: 1, DisplayName: "alice"})
	room.upsertPresence(models.Presence{UserID: 2, DisplayName: "bob"})
	room.upsertPresence(models.Presence{UserID: 1, DisplayName: "alice again"})

	require.Equal(t, 2, room.participantCount())
	ps := room.Participants()
	assert.Equal(t, "alice again", ps[0].DisplayName)
	assert.Equal(t, "bob", ps[1].DisplayName)

	assert.True(t, room.setCursor(2, models.Cursor{X: 1, Y: 2}))
	assert.False(t, room.setCursor(3, models.Cursor{}))

	// the returned cursor must not alias room state
	ps = room.Participants()
	ps[1].Cursor.X = 99
	assert.Equal(t, 1.0, room.Participants()[1].Cursor.X)

	assert.True(t, room.removePresence(1))
	assert.False(t, room.removePresence(1))
	assert.Equal(t, []models.Presence{{UserID: 2, DisplayName: "bob", Cursor: &models.Cursor{X: 1, Y: 2}}}, room.Participants())
}

func TestRoomClearStrokes(t *testing.T) {
	room := newRoom("a", 0)
	room.appendStroke(models.Stroke{ID: "1"})
	room.appendStroke(models.Stroke{ID: "2"})
	require.Len(t, room.snapshot().Strokes, 2)

	room.clearStrokes()
	assert.Empty(t, room.snapshot().Strokes)
}
