package realtime

import (
	"fmt"
	"testing"

	"collab-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHistoryEvictsOldest(t *testing.T) {
	h := newChatHistory(DefaultChatHistoryLimit)
	for i := 1; i <= 51; i++ {
		h.append(models.ChatMessage{ID: fmt.Sprint(i)})
	}

	got := h.snapshot()
	require.Len(t, got, 50)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "51", got[49].ID)
	for i, msg := range got {
		assert.Equal(t, fmt.Sprint(i+2), msg.ID)
	}
}

func TestChatHistoryNeverExceedsLimit(t *testing.T) {
	h := newChatHistory(3)
	for i := 0; i < 10; i++ {
		h.append(models.ChatMessage{ID: fmt.Sprint(i)})
		assert.LessOrEqual(t, h.len(), 3)
	}
	assert.Equal(t, []string{"7", "8", "9"}, []string{h.snapshot()[0].ID, h.snapshot()[1].ID, h.snapshot()[2].ID})
}

func TestChatHistorySnapshotIsACopy(t *testing.T) {
	h := newChatHistory(0)
	h.append(models.ChatMessage{ID: "a"})

	snap := h.snapshot()
	snap[0].ID = "changed"
	assert.Equal(t, "a", h.snapshot()[0].ID)
	assert.Equal(t, DefaultChatHistoryLimit, h.limit)
}
