package realtime

import "collab-app/internal/models"

// Room is the live state of one collaboration room. It is only touched
// from the hub goroutine.
type Room struct {
	ID string

	participants map[int]*models.Presence
	order        []int
	chat         *chatHistory
	strokes      []models.Stroke
}

func newRoom(id string, historyLimit int) *Room {
	return &Room{
		ID:           id,
		participants: make(map[int]*models.Presence),
		chat:         newChatHistory(historyLimit),
		strokes:      make([]models.Stroke, 0),
	}
}

// upsertPresence inserts p or overwrites the existing record for the same
// user, keeping the user's original join position.
func (r *Room) upsertPresence(p models.Presence) {
	if _, ok := r.participants[p.UserID]; !ok {
		r.order = append(r.order, p.UserID)
	}
	r.participants[p.UserID] = &p
}

func (r *Room) removePresence(userID int) bool {
	if _, ok := r.participants[userID]; !ok {
		return false
	}
	delete(r.participants, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Room) setCursor(userID int, cursor models.Cursor) bool {
	p, ok := r.participants[userID]
	if !ok {
		return false
	}
	p.Cursor = &cursor
	return true
}

func (r *Room) participantCount() int {
	return len(r.participants)
}

func (r *Room) appendChat(msg models.ChatMessage) {
	r.chat.append(msg)
}

func (r *Room) appendStroke(s models.Stroke) {
	r.strokes = append(r.strokes, s)
}

func (r *Room) clearStrokes() {
	r.strokes = make([]models.Stroke, 0)
}

// Participants returns presence records in join order.
func (r *Room) Participants() []models.Presence {
	out := make([]models.Presence, 0, len(r.order))
	for _, id := range r.order {
		p := *r.participants[id]
		if p.Cursor != nil {
			c := *p.Cursor
			p.Cursor = &c
		}
		out = append(out, p)
	}
	return out
}

func (r *Room) snapshot() RoomJoinedPayload {
	strokes := make([]models.Stroke, len(r.strokes))
	copy(strokes, r.strokes)
	return RoomJoinedPayload{
		RoomID:       r.ID,
		Participants: r.Participants(),
		ChatHistory:  r.chat.snapshot(),
		Strokes:      strokes,
	}
}
