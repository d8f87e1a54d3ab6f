package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"collab-app/internal/database"
	"collab-app/internal/models"
	"collab-app/pkg/logger"

	"github.com/google/uuid"
)

// ErrHubClosed is returned once the hub has stopped accepting work.
var ErrHubClosed = errors.New("realtime hub is closed")

// RoomFinder answers whether a room exists in the durable store.
type RoomFinder interface {
	GetRoomByID(ctx context.Context, id string) (*models.Room, error)
}

type Config struct {
	ChatHistoryLimit int
	SendBuffer       int
	MaxMessageSize   int64
	// RateLimit and RateBurst throttle cursor-update per connection.
	RateLimit float64
	RateBurst int
}

func (c Config) withDefaults() Config {
	if c.ChatHistoryLimit <= 0 {
		c.ChatHistoryLimit = DefaultChatHistoryLimit
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 50
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 100
	}
	return c
}

type inbound struct {
	session   *Session
	event     Event
	lookupErr error
	errMsg    string
}

// Hub is the single owner of all room state. Every mutation and the
// broadcasts it causes run on the Run goroutine, one event at a time, so
// validation, mutation and fan-out for a request are never interleaved
// with another request.
type Hub struct {
	cfg      Config
	rooms    RoomFinder
	registry *Registry

	sessions map[*Session]struct{}
	groups   map[string]map[*Session]struct{}
	slow     []*Session

	register   chan *Session
	unregister chan *Session
	inbound    chan inbound
	queries    chan func()

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	now func() time.Time
}

func NewHub(rooms RoomFinder, cfg Config) *Hub {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		cfg:        cfg,
		rooms:      rooms,
		registry:   NewRegistry(cfg.ChatHistoryLimit),
		sessions:   make(map[*Session]struct{}),
		groups:     make(map[string]map[*Session]struct{}),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		inbound:    make(chan inbound),
		queries:    make(chan func()),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case s := <-h.register:
			h.sessions[s] = struct{}{}
			sessionsActive.Inc()
			logger.Debug("Session %s registered for user %d", s.ID, s.User.ID)

		case s := <-h.unregister:
			h.disconnect(s)

		case in := <-h.inbound:
			h.dispatch(in)

		case q := <-h.queries:
			q()
		}

		h.evictSlow()
	}
}

// Shutdown stops the loop and closes every session's send channel.
func (h *Hub) Shutdown() {
	h.cancel()
	<-h.done
}

func (h *Hub) Register(s *Session) error {
	select {
	case h.register <- s:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister runs the disconnect cleanup for s. Unregistering a session
// twice is harmless.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Handle queues ev for processing. A join first checks the durable store
// for the room on the caller's goroutine; nothing is applied until the
// hub picks the request up with the lookup result attached.
func (h *Hub) Handle(ctx context.Context, s *Session, ev Event) error {
	in := inbound{session: s, event: ev}
	if join, ok := ev.(JoinRoom); ok {
		if _, err := h.rooms.GetRoomByID(ctx, join.RoomID); err != nil {
			in.lookupErr = err
		}
	}
	eventsTotal.WithLabelValues(ev.Type()).Inc()
	return h.submit(ctx, in)
}

// ReplyError sends a room-error to s through the hub so it is ordered
// with the session's other deliveries.
func (h *Hub) ReplyError(ctx context.Context, s *Session, message string) error {
	return h.submit(ctx, inbound{session: s, errMsg: message})
}

func (h *Hub) submit(ctx context.Context, in inbound) error {
	select {
	case h.inbound <- in:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Participants returns the live presence list for a room, or nil when
// nobody is in it.
func (h *Hub) Participants(ctx context.Context, roomID string) ([]models.Presence, error) {
	var out []models.Presence
	if err := h.query(ctx, func() {
		if room, ok := h.registry.Get(roomID); ok {
			out = room.Participants()
		}
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// RoomCount reports how many rooms currently have live state.
func (h *Hub) RoomCount(ctx context.Context) (int, error) {
	var n int
	if err := h.query(ctx, func() { n = h.registry.Len() }); err != nil {
		return 0, err
	}
	return n, nil
}

func (h *Hub) query(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case h.queries <- func() { fn(); close(finished) }:
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) dispatch(in inbound) {
	s := in.session
	if _, ok := h.sessions[s]; !ok {
		// disconnected while the request was pending
		return
	}

	roomID := ""
	if in.event != nil {
		roomID = in.event.Room()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic handling %T for session %s: %v", in.event, s.ID, r)
			h.replyError(s, roomID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if in.errMsg != "" {
		h.replyError(s, "", in.errMsg)
		return
	}

	switch ev := in.event.(type) {
	case JoinRoom:
		h.join(s, ev.RoomID, in.lookupErr)
	case LeaveRoom:
		h.leave(s, ev.RoomID)
	case CursorUpdate:
		h.updateCursor(s, ev)
	case ChatSend:
		h.sendChat(s, ev)
	case StrokeSubmit:
		h.submitStroke(s, ev)
	case BoardClear:
		h.clearBoard(s, ev)
	default:
		h.replyError(s, roomID, fmt.Sprintf("unsupported event %T", in.event))
	}
}

func (h *Hub) join(s *Session, roomID string, lookupErr error) {
	if lookupErr != nil {
		msg := "room not found"
		if !errors.Is(lookupErr, database.ErrNotFound) {
			logger.Error("Room lookup for %s failed: %v", roomID, lookupErr)
			msg = "failed to look up room"
		}
		h.replyError(s, roomID, msg)
		return
	}

	group, ok := h.groups[roomID]
	if !ok {
		group = make(map[*Session]struct{})
		h.groups[roomID] = group
	}
	group[s] = struct{}{}
	s.joined[roomID] = struct{}{}

	room := h.registry.GetOrCreate(roomID)
	presence := models.PresenceFromUser(s.User)
	room.upsertPresence(presence)

	h.reply(s, EventRoomJoined, room.snapshot())
	h.relay(roomID, s, EventParticipantJoined, ParticipantJoinedPayload{
		RoomID:      roomID,
		Participant: presence,
	})
	logger.Debug("User %d joined room %s (%d participants)", s.User.ID, roomID, room.participantCount())
}

func (h *Hub) leave(s *Session, roomID string) {
	if _, ok := s.joined[roomID]; !ok {
		return
	}
	delete(s.joined, roomID)

	if group, ok := h.groups[roomID]; ok {
		delete(group, s)
		if len(group) == 0 {
			delete(h.groups, roomID)
		}
	}

	// Another connection of the same user keeps the presence alive.
	if h.userInGroup(roomID, s.User.ID) {
		return
	}

	room, ok := h.registry.Get(roomID)
	if !ok || !room.removePresence(s.User.ID) {
		return
	}
	if room.participantCount() == 0 {
		h.registry.Release(roomID)
		logger.Debug("Room %s released", roomID)
	}

	h.relay(roomID, s, EventParticipantLeft, ParticipantLeftPayload{
		RoomID: roomID,
		UserID: s.User.ID,
	})
	logger.Debug("User %d left room %s", s.User.ID, roomID)
}

func (h *Hub) userInGroup(roomID string, userID int) bool {
	for member := range h.groups[roomID] {
		if member.User.ID == userID {
			return true
		}
	}
	return false
}

// joinedRoom returns the room state for a session that is in the room.
// Events for rooms the session has left are stale and dropped.
func (h *Hub) joinedRoom(s *Session, roomID string) (*Room, bool) {
	if _, ok := s.joined[roomID]; !ok {
		return nil, false
	}
	return h.registry.Get(roomID)
}

func (h *Hub) updateCursor(s *Session, ev CursorUpdate) {
	room, ok := h.joinedRoom(s, ev.RoomID)
	if !ok || !room.setCursor(s.User.ID, *ev.Cursor) {
		return
	}
	h.relay(ev.RoomID, s, EventCursorUpdate, CursorPayload{
		RoomID: ev.RoomID,
		UserID: s.User.ID,
		Cursor: *ev.Cursor,
	})
}

func (h *Hub) sendChat(s *Session, ev ChatSend) {
	content := strings.TrimSpace(ev.Content)
	if content == "" {
		return
	}
	room, ok := h.joinedRoom(s, ev.RoomID)
	if !ok {
		return
	}

	msg := models.ChatMessage{
		ID:          uuid.NewString(),
		RoomID:      ev.RoomID,
		UserID:      s.User.ID,
		DisplayName: s.User.DisplayName,
		Content:     content,
		Timestamp:   h.now().UTC(),
	}
	room.appendChat(msg)
	h.relay(ev.RoomID, nil, EventChatMessage, msg)
}

func (h *Hub) submitStroke(s *Session, ev StrokeSubmit) {
	room, ok := h.joinedRoom(s, ev.RoomID)
	if !ok {
		return
	}

	points := make([]models.Point, len(ev.Stroke.Points))
	copy(points, ev.Stroke.Points)
	stroke := models.Stroke{
		ID:          uuid.NewString(),
		ClientID:    ev.Stroke.ClientID,
		RoomID:      ev.RoomID,
		UserID:      s.User.ID,
		DisplayName: s.User.DisplayName,
		Color:       ev.Stroke.Color,
		Size:        ev.Stroke.Size,
		Tool:        ev.Stroke.Tool,
		Points:      points,
		Timestamp:   h.now().UTC(),
	}
	room.appendStroke(stroke)
	h.relay(ev.RoomID, nil, EventStrokeBroadcast, StrokePayload{
		RoomID: ev.RoomID,
		Stroke: stroke,
	})
}

func (h *Hub) clearBoard(s *Session, ev BoardClear) {
	room, ok := h.joinedRoom(s, ev.RoomID)
	if !ok {
		return
	}
	room.clearStrokes()
	h.relay(ev.RoomID, nil, EventBoardCleared, BoardClearedPayload{
		RoomID:    ev.RoomID,
		ClearedBy: s.User.ID,
	})
}

func (h *Hub) disconnect(s *Session) {
	if _, ok := h.sessions[s]; !ok {
		return
	}
	for roomID := range s.joined {
		h.leave(s, roomID)
	}
	clear(s.joined)

	delete(h.sessions, s)
	close(s.send)
	sessionsActive.Dec()
	logger.Debug("Session %s for user %d disconnected", s.ID, s.User.ID)
}

func (h *Hub) closeAll() {
	for s := range h.sessions {
		delete(h.sessions, s)
		close(s.send)
		sessionsActive.Dec()
	}
	logger.Info("Realtime hub stopped")
}

// reply delivers to the requesting session only.
func (h *Hub) reply(s *Session, eventType string, payload any) {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		logger.Error("Error encoding %s: %v", eventType, err)
		return
	}
	h.deliver(s, data)
}

func (h *Hub) replyError(s *Session, roomID, message string) {
	h.reply(s, EventRoomError, RoomErrorPayload{RoomID: roomID, Message: message})
}

// relay delivers to every session in the room's delivery group except
// the one given; pass nil to include everybody.
func (h *Hub) relay(roomID string, except *Session, eventType string, payload any) {
	group := h.groups[roomID]
	if len(group) == 0 {
		return
	}
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		logger.Error("Error encoding %s: %v", eventType, err)
		return
	}
	for member := range group {
		if member == except {
			continue
		}
		h.deliver(member, data)
	}
}

func (h *Hub) deliver(s *Session, data []byte) {
	if s.evicted {
		return
	}
	select {
	case s.send <- data:
	default:
		s.evicted = true
		h.slow = append(h.slow, s)
	}
}

// evictSlow disconnects sessions whose buffers filled up. Their leave
// broadcasts may overflow further sessions, so it loops until settled.
func (h *Hub) evictSlow() {
	for len(h.slow) > 0 {
		s := h.slow[0]
		h.slow = h.slow[1:]
		if _, ok := h.sessions[s]; !ok {
			continue
		}
		sessionsEvicted.Inc()
		logger.Warn("Evicting session %s for user %d: send buffer full", s.ID, s.User.ID)
		h.disconnect(s)
	}
}
