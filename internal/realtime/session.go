package realtime

import (
	"context"
	"time"

	"collab-app/internal/models"
	"collab-app/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Session is one authenticated connection. User is fixed for the life of
// the connection; joined is owned by the hub goroutine.
type Session struct {
	ID   string
	User *models.User

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	joined  map[string]struct{}
	evicted bool
}

func NewSession(hub *Hub, conn *websocket.Conn, user *models.User) *Session {
	return &Session{
		ID:      uuid.NewString(),
		User:    user,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.cfg.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(hub.cfg.RateLimit), hub.cfg.RateBurst),
		joined:  make(map[string]struct{}),
	}
}

// ReadPump decodes frames into events and hands them to the hub. When the
// connection drops, the session is unregistered, which runs the leave
// cleanup for every room it was in.
func (s *Session) ReadPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(s.hub.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error for session %s: %v", s.ID, err)
			}
			return
		}

		ev, err := DecodeEvent(message)
		if err != nil {
			if err := s.hub.ReplyError(ctx, s, err.Error()); err != nil {
				return
			}
			continue
		}

		// Only cursor updates are throttled; the excess is dropped without
		// a reply. Membership and log events always reach the hub.
		if _, ok := ev.(CursorUpdate); ok && !s.limiter.Allow() {
			cursorsDropped.Inc()
			continue
		}

		if err := s.hub.Handle(ctx, s, ev); err != nil {
			return
		}
	}
}

func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error for session %s: %v", s.ID, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
