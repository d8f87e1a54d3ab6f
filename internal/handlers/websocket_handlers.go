package handlers

import (
	"net/http"

	"collab-app/internal/auth"
	"collab-app/internal/realtime"
	"collab-app/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	hub         *realtime.Hub
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, hub *realtime.Hub, allowedOrigins []string) *WebSocketHandlers {
	origins := newOriginPolicy(allowedOrigins)
	return &WebSocketHandlers{
		authService: authService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     origins.check,
		},
	}
}

// HandleWebSocket authenticates the handshake before upgrading. No
// session exists, and no room event is reachable, unless the credential
// resolves to a known user.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Authenticate(r.Context(), auth.TokenFromRequest(r))
	if err != nil {
		if !auth.IsCredentialError(err) {
			logger.Error("Websocket handshake authentication failed: %v", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		logger.Debug("Rejected websocket handshake from %s: %v", r.RemoteAddr, err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	// Upgrade connection to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	session := realtime.NewSession(h.hub, conn, user)
	if err := h.hub.Register(session); err != nil {
		logger.Error("Error registering session: %v", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	// Start session pumps
	go session.WritePump()
	go session.ReadPump()
}
