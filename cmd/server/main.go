package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collab-app/internal/auth"
	"collab-app/internal/config"
	"collab-app/internal/database"
	"collab-app/internal/handlers"
	"collab-app/internal/realtime"
	"collab-app/internal/services"
	"collab-app/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.Log.Level)

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to migrate database: %v", err)
	}

	// Initialize services
	authService := auth.NewService(db, cfg)
	roomService := services.NewRoomService(db)

	// Initialize realtime hub
	hub := realtime.NewHub(db, realtime.Config{
		ChatHistoryLimit: cfg.Realtime.ChatHistoryLimit,
		SendBuffer:       cfg.WebSocket.SendBuffer,
		MaxMessageSize:   cfg.WebSocket.MaxMessageSize,
		RateLimit:        cfg.WebSocket.RateLimit,
		RateBurst:        cfg.WebSocket.RateBurst,
	})
	go hub.Run()

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	roomHandlers := handlers.NewRoomHandlers(roomService, authService, hub)
	wsHandlers := handlers.NewWebSocketHandlers(authService, hub, cfg.WebSocket.AllowedOrigins)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, roomHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	printAPIEndpoints()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error: %v", err)
	}
	hub.Shutdown()
}

func setupRoutes(mux *http.ServeMux, authHandlers *handlers.AuthHandlers, roomHandlers *handlers.RoomHandlers, wsHandlers *handlers.WebSocketHandlers) {
	// Auth routes
	mux.HandleFunc("/login", authHandlers.Login)
	mux.HandleFunc("/register", authHandlers.Register)

	// Room routes
	mux.HandleFunc("/rooms", roomHandlers.Rooms)
	mux.HandleFunc("/rooms/", roomHandlers.Room)

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func printAPIEndpoints() {
	logger.Info("🔗 API endpoints:")
	logger.Info("   POST   /login")
	logger.Info("   POST   /register")
	logger.Info("   GET    /rooms")
	logger.Info("   POST   /rooms")
	logger.Info("   GET    /rooms/{id}")
	logger.Info("   PATCH  /rooms/{id}")
	logger.Info("   DELETE /rooms/{id}")
	logger.Info("   GET    /rooms/{id}/presence")
	logger.Info("   GET    /metrics")
}
