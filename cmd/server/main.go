package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"dm-relay/internal/auth"
	"dm-relay/internal/cache"
	"dm-relay/internal/config"
	"dm-relay/internal/database"
	"dm-relay/internal/handlers"
	"dm-relay/internal/websocket"
	"dm-relay/pkg/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	// Initialize database
	db, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	// Presence flags optionally mirrored into Redis
	var users database.UserStore = db
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis at %s unreachable, presence mirror will retry per write: %v", cfg.Redis.Addr, err)
		}
		users = cache.NewPresenceMirror(db, rdb, cfg.Redis.PresenceKey)
	}

	// Initialize hub
	hub := websocket.NewHub(websocket.NewRegistry(), users, db,
		websocket.WithStoreTimeout(cfg.Hub.StoreTimeout),
		websocket.WithSendBuffer(cfg.Hub.SendBuffer),
	)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// Initialize handlers
	authService := auth.NewService(cfg.JWT)
	wsHandlers := handlers.NewWebSocketHandlers(authService, hub, cfg.Server.AllowedOrigins)
	presenceHandlers := handlers.NewPresenceHandlers(authService, hub)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, wsHandlers, presenceHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(cfg.Server.AllowedOrigins, mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	printAPIEndpoints()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown: stop accepting handshakes, then drain the hub so every
	// bound user is marked offline before the stores close.
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"relay": func(ctx context.Context) error {
				logger.Info("Server shutting down...")

				var errs []error
				if err := server.Shutdown(ctx); err != nil {
					errs = append(errs, err)
				}

				stopHub()
				select {
				case <-hub.Stopped():
				case <-ctx.Done():
					errs = append(errs, ctx.Err())
				}

				if rdb != nil {
					if err := rdb.Close(); err != nil {
						errs = append(errs, err)
					}
				}
				if err := db.Close(); err != nil {
					errs = append(errs, err)
				}
				return errors.Join(errs...)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Server exited with code %d", exitCode)
	os.Exit(exitCode)
}

func setupRoutes(mux *http.ServeMux, wsHandlers *handlers.WebSocketHandlers, presenceHandlers *handlers.PresenceHandlers) {
	mux.HandleFunc("/online", presenceHandlers.ListOnline)
	mux.HandleFunc("/healthz", presenceHandlers.Health)

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

// corsMiddleware follows the same origin list as the websocket upgrader. An
// empty list allows every origin.
func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(allowedOrigins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case lo.Contains(allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
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
	logger.Info("   GET  /ws?token=...")
	logger.Info("   GET  /online")
	logger.Info("   GET  /healthz")
}
