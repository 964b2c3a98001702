package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/akashsiripuram/Nexus/internal/config"
	"github.com/akashsiripuram/Nexus/internal/relay"
)

const snapshotTimeout = 2 * time.Second

// newUpgrader configures the websocket upgrader for cfg's origin policy.
func newUpgrader(cfg *config.Config) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 4 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.OriginAllowed(r.Header.Get("Origin"))
		},
	}
}

// ServeWs returns an http.HandlerFunc that upgrades requests and hands the
// connection to the relay.
func ServeWs(rl *relay.Relay, cfg *config.Config, log *zap.Logger) http.HandlerFunc {
	upgrader := newUpgrader(cfg)
	opts := relay.ClientOptions{
		SendBuffer:     cfg.SendBuffer,
		MaxMessageSize: cfg.MaxMessageSize,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			log.Warn("websocket upgrade failed",
				zap.String("remote", r.RemoteAddr),
				zap.String("origin", r.Header.Get("Origin")),
				zap.Error(err))
			return
		}

		client := relay.NewClient(rl, conn, opts)
		if !rl.Register(client) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}

// healthCheckHandler reports liveness.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Chat relay is healthy."))
}

// roomsHandler serves the relay's current rooms as JSON.
func roomsHandler(rl *relay.Relay, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
		defer cancel()

		snap, err := rl.Snapshot(ctx)
		if err != nil {
			log.Warn("rooms snapshot failed", zap.Error(err))
			http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.Debug("writing rooms response", zap.Error(err))
		}
	}
}

// Routes builds the HTTP mux for the relay.
func Routes(rl *relay.Relay, cfg *config.Config, reg *prometheus.Registry, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthCheckHandler)
	mux.HandleFunc("GET /rooms", roomsHandler(rl, log))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/ws", ServeWs(rl, cfg, log))
	return mux
}
