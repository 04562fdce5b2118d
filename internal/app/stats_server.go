package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hlwatch/clients/hyperliquidevents"
)

// StatsServer exposes health and runtime stats over HTTP. Read-only; it
// never touches the pipeline, only snapshots.
type StatsServer struct {
	logger   *zap.Logger
	port     int
	watcher  *Watcher
	events   *hyperliquidevents.Client // nil when polling only
	server   *http.Server
	upgrader websocket.Upgrader
}

type statsResponse struct {
	Watcher   WatcherStats `json:"watcher"`
	WebSocket *wsStats     `json:"websocket,omitempty"`
	Uptime    string       `json:"uptime"`
}

type wsStats struct {
	MessageCount  uint64    `json:"messageCount"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

var startTime = time.Now()

func NewStatsServer(logger *zap.Logger, port int, watcher *Watcher, events *hyperliquidevents.Client) *StatsServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsServer{
		logger:  logger,
		port:    port,
		watcher: watcher,
		events:  events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start runs the HTTP server until ctx is canceled.
func (s *StatsServer) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWS)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("stats server listening", zap.Int("port", s.port))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("stats server failed", zap.Error(err))
	}
}

func (s *StatsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *StatsServer) snapshot() statsResponse {
	resp := statsResponse{
		Watcher: s.watcher.Stats(),
		Uptime:  time.Since(startTime).Round(time.Second).String(),
	}
	if s.events != nil {
		es := s.events.Stats()
		resp.WebSocket = &wsStats{
			MessageCount:  es.MessageCount,
			LastMessageAt: es.LastMessageAt,
		}
	}
	return resp
}

func (s *StatsServer) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		s.logger.Error("failed to encode stats", zap.Error(err))
	}
}

// handleWS streams a stats snapshot every few seconds over a WebSocket.
func (s *StatsServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.snapshot()); err != nil {
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
