package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"hlwatch/clients"
	"hlwatch/clients/hyperliquidevents"
	"hlwatch/config"
)

// Runner wires the components together and supervises them for the life of
// the process.
type Runner struct {
	logger  *zap.Logger
	cfg     *config.Config
	clients *clients.Clients
}

func NewRunner(logger *zap.Logger, cfg *config.Config, c *clients.Clients) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger:  logger,
		cfg:     cfg,
		clients: c,
	}
}

// Run blocks until ctx is canceled and everything has shut down.
func (r *Runner) Run(ctx context.Context) {
	store := NewEventStore(r.logger, r.cfg.State.FilePath)
	watcher := NewWatcher(r.logger, r.cfg, r.clients.Hyperliquid, store, r.clients.Notifier)

	var wg sync.WaitGroup

	// WebSocket is a latency optimization: activity on a subscribed
	// channel just makes the poll loop run early. Polling stays the
	// source of truth, so a failed connect only costs responsiveness.
	if r.clients.HyperliquidEvents != nil {
		if err := r.clients.HyperliquidEvents.Connect(ctx, r.cfg.Watcher.Addresses); err != nil {
			r.logger.Warn("websocket connect failed, falling back to polling only", zap.Error(err))
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.pumpEvents(ctx, watcher)
			}()
		}
	}

	if r.cfg.HealthServer.Enabled {
		events := r.clients.HyperliquidEvents
		server := NewStatsServer(r.logger, r.cfg.HealthServer.Port, watcher, events)
		wg.Add(1)
		go func() {
			defer wg.Done()
			server.Start(ctx)
		}()
	}

	watcher.Run(ctx)
	wg.Wait()

	if err := r.clients.Notifier.Close(); err != nil {
		r.logger.Error("failed to close notifiers", zap.Error(err))
	}
	r.logger.Info("shutdown complete")
}

// pumpEvents turns streamed activity into poll-loop kicks.
func (r *Runner) pumpEvents(ctx context.Context, watcher *Watcher) {
	events := r.clients.HyperliquidEvents
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-events.Errors():
			if !ok {
				return
			}
			r.logger.Warn("websocket read error, polling continues", zap.Error(err))
			return
		case msg, ok := <-events.Messages():
			if !ok {
				return
			}
			switch hyperliquidevents.ParseChannel(msg) {
			case "orderUpdates", "userFills":
				r.logger.Debug("websocket activity, kicking poll loop",
					zap.String("user", hyperliquidevents.ParseUser(msg)),
				)
				watcher.Kick()
			}
		}
	}
}
