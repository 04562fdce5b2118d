package app

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"hlwatch/clients/hyperliquid"
	"hlwatch/clients/notifier"
	"hlwatch/config"
)

// ExchangeClient is the slice of the Hyperliquid info API the watcher needs.
type ExchangeClient interface {
	GetOpenOrders(ctx context.Context, address string) ([]hyperliquid.Order, error)
	GetFills(ctx context.Context, address string, startTime int64) ([]hyperliquid.Fill, error)
	GetOrderStatus(ctx context.Context, address string, orderID int64) (*hyperliquid.OrderStatusRecord, error)
}

// WatcherStats is a point-in-time snapshot for the stats server.
type WatcherStats struct {
	Cycles          uint64    `json:"cycles"`
	OrdersDetected  uint64    `json:"ordersDetected"`
	FillsDetected   uint64    `json:"fillsDetected"`
	AlertsSent      uint64    `json:"alertsSent"`
	TrackedOrders   int       `json:"trackedOrders"`
	BufferedRecords int       `json:"bufferedRecords"`
	LedgerOrders    int       `json:"ledgerOrders"`
	LedgerFills     int       `json:"ledgerFills"`
	LedgerStatuses  int       `json:"ledgerStatuses"`
	LastCycleAt     time.Time `json:"lastCycleAt"`
}

// Watcher polls the exchange for each configured wallet and turns new
// activity into alerts. One goroutine runs the loop; everything it touches
// downstream (store, tracker, aggregators) is written only from here.
type Watcher struct {
	logger  *zap.Logger
	client  ExchangeClient
	store   *EventStore
	notify  notifier.Notifier
	tracker *OrderLifecycleTracker

	orderAgg *Aggregator
	fillAgg  *Aggregator

	addresses     []string
	interval      time.Duration
	window        time.Duration
	minTradeValue float64

	lastFlush time.Time
	kick      chan struct{}

	statsMu        sync.Mutex
	cycles         uint64
	ordersDetected uint64
	fillsDetected  uint64
	alertsSent     uint64
	lastCycleAt    time.Time
}

func NewWatcher(logger *zap.Logger, cfg *config.Config, client ExchangeClient, store *EventStore, notify notifier.Notifier) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		logger:        logger,
		client:        client,
		store:         store,
		notify:        notify,
		tracker:       NewOrderLifecycleTracker(logger, client, store, notify, cfg.Watcher.EvictFilled),
		orderAgg:      NewAggregator(),
		fillAgg:       NewAggregator(),
		addresses:     cfg.Watcher.Addresses,
		interval:      cfg.Watcher.Interval,
		window:        cfg.Watcher.AggregationWindow,
		minTradeValue: cfg.Watcher.MinTradeValue,
		lastFlush:     time.Now(),
		kick:          make(chan struct{}, 1),
	}
}

// Kick asks the loop to run a cycle as soon as it finishes sleeping on the
// current one. Non-blocking; multiple kicks coalesce.
func (w *Watcher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run executes poll cycles until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("watcher started",
		zap.Int("addresses", len(w.addresses)),
		zap.Duration("interval", w.interval),
		zap.Duration("aggregationWindow", w.window),
	)

	// Accepted and validated, but no filter is wired to it yet.
	if w.minTradeValue > 0 {
		w.logger.Warn("minTradeValue is set but not enforced",
			zap.Float64("minTradeValue", w.minTradeValue),
		)
	}

	for {
		if ctx.Err() != nil {
			w.logger.Info("watcher stopped")
			return
		}

		w.runCycle(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return
		case <-w.kick:
		case <-time.After(w.interval):
		}
	}
}

func (w *Watcher) runCycle(ctx context.Context) {
	for _, address := range w.addresses {
		if ctx.Err() != nil {
			return
		}
		w.processOrders(ctx, address)
		w.processFills(ctx, address)
	}

	if time.Since(w.lastFlush) >= w.window {
		w.flush()
		w.lastFlush = time.Now()
	}

	w.statsMu.Lock()
	w.cycles++
	w.lastCycleAt = time.Now()
	w.statsMu.Unlock()
}

// processOrders buffers unseen open orders and hands disappeared ones to
// the lifecycle tracker. A fetch failure degrades to an empty listing:
// every tracked order for the address gets a status check, which no-ops for
// orders that are in fact still open.
func (w *Watcher) processOrders(ctx context.Context, address string) {
	orders, err := w.client.GetOpenOrders(ctx, address)
	if err != nil {
		w.logger.Warn("open orders fetch failed",
			zap.String("address", address),
			zap.Error(err),
		)
	}

	openIDs := make([]int64, 0, len(orders))
	for _, order := range orders {
		if order.OrderID == 0 || order.Timestamp == 0 {
			w.logger.Warn("skipping malformed order record",
				zap.String("address", address),
				zap.Int64("oid", order.OrderID),
			)
			continue
		}

		openIDs = append(openIDs, order.OrderID)
		w.tracker.Track(address, order.Coin, order.OrderID)

		id := strconv.FormatInt(order.OrderID, 10)
		if !w.store.IsNew(NamespaceOrders, id, order.Timestamp) {
			continue
		}

		w.logger.Info("new open order",
			zap.String("address", address),
			zap.String("coin", order.Coin),
			zap.Int64("oid", order.OrderID),
		)
		w.orderAgg.Add(Record{
			ID:        id,
			Address:   address,
			Coin:      order.Coin,
			Side:      order.Side,
			Size:      order.SizeFloat(),
			Price:     order.PriceFloat(),
			OrderType: order.OrderType,
		})
		w.store.Record(NamespaceOrders, id, order.Timestamp)

		w.statsMu.Lock()
		w.ordersDetected++
		w.statsMu.Unlock()
	}

	for _, oid := range w.tracker.Vanished(address, openIDs) {
		w.tracker.CheckStatus(ctx, oid)
	}
}

// processFills buffers unseen fills. Fetch failures are soft: log and move
// on, the next cycle retries.
func (w *Watcher) processFills(ctx context.Context, address string) {
	fills, err := w.client.GetFills(ctx, address, 0)
	if err != nil {
		w.logger.Warn("fills fetch failed",
			zap.String("address", address),
			zap.Error(err),
		)
		return
	}

	for _, fill := range fills {
		if fill.FillID == 0 || fill.Time == 0 {
			w.logger.Warn("skipping malformed fill record",
				zap.String("address", address),
				zap.Int64("tid", fill.FillID),
			)
			continue
		}

		id := strconv.FormatInt(fill.FillID, 10)
		if !w.store.IsNew(NamespaceFills, id, fill.Time) {
			continue
		}

		w.logger.Info("new fill",
			zap.String("address", address),
			zap.String("coin", fill.Coin),
			zap.Int64("tid", fill.FillID),
		)
		w.fillAgg.Add(Record{
			ID:      id,
			Address: address,
			Coin:    fill.Coin,
			Side:    fill.Side,
			Size:    fill.SizeFloat(),
			Price:   fill.PriceFloat(),
		})
		w.store.Record(NamespaceFills, id, fill.Time)

		w.statsMu.Lock()
		w.fillsDetected++
		w.statsMu.Unlock()
	}
}

// flush emits one alert per non-empty (coin, side) bucket and clears both
// buffers. Lone records get the singular wording, bursts the summary one.
func (w *Watcher) flush() {
	for _, s := range w.orderAgg.Summaries() {
		w.notify.SendAlert(orderAlert(s))
		w.statsMu.Lock()
		w.alertsSent++
		w.statsMu.Unlock()
	}
	w.orderAgg.Clear()

	for _, s := range w.fillAgg.Summaries() {
		w.notify.SendAlert(fillAlert(s))
		w.statsMu.Lock()
		w.alertsSent++
		w.statsMu.Unlock()
	}
	w.fillAgg.Clear()
}

// Stats returns a snapshot of loop counters plus current component sizes.
func (w *Watcher) Stats() WatcherStats {
	w.statsMu.Lock()
	stats := WatcherStats{
		Cycles:         w.cycles,
		OrdersDetected: w.ordersDetected,
		FillsDetected:  w.fillsDetected,
		AlertsSent:     w.alertsSent,
		LastCycleAt:    w.lastCycleAt,
	}
	w.statsMu.Unlock()

	stats.TrackedOrders = w.tracker.ActiveCount()
	stats.BufferedRecords = w.orderAgg.Len() + w.fillAgg.Len()
	stats.LedgerOrders = w.store.Size(NamespaceOrders)
	stats.LedgerFills = w.store.Size(NamespaceFills)
	stats.LedgerStatuses = w.store.Size(NamespaceStatusChanges)
	return stats
}

// ---- Alert building ----

func orderAlert(s Summary) notifier.Alert {
	alert := notifier.Alert{
		Coin:      s.Coin,
		Side:      s.Side,
		Size:      s.TotalSize,
		Price:     s.AvgPrice,
		Notional:  s.TotalVolume,
		Count:     s.Count,
		Timestamp: time.Now().UTC(),
	}

	if s.Count == 1 {
		alert.Kind = notifier.AlertKindOrder
		alert.Address = s.Address
		alert.OrderID = s.FirstID
		alert.Message = fmt.Sprintf("📋 %s placed a %s %s order: %.4f %s @ $%.4f ($%.2f)",
			shortAddress(s.Address), s.OrderType, s.Side,
			s.TotalSize, s.Coin, s.AvgPrice, s.TotalVolume)
		return alert
	}

	alert.Kind = notifier.AlertKindOrderSummary
	alert.Message = fmt.Sprintf("📊 %d new %s %s orders: total %.4f, volume $%.2f, avg price $%.4f",
		s.Count, s.Side, s.Coin, s.TotalSize, s.TotalVolume, s.AvgPrice)
	return alert
}

func fillAlert(s Summary) notifier.Alert {
	alert := notifier.Alert{
		Coin:      s.Coin,
		Side:      s.Side,
		Size:      s.TotalSize,
		Price:     s.AvgPrice,
		Notional:  s.TotalVolume,
		Count:     s.Count,
		Timestamp: time.Now().UTC(),
	}

	if s.Count == 1 {
		action := "Sold"
		if s.Side == "buy" {
			action = "Bought"
		}
		alert.Kind = notifier.AlertKindFill
		alert.Address = s.Address
		alert.Message = fmt.Sprintf("💱 %s %s %.4f %s @ $%.4f ($%.2f)",
			shortAddress(s.Address), action,
			s.TotalSize, s.Coin, s.AvgPrice, s.TotalVolume)
		return alert
	}

	alert.Kind = notifier.AlertKindFillSummary
	alert.Message = fmt.Sprintf("📊 %d %s fills on %s: total %.4f, volume $%.2f, avg price $%.4f",
		s.Count, s.Side, s.Coin, s.TotalSize, s.TotalVolume, s.AvgPrice)
	return alert
}
