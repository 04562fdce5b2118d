package app

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"hlwatch/clients/notifier"
)

// terminalStatuses are the order states after which the exchange will never
// report anything further for the oid.
var terminalStatuses = map[string]bool{
	"canceled":       true,
	"rejected":       true,
	"marginCanceled": true,
}

type trackedOrder struct {
	address    string
	coin       string
	lastStatus string
}

// OrderLifecycleTracker remembers every open order it has seen and, when an
// order disappears from the open-orders listing, asks the exchange what
// happened to it. Transitions are deduplicated through the event store and
// announced through the notifier.
//
// The watch loop is the only mutator; the mutex exists for the stats
// server, which reads ActiveCount concurrently.
type OrderLifecycleTracker struct {
	logger      *zap.Logger
	client      ExchangeClient
	store       *EventStore
	notify      notifier.Notifier
	evictFilled bool

	mu     sync.Mutex
	active map[int64]trackedOrder
}

func NewOrderLifecycleTracker(logger *zap.Logger, client ExchangeClient, store *EventStore, notify notifier.Notifier, evictFilled bool) *OrderLifecycleTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderLifecycleTracker{
		logger:      logger,
		client:      client,
		store:       store,
		notify:      notify,
		evictFilled: evictFilled,
		active:      make(map[int64]trackedOrder),
	}
}

// Track registers an open order for lifecycle monitoring. Re-tracking a
// known oid refreshes its address and marks it open again.
func (t *OrderLifecycleTracker) Track(address, coin string, orderID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[orderID] = trackedOrder{
		address:    address,
		coin:       coin,
		lastStatus: "open",
	}
}

// Vanished returns the tracked oids belonging to address that are absent
// from the current open-orders listing.
func (t *OrderLifecycleTracker) Vanished(address string, open []int64) []int64 {
	current := make(map[int64]bool, len(open))
	for _, oid := range open {
		current[oid] = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	var gone []int64
	for oid, tracked := range t.active {
		if tracked.address == address && !current[oid] {
			gone = append(gone, oid)
		}
	}
	return gone
}

// CheckStatus looks up what happened to a tracked order that vanished from
// the open listing. Lookup failures and unknown oids are no-ops; the order
// stays tracked and is retried next cycle.
func (t *OrderLifecycleTracker) CheckStatus(ctx context.Context, orderID int64) {
	t.mu.Lock()
	tracked, ok := t.active[orderID]
	t.mu.Unlock()
	if !ok {
		return
	}

	// The lock is not held across the lookup; only the watch loop mutates
	// entries, so tracked cannot change underneath us.
	record, err := t.client.GetOrderStatus(ctx, tracked.address, orderID)
	if err != nil {
		t.logger.Warn("order status lookup failed",
			zap.Int64("oid", orderID),
			zap.Error(err),
		)
		return
	}
	if record == nil {
		t.logger.Debug("no status record for order", zap.Int64("oid", orderID))
		return
	}

	status := record.Status
	changed := status != tracked.lastStatus
	tracked.lastStatus = status
	t.mu.Lock()
	t.active[orderID] = tracked
	t.mu.Unlock()

	// "open" means listing lag, the order is still resting. "filled" is
	// announced by the fill pipeline, not here.
	if !changed || status == "open" || status == "filled" {
		if status == "filled" && t.evictFilled {
			t.evict(orderID, status)
		}
		return
	}

	coin := record.Coin
	if coin == "" {
		coin = tracked.coin
	}

	key := strconv.FormatInt(orderID, 10) + "_" + status
	if t.store.IsNew(NamespaceStatusChanges, key, record.StatusTimestamp) {
		t.notify.SendAlert(notifier.Alert{
			Kind:      notifier.AlertKindStatusChange,
			Address:   tracked.address,
			Message:   statusChangeMessage(tracked.address, coin, orderID, status, record.StatusTimestamp),
			Coin:      coin,
			OrderID:   strconv.FormatInt(orderID, 10),
			Status:    status,
			Timestamp: msToTime(record.StatusTimestamp),
		})
		t.store.Record(NamespaceStatusChanges, key, record.StatusTimestamp)
	}

	if terminalStatuses[status] {
		t.evict(orderID, status)
	}
}

func (t *OrderLifecycleTracker) evict(orderID int64, status string) {
	t.mu.Lock()
	delete(t.active, orderID)
	t.mu.Unlock()
	t.logger.Debug("stopped tracking order",
		zap.Int64("oid", orderID),
		zap.String("status", status),
	)
}

// ActiveCount returns the number of orders currently tracked.
func (t *OrderLifecycleTracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

func statusChangeMessage(address, coin string, orderID int64, status string, ts int64) string {
	return fmt.Sprintf("🔁 Order %d (%s) for %s is now %s at %s",
		orderID, coin, shortAddress(address), status, formatMillis(ts))
}
