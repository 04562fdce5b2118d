package app

import (
	"context"
	"sync"

	"hlwatch/clients/hyperliquid"
	"hlwatch/clients/notifier"
)

// fakeExchange is a scriptable ExchangeClient.
type fakeExchange struct {
	mu sync.Mutex

	orders   map[string][]hyperliquid.Order
	fills    map[string][]hyperliquid.Fill
	statuses map[int64]*hyperliquid.OrderStatusRecord

	ordersErr error
	fillsErr  error
	statusErr error

	statusCalls []int64
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		orders:   make(map[string][]hyperliquid.Order),
		fills:    make(map[string][]hyperliquid.Fill),
		statuses: make(map[int64]*hyperliquid.OrderStatusRecord),
	}
}

func (f *fakeExchange) GetOpenOrders(ctx context.Context, address string) ([]hyperliquid.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return f.orders[address], nil
}

func (f *fakeExchange) GetFills(ctx context.Context, address string, startTime int64) ([]hyperliquid.Fill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fillsErr != nil {
		return nil, f.fillsErr
	}
	return f.fills[address], nil
}

func (f *fakeExchange) GetOrderStatus(ctx context.Context, address string, orderID int64) (*hyperliquid.OrderStatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, orderID)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.statuses[orderID], nil
}

// recordingNotifier captures alerts for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notifier.Alert
	closed bool
}

func (r *recordingNotifier) SendAlert(alert notifier.Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
}

func (r *recordingNotifier) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingNotifier) byKind(kind notifier.AlertKind) []notifier.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifier.Alert
	for _, a := range r.alerts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}
