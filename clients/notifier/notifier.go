package notifier

import (
	"time"

	"go.uber.org/zap"
)

// AlertKind indicates what kind of wallet activity triggered an alert.
type AlertKind string

const (
	AlertKindOrder        AlertKind = "order"         // new open order detected
	AlertKindFill         AlertKind = "fill"          // new fill detected
	AlertKindStatusChange AlertKind = "status_change" // order moved to a non-open status
	AlertKindOrderSummary AlertKind = "order_summary" // aggregated open-order activity
	AlertKindFillSummary  AlertKind = "fill_summary"  // aggregated fill activity
)

// Alert contains the data for a single wallet-activity notification.
// Message is the human-readable body; the rest is structured metadata
// sinks may use for richer rendering.
type Alert struct {
	Kind    AlertKind
	Address string
	Message string

	// Event metadata (zero values when not applicable)
	Coin      string
	Side      string // normalized: "buy" or "sell"
	Size      float64
	Price     float64
	Notional  float64
	Count     int // records behind a summary alert
	OrderID   string
	Status    string
	Timestamp time.Time
}

// Notifier is the interface for delivering alerts to a channel.
// Delivery is fire-and-forget; sinks log their own failures.
type Notifier interface {
	// SendAlert sends a wallet-activity alert.
	SendAlert(alert Alert)

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	// Filter out nil notifiers
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// SendAlert sends the alert to all registered notifiers.
func (m *MultiNotifier) SendAlert(alert Alert) {
	for _, n := range m.notifiers {
		n.SendAlert(alert)
	}
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}

// ConsoleNotifier writes alerts to the structured log. It is always
// configured, so every alert shows up somewhere even when no chat sink is.
type ConsoleNotifier struct {
	logger *zap.Logger
}

// NewConsoleNotifier creates a console notifier backed by the given logger.
func NewConsoleNotifier(logger *zap.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleNotifier{logger: logger}
}

// SendAlert logs the alert.
func (c *ConsoleNotifier) SendAlert(alert Alert) {
	c.logger.Info("ALERT",
		zap.String("kind", string(alert.Kind)),
		zap.String("address", alert.Address),
		zap.String("message", alert.Message),
	)
}

// Close implements Notifier.
func (c *ConsoleNotifier) Close() error {
	return nil
}
