package notifier

import (
	"errors"
	"testing"
)

type fakeNotifier struct {
	alerts   []Alert
	closed   bool
	closeErr error
}

func (f *fakeNotifier) SendAlert(alert Alert) {
	f.alerts = append(f.alerts, alert)
}

func (f *fakeNotifier) Close() error {
	f.closed = true
	return f.closeErr
}

func TestMultiNotifierBroadcasts(t *testing.T) {
	a := &fakeNotifier{}
	b := &fakeNotifier{}
	multi := NewMultiNotifier(a, b)

	multi.SendAlert(Alert{Kind: AlertKindFill, Message: "hello"})

	if len(a.alerts) != 1 || len(b.alerts) != 1 {
		t.Errorf("expected both sinks to receive the alert, got %d/%d", len(a.alerts), len(b.alerts))
	}
}

func TestMultiNotifierFiltersNil(t *testing.T) {
	a := &fakeNotifier{}
	multi := NewMultiNotifier(a, nil, nil)

	if multi.Count() != 1 {
		t.Errorf("expected 1 active notifier, got %d", multi.Count())
	}

	multi.SendAlert(Alert{Kind: AlertKindOrder})
	if len(a.alerts) != 1 {
		t.Errorf("expected alert delivery, got %d", len(a.alerts))
	}
}

func TestMultiNotifierCloseAll(t *testing.T) {
	a := &fakeNotifier{closeErr: errors.New("boom")}
	b := &fakeNotifier{}
	multi := NewMultiNotifier(a, b)

	err := multi.Close()

	if !a.closed || !b.closed {
		t.Error("expected all notifiers closed")
	}
	if err == nil {
		t.Error("expected close error to surface")
	}
}

func TestConsoleNotifier(t *testing.T) {
	console := NewConsoleNotifier(nil)

	// Must not panic with a nil logger fallback.
	console.SendAlert(Alert{Kind: AlertKindStatusChange, Message: "test"})

	if err := console.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
