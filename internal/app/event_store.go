package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Event namespaces in the ledger. Keys in the persisted JSON object.
const (
	NamespaceOrders        = "orders"
	NamespaceFills         = "fills"
	NamespaceStatusChanges = "status_changes"
)

var ledgerNamespaces = []string{NamespaceOrders, NamespaceFills, NamespaceStatusChanges}

// EventStore is the persisted deduplication ledger. Each namespace maps an
// event identifier to the epoch-ms timestamp it was last recorded with; an
// event is new iff the id is absent or carries a different timestamp. The
// same id with a changed timestamp re-alerts on purpose.
//
// The watch loop is the only writer; the mutex exists for the stats server,
// which reads sizes concurrently.
type EventStore struct {
	logger *zap.Logger
	path   string

	mu     sync.Mutex
	ledger map[string]map[string]int64
}

// NewEventStore loads the ledger at path, or starts fresh when the file is
// missing or unreadable. Corruption never propagates: a bad file resets the
// in-memory ledger to empty and is overwritten on the next Record.
func NewEventStore(logger *zap.Logger, path string) *EventStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &EventStore{
		logger: logger,
		path:   path,
	}
	s.ledger = s.load()
	return s
}

func (s *EventStore) load() map[string]map[string]int64 {
	fresh := func() map[string]map[string]int64 {
		m := make(map[string]map[string]int64, len(ledgerNamespaces))
		for _, ns := range ledgerNamespaces {
			m[ns] = make(map[string]int64)
		}
		return m
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read ledger, starting fresh",
				zap.String("path", s.path),
				zap.Error(err),
			)
		}
		return fresh()
	}

	var ledger map[string]map[string]int64
	if err := json.Unmarshal(data, &ledger); err != nil {
		s.logger.Warn("invalid ledger format, resetting",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return fresh()
	}
	if ledger == nil {
		s.logger.Warn("null ledger, resetting", zap.String("path", s.path))
		return fresh()
	}

	// Missing namespaces default to empty; unknown ones are kept as-is.
	for _, ns := range ledgerNamespaces {
		if ledger[ns] == nil {
			ledger[ns] = make(map[string]int64)
		}
	}

	return ledger
}

// IsNew reports whether (id, timestamp) has not been recorded in namespace.
// A known id with a different timestamp counts as new. Fails open: if the
// namespace is somehow missing, the event is treated as new so a ledger bug
// can suppress nothing.
func (s *EventStore) IsNew(namespace, id string, timestamp int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, ok := s.ledger[namespace]
	if !ok {
		return true
	}
	recorded, ok := events[id]
	return !(ok && recorded == timestamp)
}

// Record stores (id, timestamp) in namespace and persists the whole ledger.
// Write failures are logged; the in-memory ledger stays authoritative and
// the next Record retries the write.
func (s *EventStore) Record(namespace, id string, timestamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, ok := s.ledger[namespace]
	if !ok {
		events = make(map[string]int64)
		s.ledger[namespace] = events
	}
	events[id] = timestamp

	if err := s.save(); err != nil {
		s.logger.Error("failed to persist ledger",
			zap.String("path", s.path),
			zap.String("namespace", namespace),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

// save writes the ledger atomically: temp file in the same directory, then
// rename. Caller holds the mutex.
func (s *EventStore) save() error {
	data, err := json.MarshalIndent(s.ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Size returns the number of entries in a namespace.
func (s *EventStore) Size(namespace string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger[namespace])
}
