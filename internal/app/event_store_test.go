package app

import (
	"os"
	"path/filepath"
	"testing"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "state.json")
}

func TestEventStoreNewEventsAreNew(t *testing.T) {
	store := NewEventStore(nil, storePath(t))

	if !store.IsNew(NamespaceOrders, "123", 1000) {
		t.Error("expected unseen event to be new")
	}
}

func TestEventStoreRecordedEventIsNotNew(t *testing.T) {
	store := NewEventStore(nil, storePath(t))

	store.Record(NamespaceOrders, "123", 1000)

	if store.IsNew(NamespaceOrders, "123", 1000) {
		t.Error("expected recorded event to not be new")
	}
}

func TestEventStoreTimestampChangeIsNew(t *testing.T) {
	store := NewEventStore(nil, storePath(t))

	store.Record(NamespaceOrders, "123", 1000)

	if !store.IsNew(NamespaceOrders, "123", 2000) {
		t.Error("expected same id with different timestamp to be new")
	}
}

func TestEventStoreNamespacesAreIndependent(t *testing.T) {
	store := NewEventStore(nil, storePath(t))

	store.Record(NamespaceOrders, "123", 1000)

	if store.IsNew(NamespaceOrders, "123", 1000) {
		t.Error("expected event to be recorded in orders")
	}
	if !store.IsNew(NamespaceFills, "123", 1000) {
		t.Error("expected same id to be new in fills")
	}
}

func TestEventStoreUnknownNamespaceFailsOpen(t *testing.T) {
	store := NewEventStore(nil, storePath(t))

	if !store.IsNew("bogus", "123", 1000) {
		t.Error("expected unknown namespace to treat events as new")
	}
}

func TestEventStorePersistsAcrossRestart(t *testing.T) {
	path := storePath(t)

	store := NewEventStore(nil, path)
	store.Record(NamespaceFills, "f1", 500)
	store.Record(NamespaceStatusChanges, "77_filled", 900)

	reloaded := NewEventStore(nil, path)
	if reloaded.IsNew(NamespaceFills, "f1", 500) {
		t.Error("expected fill to survive restart")
	}
	if reloaded.IsNew(NamespaceStatusChanges, "77_filled", 900) {
		t.Error("expected status change to survive restart")
	}
	if !reloaded.IsNew(NamespaceFills, "f2", 500) {
		t.Error("expected unseen fill to remain new after restart")
	}
}

func TestEventStoreCorruptFileStartsFresh(t *testing.T) {
	path := storePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store := NewEventStore(nil, path)

	if !store.IsNew(NamespaceOrders, "123", 1000) {
		t.Error("expected fresh store after corruption")
	}

	// The store must be usable and overwrite the bad file.
	store.Record(NamespaceOrders, "123", 1000)
	reloaded := NewEventStore(nil, path)
	if reloaded.IsNew(NamespaceOrders, "123", 1000) {
		t.Error("expected record to persist over corrupt file")
	}
}

func TestEventStoreNonObjectTopLevelStartsFresh(t *testing.T) {
	// Valid JSON, wrong shape: a bare string at the top level.
	path := storePath(t)
	if err := os.WriteFile(path, []byte(`"not an object"`), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store := NewEventStore(nil, path)

	if !store.IsNew(NamespaceOrders, "123", 1000) {
		t.Error("expected fresh store for non-object ledger")
	}
	if got := store.Size(NamespaceOrders); got != 0 {
		t.Errorf("expected empty orders namespace, got %d", got)
	}
}

func TestEventStoreMissingNamespaceInFile(t *testing.T) {
	path := storePath(t)
	if err := os.WriteFile(path, []byte(`{"orders":{"1":100}}`), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store := NewEventStore(nil, path)

	if store.IsNew(NamespaceOrders, "1", 100) {
		t.Error("expected existing namespace to load")
	}
	if !store.IsNew(NamespaceFills, "1", 100) {
		t.Error("expected missing namespace to start empty")
	}
	store.Record(NamespaceFills, "1", 100)
}

func TestEventStoreCreatesStateDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")

	store := NewEventStore(nil, path)
	store.Record(NamespaceOrders, "1", 100)

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected ledger file to exist: %v", err)
	}
}

func TestEventStoreSize(t *testing.T) {
	store := NewEventStore(nil, storePath(t))

	if got := store.Size(NamespaceOrders); got != 0 {
		t.Errorf("expected empty namespace, got %d", got)
	}

	store.Record(NamespaceOrders, "1", 100)
	store.Record(NamespaceOrders, "2", 200)
	store.Record(NamespaceOrders, "1", 300) // overwrite, not a new entry

	if got := store.Size(NamespaceOrders); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}
}
