package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/ksred/klear-datagen/internal/types"
)

// Entry is a cached snapshot with the time it was stored. Reads never move
// StoredAt, so an entry's age always counts from creation.
type Entry struct {
	Snapshot types.MarketSnapshot `json:"snapshot"`
	StoredAt time.Time            `json:"stored_at"`
}

// SnapshotStore holds cache entries keyed by symbol. Implementations must
// be safe for concurrent use; the last write for a symbol wins.
type SnapshotStore interface {
	Get(ctx context.Context, symbol string) (Entry, bool, error)
	Put(ctx context.Context, entry Entry) error
}

// MemoryStore is the in-process store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Get(_ context.Context, symbol string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[symbol]
	return e, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Snapshot.Symbol] = entry
	return nil
}

// TieredStore reads the near store first, then the far one, promoting far
// hits. Writes go to both.
type TieredStore struct {
	near SnapshotStore
	far  SnapshotStore
}

func NewTieredStore(near, far SnapshotStore) *TieredStore {
	return &TieredStore{near: near, far: far}
}

func (t *TieredStore) Get(ctx context.Context, symbol string) (Entry, bool, error) {
	if e, ok, err := t.near.Get(ctx, symbol); err == nil && ok {
		return e, true, nil
	}
	e, ok, err := t.far.Get(ctx, symbol)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	_ = t.near.Put(ctx, e)
	return e, true, nil
}

func (t *TieredStore) Put(ctx context.Context, entry Entry) error {
	if err := t.near.Put(ctx, entry); err != nil {
		return err
	}
	return t.far.Put(ctx, entry)
}
