package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"LedgerSync/internal/ledger"
)

// MemoryStore keeps records in process memory. It backs local development
// runs without a database and the tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
	failOn  map[string]error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for created/updated stamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailOn makes Upsert of code return err. A nil err clears the failure.
func (m *MemoryStore) FailOn(code string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == nil {
		m.failOn = make(map[string]error)
	}
	if err == nil {
		delete(m.failOn, code)
		return
	}
	m.failOn[code] = err
}

func (m *MemoryStore) Upsert(ctx context.Context, rec ledger.Record) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: "upsert " + rec.AccountCode, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[rec.AccountCode]; err != nil {
		return &Error{Op: "upsert " + rec.AccountCode, Err: err}
	}
	now := m.now()
	e, ok := m.entries[rec.AccountCode]
	if !ok {
		e.CreatedAt = now
	}
	e.Record = rec
	e.UpdatedAt = now
	m.entries[rec.AccountCode] = e
	return nil
}

func (m *MemoryStore) All(ctx context.Context) ([]ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "select", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]ledger.Record, 0, len(m.entries))
	for _, e := range m.entries {
		records = append(records, e.Record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].AccountCode < records[j].AccountCode
	})
	return records, nil
}

func (m *MemoryStore) Get(ctx context.Context, code string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[code]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close() {}

// Len returns the number of stored rows.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
