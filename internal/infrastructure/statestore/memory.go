package statestore

import (
	"context"
	"sync"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"
)

type memoryEntry struct {
	state     *domain.OAuthState
	expiresAt time.Time
}

// MemoryStore is an in-memory single-use OAuth state store. Expired entries
// are dropped lazily on Consume.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory OAuth state store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

var _ ports.StateStore = (*MemoryStore)(nil)

func (m *MemoryStore) Put(_ context.Context, state *domain.OAuthState, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *state
	m.entries[state.State] = memoryEntry{
		state:     &cp,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *MemoryStore) Consume(_ context.Context, nonce string) (*domain.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[nonce]
	if !ok {
		return nil, nil
	}
	delete(m.entries, nonce)

	if m.now().After(entry.expiresAt) {
		return nil, nil
	}
	cp := *entry.state
	return &cp, nil
}
