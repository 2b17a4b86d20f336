package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process EphemeralStore used when no Redis address is
// configured. Expired entries are invisible to Get and removed by DeleteExpired.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]memoryItem
	maxSize int
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// MemoryStats is a snapshot of MemoryStore counters
type MemoryStats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewMemoryStore creates a store holding at most maxSize entries
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryStore{
		items:   make(map[string]memoryItem),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns a live entry
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(item.expiresAt) {
		m.misses.Add(1)
		return nil, false, nil
	}
	m.hits.Add(1)
	return item.value, true, nil
}

// Set stores a copy of value until ttl elapses
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := m.now()
	buf := make([]byte, len(value))
	copy(buf, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxSize {
		m.evictLocked(now)
	}
	m.items[key] = memoryItem{value: buf, expiresAt: now.Add(ttl)}
	return nil
}

// evictLocked drops expired entries, or the entry closest to expiry if none are.
func (m *MemoryStore) evictLocked(now time.Time) {
	var (
		victim   string
		earliest time.Time
		removed  bool
	)
	for k, item := range m.items {
		if !now.Before(item.expiresAt) {
			delete(m.items, k)
			removed = true
			continue
		}
		if victim == "" || item.expiresAt.Before(earliest) {
			victim, earliest = k, item.expiresAt
		}
	}
	if !removed && victim != "" {
		delete(m.items, victim)
	}
}

// Delete removes an entry
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// DeleteExpired removes expired entries and returns how many were removed
func (m *MemoryStore) DeleteExpired() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for k, item := range m.items {
		if !now.Before(item.expiresAt) {
			delete(m.items, k)
			deleted++
		}
	}
	return deleted
}

// Size returns the number of stored entries, expired or not
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Stats returns current counters
func (m *MemoryStore) Stats() MemoryStats {
	hits, misses := m.hits.Load(), m.misses.Load()
	stats := MemoryStats{Entries: m.Size(), Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}
