package cache

import (
	"context"
	"sync"
	"time"

	"tradeflow/internal/domain"
)

// Memory keeps the snapshot in process. Suitable for a single instance and
// for tests.
type Memory struct {
	mu        sync.RWMutex
	snap      domain.Snapshot
	expiresAt time.Time
	present   bool
	gen       uint64
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Get(_ context.Context) (domain.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.present || !m.now().Before(m.expiresAt) {
		return domain.Snapshot{}, false, nil
	}
	return m.snap, true, nil
}

func (m *Memory) Generation(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen, nil
}

// Set replaces the cached snapshot when gen is current. A non-positive ttl
// clears it instead.
func (m *Memory) Set(_ context.Context, snap domain.Snapshot, ttl time.Duration, gen uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return false, nil
	}
	if ttl <= 0 {
		m.snap, m.present = domain.Snapshot{}, false
		return false, nil
	}
	m.snap = snap
	m.expiresAt = m.now().Add(ttl)
	m.present = true
	return true, nil
}

func (m *Memory) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap, m.present = domain.Snapshot{}, false
	m.gen++
	return nil
}

func (m *Memory) Close() error { return nil }

var _ SnapshotCache = (*Memory)(nil)
