package modelmetrics

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps samples in process.
type MemoryStore struct {
	mu      sync.Mutex
	samples []Sample
	now     func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Record appends a sample, stamping it when Timestamp is zero.
func (m *MemoryStore) Record(ctx context.Context, s Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = m.now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, s)
	return nil
}

// Leaderboard returns the fastest sample per model.
func (m *MemoryStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Leaderboard(m.snapshot(), limit), nil
}

// Stats returns per-model aggregates.
func (m *MemoryStore) Stats(ctx context.Context) (map[string]ModelStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Stats(m.snapshot()), nil
}

// Samples returns a copy of every recorded sample.
func (m *MemoryStore) Samples() []Sample {
	return m.snapshot()
}

func (m *MemoryStore) snapshot() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

var _ Store = (*MemoryStore)(nil)
