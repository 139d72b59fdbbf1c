package results

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	entries []LogEntry
	byID    map[string]int
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]int)}
}

// Append stores an entry. A repeated ID replaces the earlier entry.
func (r *MemoryRepo) Append(ctx context.Context, entry LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.byID[entry.ID]; ok {
		r.entries[idx] = entry
		return nil
	}
	r.byID[entry.ID] = len(r.entries)
	r.entries = append(r.entries, entry)
	return nil
}

// GetByID returns the entry with the given ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return LogEntry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	if !ok {
		return LogEntry{}, ErrNotFound
	}
	return r.entries[idx], nil
}

// AggregateByModel computes the latency leaderboard.
func (r *MemoryRepo) AggregateByModel(ctx context.Context, task string) ([]ModelLatency, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Aggregate(r.entries, task), nil
}

// Len reports how many entries are stored.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

var _ Repo = (*MemoryRepo)(nil)
