package results

import "context"

// Repo defines persistence operations for the result log.
type Repo interface {
	Append(ctx context.Context, entry LogEntry) error
	GetByID(ctx context.Context, id string) (LogEntry, error)
	AggregateByModel(ctx context.Context, task string) ([]ModelLatency, error)
}
