package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts a log entry.
func (r *PGRepo) Append(ctx context.Context, entry LogEntry) error {
	const query = `
INSERT INTO result_logs (
    id,
    created_at,
    task,
    model,
    latency_seconds,
    result
) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Timestamp,
		entry.Task,
		entry.Model,
		entry.LatencySeconds,
		entry.Result,
	)
	if err != nil {
		return fmt.Errorf("insert result log: %w", err)
	}
	return nil
}

// GetByID returns a log entry by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (LogEntry, error) {
	const query = `
SELECT id, created_at, task, model, latency_seconds, result
FROM result_logs
WHERE id = $1`
	var entry LogEntry
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&entry.ID,
		&entry.Timestamp,
		&entry.Task,
		&entry.Model,
		&entry.LatencySeconds,
		&entry.Result,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LogEntry{}, ErrNotFound
		}
		return LogEntry{}, err
	}
	return entry, nil
}

// AggregateByModel groups entries by model in SQL. An empty task matches all.
func (r *PGRepo) AggregateByModel(ctx context.Context, task string) ([]ModelLatency, error) {
	const query = `
SELECT model, ROUND(AVG(latency_seconds)::numeric, 2)::float8 AS average_latency, COUNT(*) AS runs
FROM result_logs
WHERE ($1 = '' OR task = $1)
GROUP BY model
ORDER BY average_latency ASC, model ASC`

	rows, err := r.DB.QueryContext(ctx, query, task)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ModelLatency{}
	for rows.Next() {
		var row ModelLatency
		if err := rows.Scan(&row.Model, &row.AverageLatency, &row.Runs); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
