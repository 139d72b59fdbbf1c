package modelmetrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGStore persists samples in the metric_samples table.
type PGStore struct {
	DB *sql.DB
}

// Record inserts a sample.
func (p *PGStore) Record(ctx context.Context, s Sample) error {
	const query = `
INSERT INTO metric_samples (model, task, latency_seconds, recorded_at)
VALUES ($1, $2, $3, $4)`
	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if _, err := p.DB.ExecContext(ctx, query, s.Model, s.Task, s.LatencySeconds, ts); err != nil {
		return fmt.Errorf("insert metric sample: %w", err)
	}
	return nil
}

// Leaderboard selects the fastest sample per model.
func (p *PGStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	const query = `
SELECT model, latency_seconds, task FROM (
    SELECT DISTINCT ON (model) model, latency_seconds, task
    FROM metric_samples
    ORDER BY model, latency_seconds ASC, id ASC
) fastest
ORDER BY latency_seconds ASC
LIMIT $1`

	rows, err := p.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LeaderboardRow{}
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.ModelName, &row.Latency, &row.Task); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Stats aggregates per model in SQL.
func (p *PGStore) Stats(ctx context.Context) (map[string]ModelStats, error) {
	const query = `
SELECT model, COUNT(*), SUM(latency_seconds), MIN(latency_seconds), MAX(latency_seconds), AVG(latency_seconds)
FROM metric_samples
GROUP BY model`

	rows, err := p.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]ModelStats)
	for rows.Next() {
		var model string
		var st ModelStats
		if err := rows.Scan(&model, &st.Count, &st.TotalLatency, &st.MinLatency, &st.MaxLatency, &st.AvgLatency); err != nil {
			return nil, err
		}
		out[model] = st
	}
	return out, rows.Err()
}

var _ Store = (*PGStore)(nil)
