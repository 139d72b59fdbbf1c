package modelmetrics

import (
	"context"
	"math"
	"sort"
	"time"
)

// DefaultLeaderboardLimit is used when the caller passes a non-positive limit.
const DefaultLeaderboardLimit = 3

// Sample is one latency observation for a model.
type Sample struct {
	Model          string    `json:"model_name"`
	LatencySeconds float64   `json:"latency"`
	Timestamp      time.Time `json:"timestamp"`
	Task           string    `json:"task"`
}

// LeaderboardRow is the fastest observed sample of one model.
type LeaderboardRow struct {
	ModelName string  `json:"model_name"`
	Latency   float64 `json:"latency"`
	Task      string  `json:"task"`
}

// ModelStats summarises every sample of one model.
type ModelStats struct {
	Count        int     `json:"count"`
	TotalLatency float64 `json:"total_latency"`
	MinLatency   float64 `json:"min_latency"`
	MaxLatency   float64 `json:"max_latency"`
	AvgLatency   float64 `json:"avg_latency"`
}

// Store records samples and answers leaderboard queries.
type Store interface {
	Record(ctx context.Context, s Sample) error
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
	Stats(ctx context.Context) (map[string]ModelStats, error)
}

// Leaderboard keeps the fastest sample per model, sorts ascending and
// truncates to limit. Ties keep the earlier sample.
func Leaderboard(samples []Sample, limit int) []LeaderboardRow {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	fastest := make(map[string]Sample)
	order := make([]string, 0)
	for _, s := range samples {
		cur, ok := fastest[s.Model]
		if !ok {
			order = append(order, s.Model)
			fastest[s.Model] = s
			continue
		}
		if s.LatencySeconds < cur.LatencySeconds {
			fastest[s.Model] = s
		}
	}

	rows := make([]LeaderboardRow, 0, len(order))
	for _, model := range order {
		s := fastest[model]
		rows = append(rows, LeaderboardRow{ModelName: model, Latency: s.LatencySeconds, Task: s.Task})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Latency < rows[j].Latency
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// Stats computes count, total, min, max and average latency per model.
func Stats(samples []Sample) map[string]ModelStats {
	out := make(map[string]ModelStats)
	for _, s := range samples {
		st, ok := out[s.Model]
		if !ok {
			st = ModelStats{MinLatency: math.Inf(1)}
		}
		st.Count++
		st.TotalLatency += s.LatencySeconds
		st.MinLatency = math.Min(st.MinLatency, s.LatencySeconds)
		st.MaxLatency = math.Max(st.MaxLatency, s.LatencySeconds)
		out[s.Model] = st
	}
	for model, st := range out {
		st.AvgLatency = st.TotalLatency / float64(st.Count)
		out[model] = st
	}
	return out
}
