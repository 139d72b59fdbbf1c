package results

import (
	"math"
	"sort"
	"time"
)

// LogEntry is the persisted record of one completed analyze request.
type LogEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Task           string    `json:"task"`
	Model          string    `json:"model"`
	LatencySeconds float64   `json:"latency"`
	Result         string    `json:"result"`
}

// ModelLatency is one leaderboard row.
type ModelLatency struct {
	Model          string  `json:"model"`
	AverageLatency float64 `json:"average_latency"`
	Runs           int     `json:"runs"`
}

// Aggregate groups entries by model, optionally filtered by task, and sorts
// the rows by average latency ascending. Averages are rounded to 2 decimals.
func Aggregate(entries []LogEntry, task string) []ModelLatency {
	type acc struct {
		total float64
		runs  int
	}
	byModel := make(map[string]*acc)
	for _, e := range entries {
		if task != "" && e.Task != task {
			continue
		}
		a, ok := byModel[e.Model]
		if !ok {
			a = &acc{}
			byModel[e.Model] = a
		}
		a.total += e.LatencySeconds
		a.runs++
	}

	rows := make([]ModelLatency, 0, len(byModel))
	for model, a := range byModel {
		rows = append(rows, ModelLatency{
			Model:          model,
			AverageLatency: Round2(a.total / float64(a.runs)),
			Runs:           a.runs,
		})
	}
	SortRows(rows)
	return rows
}

// SortRows orders rows fastest first, breaking ties by model name.
func SortRows(rows []ModelLatency) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AverageLatency != rows[j].AverageLatency {
			return rows[i].AverageLatency < rows[j].AverageLatency
		}
		return rows[i].Model < rows[j].Model
	})
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
