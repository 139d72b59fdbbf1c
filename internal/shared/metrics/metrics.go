package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	analyzeStartedTotal   atomic.Uint64
	analyzeCompletedTotal atomic.Uint64
	handlerFailedTotal    atomic.Uint64
	logAppendFailedTotal  atomic.Uint64
	panicRecoveredTotal   atomic.Uint64

	tierMu      sync.Mutex
	tierSuccess = map[string]uint64{}

	handlerDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncAnalyzeStarted increments the started counter.
func IncAnalyzeStarted() {
	analyzeStartedTotal.Add(1)
}

// IncAnalyzeCompleted increments the completed counter.
func IncAnalyzeCompleted() {
	analyzeCompletedTotal.Add(1)
}

// IncHandlerFailed counts handler invocations that produced a degraded result.
func IncHandlerFailed() {
	handlerFailedTotal.Add(1)
}

// IncLogAppendFailed counts result-log writes that were dropped.
func IncLogAppendFailed() {
	logAppendFailedTotal.Add(1)
}

// IncPanicRecovered counts handler panics turned into 500 responses.
func IncPanicRecovered() {
	panicRecoveredTotal.Add(1)
}

// IncClassifierTier counts which cascade tier produced the final label.
func IncClassifierTier(tier string) {
	tierMu.Lock()
	defer tierMu.Unlock()
	tierSuccess[tier]++
}

// ObserveHandlerDurationMs records a handler duration in milliseconds.
func ObserveHandlerDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	handlerDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "analyze_started_total", "Total analyze requests started", analyzeStartedTotal.Load())
	writeCounter(&buf, "analyze_completed_total", "Total analyze requests completed", analyzeCompletedTotal.Load())
	writeCounter(&buf, "handler_failed_total", "Total handler invocations returning a degraded result", handlerFailedTotal.Load())
	writeCounter(&buf, "result_log_append_failed_total", "Total result log appends that failed", logAppendFailedTotal.Load())
	writeCounter(&buf, "http_panics_recovered_total", "Total handler panics recovered", panicRecoveredTotal.Load())
	writeTierCounters(&buf)
	writeHistogram(&buf, "handler_duration_ms", "Handler duration in milliseconds", handlerDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeTierCounters(buf *bytes.Buffer) {
	tierMu.Lock()
	tiers := make([]string, 0, len(tierSuccess))
	values := make(map[string]uint64, len(tierSuccess))
	for tier, v := range tierSuccess {
		tiers = append(tiers, tier)
		values[tier] = v
	}
	tierMu.Unlock()
	sort.Strings(tiers)

	fmt.Fprintf(buf, "# HELP classifier_tier_total Classifications resolved per cascade tier\n")
	fmt.Fprintf(buf, "# TYPE classifier_tier_total counter\n")
	for _, tier := range tiers {
		fmt.Fprintf(buf, "classifier_tier_total{tier=%q} %d\n", tier, values[tier])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
