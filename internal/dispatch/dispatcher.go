package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vision-router/internal/modelmetrics"
	"vision-router/internal/results"
	"vision-router/internal/shared/metrics"
	"vision-router/internal/shared/telemetry"
	"vision-router/internal/tasks"
)

// FailedResultText is returned when a handler errors, panics or is missing.
const FailedResultText = "Task handling failed due to an error"

// SampleRecorder receives one latency sample per dispatched request.
type SampleRecorder interface {
	Record(ctx context.Context, s modelmetrics.Sample) error
}

// Request is one dispatch call.
type Request struct {
	Task      tasks.Label
	Question  string
	ImagePath string
	ImageKey  string
	// Started marks the beginning of the end-to-end measurement. Zero means
	// the dispatcher starts its own clock.
	Started time.Time
}

// Outcome is the dispatcher's result.
type Outcome struct {
	Decision Decision
	Result   TaskResult
	Entry    results.LogEntry
}

// Dispatcher routes a label to a handler and records the result.
type Dispatcher struct {
	Table    *Table
	Handlers map[string]Handler
	Results  results.Repo
	Metrics  SampleRecorder
	Now      func() time.Time
}

// Run always yields a TaskResult unless ctx is cancelled before the handler
// returns; in that case nothing is logged and ctx.Err() is returned.
func (d *Dispatcher) Run(ctx context.Context, req Request) (Outcome, error) {
	now := d.now
	start := req.Started
	if start.IsZero() {
		start = now()
	}

	table := d.Table
	if table == nil {
		table = &Table{}
	}
	decision := table.Decide(req.Task)

	handlerStart := now()
	res, err := d.invoke(ctx, decision, Input{ImagePath: req.ImagePath, ImageKey: req.ImageKey, Question: req.Question})
	metrics.ObserveHandlerDurationMs(float64(now().Sub(handlerStart).Microseconds()) / 1000.0)

	if ctxErr := ctx.Err(); ctxErr != nil {
		telemetry.Warn("dispatch.cancelled", map[string]any{
			"task":    string(req.Task),
			"handler": decision.HandlerID,
			"error":   ctxErr,
		})
		return Outcome{Decision: decision}, ctxErr
	}

	if err != nil {
		metrics.IncHandlerFailed()
		telemetry.Error("dispatch.handler_failed", map[string]any{
			"task":    string(req.Task),
			"handler": decision.HandlerID,
			"error":   err,
		})
		res = TaskResult{ResultText: FailedResultText, ModelIdentity: ModelError}
	}

	latency := now().Sub(start).Seconds()
	if latency < 0 {
		latency = 0
	}
	res.LatencySeconds = latency

	model := decision.ModelIdentity
	if err != nil {
		model = ModelError
	}
	if res.ModelIdentity == "" {
		res.ModelIdentity = model
	}

	entry := results.LogEntry{
		ID:             uuid.NewString(),
		Timestamp:      now().UTC(),
		Task:           string(req.Task),
		Model:          model,
		LatencySeconds: results.Round2(latency),
		Result:         res.ResultText,
	}
	d.appendEntry(ctx, entry)
	d.recordSample(ctx, modelmetrics.Sample{
		Model:          model,
		LatencySeconds: latency,
		Timestamp:      entry.Timestamp,
		Task:           entry.Task,
	})

	return Outcome{Decision: decision, Result: res, Entry: entry}, nil
}

func (d *Dispatcher) invoke(ctx context.Context, decision Decision, in Input) (res TaskResult, err error) {
	h, ok := d.Handlers[decision.HandlerID]
	if !ok || h == nil {
		return TaskResult{}, fmt.Errorf("no handler registered for %q", decision.HandlerID)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler %s panicked: %v", decision.HandlerID, rec)
		}
	}()
	return h.Handle(ctx, in)
}

func (d *Dispatcher) appendEntry(ctx context.Context, entry results.LogEntry) {
	if d.Results == nil {
		return
	}
	if err := d.Results.Append(ctx, entry); err != nil {
		metrics.IncLogAppendFailed()
		telemetry.Error("dispatch.log_append_failed", map[string]any{
			"id":    entry.ID,
			"error": err,
		})
	}
}

func (d *Dispatcher) recordSample(ctx context.Context, s modelmetrics.Sample) {
	if d.Metrics == nil {
		return
	}
	if err := d.Metrics.Record(ctx, s); err != nil {
		telemetry.Warn("dispatch.sample_record_failed", map[string]any{
			"model": s.Model,
			"error": err,
		})
	}
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
