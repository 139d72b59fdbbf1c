package classifier

import (
	"context"
	"fmt"
	"time"

	"vision-router/internal/shared/telemetry"
	"vision-router/internal/tasks"
)

// KeywordTier names the terminal tier in Result.Tier.
const KeywordTier = "keyword"

// Request is the input to every tier.
type Request struct {
	Question     string
	ImageContext string
}

// Outcome is what a single tier attempt produced.
type Outcome struct {
	Succeeded bool
	Label     tasks.Label
	RawText   string
	Err       error
}

// Failed builds a failed outcome.
func Failed(err error) Outcome {
	return Outcome{Err: err}
}

// Tier is one remote strategy in the cascade.
type Tier struct {
	Name    string
	Attempt func(ctx context.Context, req Request) Outcome
}

// Result reports the label and the tier that produced it.
type Result struct {
	Label tasks.Label
	Tier  string
	Raw   string
}

// Cascade tries each tier in order and falls back to keyword rules.
type Cascade struct {
	Tiers    []Tier
	Fallback KeywordClassifier
}

// Classify never fails; the label is always in the vocabulary.
func (c *Cascade) Classify(ctx context.Context, req Request) tasks.Label {
	return c.Resolve(ctx, req).Label
}

// Resolve is Classify with provenance.
func (c *Cascade) Resolve(ctx context.Context, req Request) Result {
	start := time.Now()
	for _, tier := range c.Tiers {
		if ctx.Err() != nil {
			break
		}
		out := attempt(ctx, tier, req)
		if out.Succeeded && out.Label.Valid() {
			telemetry.Info("classifier.resolved", map[string]any{
				"tier":       tier.Name,
				"label":      string(out.Label),
				"latency_ms": time.Since(start).Milliseconds(),
			})
			return Result{Label: out.Label, Tier: tier.Name, Raw: out.RawText}
		}
		telemetry.Info("classifier.tier_failed", map[string]any{
			"tier":  tier.Name,
			"error": errorText(out),
		})
	}

	label := c.Fallback.Classify(req.Question)
	telemetry.Info("classifier.resolved", map[string]any{
		"tier":       KeywordTier,
		"label":      string(label),
		"latency_ms": time.Since(start).Milliseconds(),
	})
	return Result{Label: label, Tier: KeywordTier}
}

func attempt(ctx context.Context, tier Tier, req Request) (out Outcome) {
	if tier.Attempt == nil {
		return Failed(fmt.Errorf("tier %s has no attempt func", tier.Name))
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = Failed(fmt.Errorf("tier %s panicked: %v", tier.Name, rec))
		}
	}()
	return tier.Attempt(ctx, req)
}

func errorText(out Outcome) string {
	if out.Err != nil {
		return out.Err.Error()
	}
	if out.Succeeded {
		return fmt.Sprintf("label %q outside vocabulary", out.Label)
	}
	return "unknown"
}
