package classifier

import (
	"context"
	"errors"
	"testing"

	"vision-router/internal/tasks"
)

func failingTier(name string, calls *int) Tier {
	return Tier{Name: name, Attempt: func(ctx context.Context, req Request) Outcome {
		*calls++
		return Failed(errors.New("unreachable"))
	}}
}

func labelTier(name string, label tasks.Label, calls *int) Tier {
	return Tier{Name: name, Attempt: func(ctx context.Context, req Request) Outcome {
		*calls++
		return Outcome{Succeeded: true, Label: label, RawText: string(label)}
	}}
}

func TestCascadeStopsAtFirstSuccess(t *testing.T) {
	var first, second, third int
	c := &Cascade{Tiers: []Tier{
		failingTier("secondary", &first),
		labelTier("primary", tasks.ImageCaptioning, &second),
		labelTier("fallback", tasks.OCR, &third),
	}}

	res := c.Resolve(context.Background(), Request{Question: "read the sign"})
	if res.Label != tasks.ImageCaptioning {
		t.Fatalf("expected primary label, got %q", res.Label)
	}
	if res.Tier != "primary" {
		t.Fatalf("expected primary tier, got %q", res.Tier)
	}
	if first != 1 || second != 1 || third != 0 {
		t.Fatalf("unexpected call counts: %d %d %d", first, second, third)
	}
}

func TestCascadeFallsBackToKeywords(t *testing.T) {
	var calls int
	c := &Cascade{
		Tiers:    []Tier{failingTier("primary", &calls), failingTier("fallback", &calls)},
		Fallback: KeywordClassifier{Rules: DefaultRules},
	}

	res := c.Resolve(context.Background(), Request{Question: "read the text on this sign"})
	if res.Label != tasks.OCR {
		t.Fatalf("expected keyword OCR, got %q", res.Label)
	}
	if res.Tier != KeywordTier {
		t.Fatalf("expected keyword tier, got %q", res.Tier)
	}
	if calls != 2 {
		t.Fatalf("expected both tiers attempted, got %d", calls)
	}
}

func TestCascadeRecoversPanickingTier(t *testing.T) {
	c := &Cascade{Tiers: []Tier{{
		Name: "primary",
		Attempt: func(ctx context.Context, req Request) Outcome {
			panic("boom")
		},
	}}}

	got := c.Classify(context.Background(), Request{Question: "what color is the car"})
	if got != tasks.VisualQA {
		t.Fatalf("expected keyword fallback after panic, got %q", got)
	}
}

func TestCascadeRejectsLabelOutsideVocabulary(t *testing.T) {
	var calls int
	c := &Cascade{Tiers: []Tier{labelTier("primary", tasks.Label("Segmentation"), &calls)}}

	got := c.Classify(context.Background(), Request{Question: "hello"})
	if got != tasks.Other {
		t.Fatalf("expected Other, got %q", got)
	}
}

func TestCascadeNeverFails(t *testing.T) {
	questions := []string{"", "???", "read", "what", "diagnose this", "zzz"}
	c := &Cascade{Tiers: []Tier{{Name: "nil-attempt"}}}
	for _, q := range questions {
		if got := c.Classify(context.Background(), Request{Question: q}); !got.Valid() {
			t.Fatalf("Classify(%q) returned %q outside vocabulary", q, got)
		}
	}
}

func TestCascadeSkipsTiersWhenContextDone(t *testing.T) {
	var calls int
	c := &Cascade{Tiers: []Tier{labelTier("primary", tasks.OCR, &calls)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Resolve(ctx, Request{Question: "describe the scene"})
	if calls != 0 {
		t.Fatalf("expected no tier calls after cancellation, got %d", calls)
	}
	if res.Label != tasks.ImageCaptioning || res.Tier != KeywordTier {
		t.Fatalf("unexpected result %+v", res)
	}
}
