package classifier

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"vision-router/internal/shared/config"
	"vision-router/internal/shared/telemetry"
)

func tierNames(tiers []Tier) []string {
	names := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		names = append(names, tier.Name)
	}
	return names
}

func TestBuildTiersOrderSecondaryFirst(t *testing.T) {
	tiers := BuildTiers(config.ClassifierConfig{
		PrimaryURL:    "http://primary/predict",
		FallbackURL:   "http://fallback/predict",
		UseSecondary:  true,
		SecondaryURLs: []string{"http://secondary/v1/completions"},
		Timeout:       time.Second,
	})
	got := strings.Join(tierNames(tiers), ",")
	if got != "secondary,primary,fallback" {
		t.Fatalf("unexpected tier order %q", got)
	}
}

func TestBuildTiersWarnsOnSecondaryWithoutURLs(t *testing.T) {
	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(prev)

	tiers := BuildTiers(config.ClassifierConfig{
		PrimaryURL:   "http://primary/predict",
		UseSecondary: true,
	})
	if got := strings.Join(tierNames(tiers), ","); got != "primary" {
		t.Fatalf("unexpected tiers %q", got)
	}
	if !strings.Contains(buf.String(), "classifier.secondary_without_urls") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
}
