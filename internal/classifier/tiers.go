package classifier

import (
	"net/http"
	"strings"

	"vision-router/internal/probe"
	"vision-router/internal/shared/config"
	"vision-router/internal/shared/telemetry"
)

// Tier names, in cascade order.
const (
	SecondaryTier = "secondary"
	PrimaryTier   = "primary"
	FallbackTier  = "fallback"
)

// BuildTiers assembles the remote tiers from configuration. The keyword
// classifier is not a tier; Cascade applies it after all tiers fail.
func BuildTiers(cfg config.ClassifierConfig) []Tier {
	var tiers []Tier

	if cfg.UseSecondary && len(cfg.SecondaryURLs) == 0 {
		telemetry.Warn("classifier.secondary_without_urls", map[string]any{
			"tier": SecondaryTier,
		})
	}
	if cfg.UseSecondary && len(cfg.SecondaryURLs) > 0 {
		secondary := &SecondaryClient{
			URLs:        cfg.SecondaryURLs,
			APIKey:      cfg.SecondaryKey,
			Model:       cfg.SecondaryModel,
			Chat:        cfg.SecondaryChat,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Prober:      probe.New(cfg.ProbeTimeout),
			HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		}
		tiers = append(tiers, Tier{Name: SecondaryTier, Attempt: secondary.Attempt})
	}

	if strings.TrimSpace(cfg.PrimaryURL) != "" {
		primary := NewCompletionClient(cfg.PrimaryURL, cfg.PrimaryKey, cfg.MaxTokens, cfg.Temperature, cfg.Timeout)
		tiers = append(tiers, Tier{Name: PrimaryTier, Attempt: primary.Attempt})
	}

	if strings.TrimSpace(cfg.FallbackURL) != "" {
		fallback := NewCompletionClient(cfg.FallbackURL, cfg.PrimaryKey, cfg.MaxTokens, cfg.Temperature, cfg.Timeout)
		tiers = append(tiers, Tier{Name: FallbackTier, Attempt: fallback.Attempt})
	}

	return tiers
}

// New builds the full cascade from configuration.
func New(cfg config.ClassifierConfig) *Cascade {
	return &Cascade{Tiers: BuildTiers(cfg), Fallback: KeywordClassifier{Rules: DefaultRules}}
}
