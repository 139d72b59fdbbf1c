package main

// Classify a question with the configured cascade:
//   go run ./cmd/classify -question "read the text on this sign"

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"vision-router/internal/classifier"
	"vision-router/internal/dispatch"
	"vision-router/internal/shared/config"
)

type output struct {
	Question string            `json:"question"`
	Task     string            `json:"task"`
	Tier     string            `json:"tier"`
	Raw      string            `json:"raw,omitempty"`
	Decision dispatch.Decision `json:"decision"`
	Prompt   string            `json:"prompt,omitempty"`
}

func main() {
	cfg := config.Load()

	question := flag.String("question", "", "Question to classify")
	imageContext := flag.String("context", "", "Image description (optional)")
	keywordsOnly := flag.Bool("keywords", false, "Skip remote tiers and use keyword rules only")
	showPrompt := flag.Bool("prompt", false, "Include the rendered prompt in the output")
	flag.Parse()

	if strings.TrimSpace(*question) == "" {
		exitErr("question is required")
	}

	cascade := classifier.New(cfg.Classifier)
	if *keywordsOnly {
		cascade.Tiers = nil
	}

	req := classifier.Request{Question: *question, ImageContext: *imageContext}
	res := cascade.Resolve(context.Background(), req)

	out := output{
		Question: *question,
		Task:     res.Label.String(),
		Tier:     res.Tier,
		Raw:      res.Raw,
		Decision: dispatch.NewTable(nil).Decide(res.Label),
	}
	if *showPrompt {
		out.Prompt = classifier.Prompt(req)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		exitErr(fmt.Sprintf("encode output: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
