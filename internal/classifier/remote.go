package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vision-router/internal/probe"
	"vision-router/internal/tasks"
)

const maxResponseBytes = 1 << 20

// ErrNoEndpoint is returned when no secondary candidate answered the probe.
var ErrNoEndpoint = errors.New("no reachable classifier endpoint")

type completionRequest struct {
	Prompt      string        `json:"prompt,omitempty"`
	Messages    []chatMessage `json:"messages,omitempty"`
	Model       string        `json:"model,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
	Choices  []struct {
		Text    string `json:"text"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (r completionResponse) content() string {
	if s := strings.TrimSpace(r.Response); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Text); s != "" {
		return s
	}
	if len(r.Choices) > 0 {
		if s := strings.TrimSpace(r.Choices[0].Message.Content); s != "" {
			return s
		}
		return strings.TrimSpace(r.Choices[0].Text)
	}
	return ""
}

// CompletionClient posts the prompt to a single completion endpoint.
// Used for the primary and fallback tiers.
type CompletionClient struct {
	URL         string
	APIKey      string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
}

// NewCompletionClient builds a client bounded by timeout.
func NewCompletionClient(url, apiKey string, maxTokens int, temperature float64, timeout time.Duration) *CompletionClient {
	return &CompletionClient{
		URL:         url,
		APIKey:      apiKey,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

// Attempt implements a Tier attempt.
func (c *CompletionClient) Attempt(ctx context.Context, req Request) Outcome {
	text, err := post(ctx, c.HTTPClient, c.URL, c.APIKey, completionRequest{
		Prompt:      Prompt(req),
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return Failed(err)
	}
	return Outcome{Succeeded: true, Label: tasks.Normalize(text), RawText: text}
}

// SecondaryClient probes a list of candidate URLs and posts to the first
// reachable one, optionally in chat format.
type SecondaryClient struct {
	URLs        []string
	APIKey      string
	Model       string
	Chat        bool
	MaxTokens   int
	Temperature float64
	Prober      *probe.Prober
	HTTPClient  *http.Client
}

// Attempt implements a Tier attempt.
func (c *SecondaryClient) Attempt(ctx context.Context, req Request) Outcome {
	prober := c.Prober
	if prober == nil {
		prober = probe.New(probe.DefaultTimeout)
	}
	url, ok := prober.FindReachable(ctx, c.URLs)
	if !ok {
		return Failed(ErrNoEndpoint)
	}

	body := completionRequest{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
	if c.Chat {
		body.Messages = []chatMessage{{Role: "user", Content: Prompt(req)}}
	} else {
		body.Prompt = Prompt(req)
	}

	text, err := post(ctx, c.HTTPClient, url, c.APIKey, body)
	if err != nil {
		return Failed(err)
	}
	return Outcome{Succeeded: true, Label: tasks.Normalize(text), RawText: text}
}

func post(ctx context.Context, client *http.Client, url, apiKey string, body completionRequest) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("classifier url is empty")
	}
	if client == nil {
		client = http.DefaultClient
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("classifier request timeout: %w", err)
		}
		return "", fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier http status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("classifier response parse: %w", err)
	}
	text := parsed.content()
	if text == "" {
		return "", fmt.Errorf("classifier response empty content")
	}
	return text, nil
}
