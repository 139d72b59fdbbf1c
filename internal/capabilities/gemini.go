package capabilities

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

const geminiAttempts = 3

// Engine answers a prompt about one image.
type Engine interface {
	Describe(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiEngine is an Engine backed by the Gemini API. The client is dialled
// on first use and shared by every later call until Close.
type GeminiEngine struct {
	APIKey string
	Model  string

	mu     sync.Mutex
	gen    contentGenerator
	closer io.Closer
	dial   func(ctx context.Context) (contentGenerator, io.Closer, error)
}

// NewGeminiEngine returns nil when apiKey is empty.
func NewGeminiEngine(apiKey, model string) *GeminiEngine {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEngine{APIKey: apiKey, Model: model}
}

// Describe sends the prompt and the image as inline data. Transient
// failures are retried with a linear backoff.
func (e *GeminiEngine) Describe(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	if e == nil || e.APIKey == "" {
		return "", errors.New("gemini: api key is not configured")
	}
	if len(image) == 0 {
		return "", errors.New("gemini: empty image")
	}

	gen, err := e.generator(ctx)
	if err != nil {
		return "", err
	}

	parts := []genai.Part{
		genai.Text(prompt),
		&genai.Blob{MIMEType: mimeType, Data: image},
	}

	var lastErr error
	for attempt := 1; attempt <= geminiAttempts; attempt++ {
		resp, err := gen.GenerateContent(ctx, parts...)
		if err == nil {
			text := strings.TrimSpace(firstText(resp))
			if text == "" {
				return "", errors.New("gemini: empty response")
			}
			return text, nil
		}
		lastErr = err
		if attempt == geminiAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
		}
	}
	return "", fmt.Errorf("gemini generate: %w", lastErr)
}

// Close releases the shared client. A later Describe dials again.
func (e *GeminiEngine) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closer == nil {
		return nil
	}
	err := e.closer.Close()
	e.gen, e.closer = nil, nil
	return err
}

// generator returns the shared model, dialling it once. A failed dial is not
// cached. The client outlives the request that happened to create it.
func (e *GeminiEngine) generator(ctx context.Context) (contentGenerator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != nil {
		return e.gen, nil
	}
	dial := e.dial
	if dial == nil {
		dial = e.dialGemini
	}
	gen, closer, err := dial(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	e.gen, e.closer = gen, closer
	return gen, nil
}

func (e *GeminiEngine) dialGemini(ctx context.Context) (contentGenerator, io.Closer, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("gemini client: %w", err)
	}
	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}
	return m, cl, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
