package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vision-router/internal/probe"
	"vision-router/internal/shared/config"
	"vision-router/internal/tasks"
)

func TestCompletionClientParsesResponseField(t *testing.T) {
	var got completionRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "The task is OCR.", "latency": 0.01})
	}))
	defer srv.Close()

	client := NewCompletionClient(srv.URL, "secret", 100, 0.7, time.Second)
	out := client.Attempt(context.Background(), Request{Question: "read the sign"})
	if !out.Succeeded {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.Label != tasks.OCR {
		t.Fatalf("expected OCR, got %q", out.Label)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.MaxTokens != 100 || got.Temperature != 0.7 {
		t.Fatalf("unexpected generation params %+v", got)
	}
	if !strings.Contains(got.Prompt, "Question: read the sign") {
		t.Fatalf("prompt missing question: %q", got.Prompt)
	}
	if got.Model != "" || len(got.Messages) != 0 {
		t.Fatalf("primary payload should not carry model or messages: %+v", got)
	}
}

func TestCompletionClientFallsBackToTextField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"medical diagnosis"}`))
	}))
	defer srv.Close()

	out := NewCompletionClient(srv.URL, "", 10, 0, time.Second).Attempt(context.Background(), Request{})
	if !out.Succeeded || out.Label != tasks.MedicalDiagnosis {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestCompletionClientNon200Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out := NewCompletionClient(srv.URL, "", 10, 0, time.Second).Attempt(context.Background(), Request{})
	if out.Succeeded {
		t.Fatalf("expected failure on 503")
	}
	if out.Err == nil || !strings.Contains(out.Err.Error(), "503") {
		t.Fatalf("expected status in error, got %v", out.Err)
	}
}

func TestCompletionClientEmptyURLFails(t *testing.T) {
	out := NewCompletionClient("", "", 10, 0, time.Second).Attempt(context.Background(), Request{})
	if out.Succeeded || out.Err == nil {
		t.Fatalf("expected failure for empty url")
	}
}

func TestSecondaryClientUsesFirstReachableEndpoint(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	var posted completionRequest
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Visual QA"}}]}`))
	}))
	defer up.Close()

	client := &SecondaryClient{
		URLs:        []string{down.URL, up.URL},
		Model:       "qwen-7b",
		Chat:        true,
		MaxTokens:   50,
		Temperature: 0.2,
		Prober:      probe.New(time.Second),
		HTTPClient:  &http.Client{Timeout: time.Second},
	}

	out := client.Attempt(context.Background(), Request{Question: "how many cars"})
	if !out.Succeeded || out.Label != tasks.VisualQA {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if posted.Model != "qwen-7b" {
		t.Fatalf("expected model in payload, got %q", posted.Model)
	}
	if len(posted.Messages) != 1 || posted.Messages[0].Role != "user" || posted.Prompt != "" {
		t.Fatalf("expected chat payload, got %+v", posted)
	}
}

func TestSecondaryClientNoReachableEndpoint(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	client := &SecondaryClient{URLs: []string{down.URL}, Prober: probe.New(time.Second)}
	out := client.Attempt(context.Background(), Request{Question: "q"})
	if out.Succeeded || !errors.Is(out.Err, ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got %+v", out)
	}
}

func TestBuildTiersOrder(t *testing.T) {
	cfg := config.ClassifierConfig{
		PrimaryURL:    "http://primary",
		FallbackURL:   "http://fallback",
		UseSecondary:  true,
		SecondaryURLs: []string{"http://secondary"},
		MaxTokens:     100,
		Timeout:       time.Second,
		ProbeTimeout:  time.Second,
	}

	var names []string
	for _, tier := range BuildTiers(cfg) {
		names = append(names, tier.Name)
	}
	want := []string{SecondaryTier, PrimaryTier, FallbackTier}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("tiers = %v, want %v", names, want)
	}

	cfg.UseSecondary = false
	cfg.FallbackURL = ""
	tiers := BuildTiers(cfg)
	if len(tiers) != 1 || tiers[0].Name != PrimaryTier {
		t.Fatalf("expected only primary tier, got %d tiers", len(tiers))
	}
}
