package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"vision-router/internal/probe"
	"vision-router/internal/tasks"
)

func newClassifierRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.RegisterRoutes(&router.RouterGroup)
	return router
}

func TestConnectivityReportsEachCandidate(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	downURL := down.URL
	down.Close()

	h := &Handler{Cascade: &Cascade{}, Prober: probe.New(time.Second), URLs: []string{downURL, up.URL}}
	router := newClassifierRouter(h)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/classifier/connectivity", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got connectivityResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Candidates) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(got.Candidates))
	}
	if got.Candidates[0].Reachable || !got.Candidates[1].Reachable {
		t.Fatalf("unexpected reachability %+v", got.Candidates)
	}
	if got.Reachable != up.URL {
		t.Fatalf("expected %s reachable, got %q", up.URL, got.Reachable)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	cascade := &Cascade{Tiers: []Tier{{
		Name: PrimaryTier,
		Attempt: func(ctx context.Context, req Request) Outcome {
			return Outcome{Succeeded: true, Label: tasks.ImageCaptioning, RawText: "Image Captioning"}
		},
	}}}
	router := newClassifierRouter(&Handler{Cascade: cascade, Prober: probe.New(time.Second)})

	body, _ := json.Marshal(classifyRequest{Question: "describe this"})
	req := httptest.NewRequest(http.MethodPost, "/classifier/classify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got["task"] != "Image Captioning" || got["tier"] != PrimaryTier {
		t.Fatalf("unexpected response %v", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/classifier/classify", bytes.NewBufferString(`{"question":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
