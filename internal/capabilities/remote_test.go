package capabilities

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vision-router/internal/dispatch"
)

func TestRemoteHandlerSuccess(t *testing.T) {
	var got taskRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/task/caption" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"a dog on a beach","latency":0.42,"model_name":"BLIP-2"}`))
	}))
	defer srv.Close()

	h := NewRemoteHandler(srv.URL+"/", dispatch.HandlerCaption, dispatch.ModelBLIP2, CaptionFailed, time.Second)
	res, err := h.Handle(context.Background(), dispatch.Input{ImagePath: "/tmp/x.png", ImageKey: "ns/x.png", Question: "describe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ResultText != "a dog on a beach" || res.ModelIdentity != "BLIP-2" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got.ImagePath != "/tmp/x.png" || got.ImageKey != "ns/x.png" || got.Question != "describe" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestRemoteHandlerRendersNonStringResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":281,"latency":0.1}`))
	}))
	defer srv.Close()

	h := NewRemoteHandler(srv.URL, dispatch.HandlerMedical, dispatch.ModelResNet50, MedicalFailed, time.Second)
	res, err := h.Handle(context.Background(), dispatch.Input{ImagePath: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ResultText != "281" {
		t.Fatalf("expected 281, got %q", res.ResultText)
	}
	if res.ModelIdentity != dispatch.ModelResNet50 {
		t.Fatalf("expected handler model when reply omits it, got %q", res.ModelIdentity)
	}
}

func TestRemoteHandlerNon200WithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := NewRemoteHandler(srv.URL, dispatch.HandlerVQA, dispatch.ModelBLIP2, VQAFailed, time.Second)
	res, err := h.Handle(context.Background(), dispatch.Input{ImagePath: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ResultText != "Task handling failed with status 500" {
		t.Fatalf("unexpected text %q", res.ResultText)
	}
	if res.ModelIdentity != dispatch.ModelBLIP2 {
		t.Fatalf("unexpected model %q", res.ModelIdentity)
	}
}

func TestRemoteHandlerFallsBackOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/task/ocr":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/task/simocr":
			_, _ = w.Write([]byte(`{"result":"STOP","latency":0.2,"model_name":"PaddleOCR (Simple)"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	handlers := RemoteHandlers(srv.URL, time.Second)
	res, err := handlers[dispatch.HandlerOCR].Handle(context.Background(), dispatch.Input{ImagePath: "sign.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ResultText != "STOP" || res.ModelIdentity != SimOCRModelLabel {
		t.Fatalf("expected simocr fallback result, got %+v", res)
	}
}

func TestRemoteHandlerTransportFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	h := NewRemoteHandler(url, dispatch.HandlerCaption, dispatch.ModelBLIP2, CaptionFailed, time.Second)
	if _, err := h.Handle(context.Background(), dispatch.Input{ImagePath: "x"}); err == nil {
		t.Fatalf("expected transport error")
	}

	h.Fallback = dispatch.HandlerFunc(func(ctx context.Context, in dispatch.Input) (dispatch.TaskResult, error) {
		return dispatch.TaskResult{ResultText: "fallback", ModelIdentity: "fb"}, nil
	})
	res, err := h.Handle(context.Background(), dispatch.Input{ImagePath: "x"})
	if err != nil {
		t.Fatalf("unexpected error with fallback: %v", err)
	}
	if res.ResultText != "fallback" {
		t.Fatalf("expected fallback result, got %+v", res)
	}
}

func TestRemoteHandlerDegradedOnEmptyOrBadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty result", body: `{"result":"","latency":0}`},
		{name: "null result", body: `{"result":null}`},
		{name: "not json", body: `<html>oops</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			h := NewRemoteHandler(srv.URL, dispatch.HandlerCaption, dispatch.ModelBLIP2, CaptionFailed, time.Second)
			res, err := h.Handle(context.Background(), dispatch.Input{ImagePath: "x"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.ResultText != CaptionFailed {
				t.Fatalf("expected degraded text, got %q", res.ResultText)
			}
		})
	}
}

func TestRemoteHandlerCancelledContextSkipsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	called := false
	h := NewRemoteHandler(srv.URL, dispatch.HandlerOCR, dispatch.ModelPytesseract, NoTextDetected, time.Second)
	h.Fallback = dispatch.HandlerFunc(func(ctx context.Context, in dispatch.Input) (dispatch.TaskResult, error) {
		called = true
		return dispatch.TaskResult{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Handle(ctx, dispatch.Input{ImagePath: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Fatalf("fallback should not run after cancellation")
	}
}

func TestRenderResult(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `"  text "`, want: "text"},
		{raw: `3`, want: "3"},
		{raw: `2.5`, want: "2.5"},
		{raw: `true`, want: "true"},
		{raw: `null`, want: ""},
		{raw: ``, want: ""},
		{raw: `{"a": 1}`, want: `{"a":1}`},
		{raw: `[1, 2]`, want: `[1,2]`},
	}
	for _, tt := range tests {
		if got := renderResult(json.RawMessage(tt.raw)); got != tt.want {
			t.Fatalf("renderResult(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestUnsupported(t *testing.T) {
	res, err := Unsupported{}.Handle(context.Background(), dispatch.Input{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ResultText != UnsupportedText || res.ModelIdentity != dispatch.ModelNone {
		t.Fatalf("unexpected result %+v", res)
	}
}
