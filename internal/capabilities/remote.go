package capabilities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vision-router/internal/dispatch"
	"vision-router/internal/shared/telemetry"
)

const maxResponseBytes = 1 << 20

type taskRequest struct {
	ImagePath string `json:"image_path"`
	ImageKey  string `json:"image_key,omitempty"`
	Question  string `json:"question"`
}

type taskResponse struct {
	Result    json.RawMessage `json:"result"`
	Latency   float64         `json:"latency"`
	ModelName string          `json:"model_name"`
}

// RemoteHandler calls a capability endpoint at {BaseURL}/task/{Endpoint}.
type RemoteHandler struct {
	BaseURL  string
	Endpoint string
	Model    string
	Degraded string
	// Fallback is tried when the endpoint is unreachable or answers badly.
	Fallback   dispatch.Handler
	HTTPClient *http.Client
	Now        func() time.Time
}

// NewRemoteHandler builds a handler whose calls are bounded by timeout.
func NewRemoteHandler(baseURL, endpoint, model, degraded string, timeout time.Duration) *RemoteHandler {
	return &RemoteHandler{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Endpoint:   endpoint,
		Model:      model,
		Degraded:   degraded,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// URL is the endpoint this handler posts to.
func (h *RemoteHandler) URL() string {
	return strings.TrimRight(h.BaseURL, "/") + "/task/" + h.Endpoint
}

// Handle posts the input and maps the reply to a TaskResult. Only a
// transport fault with no fallback is returned as an error.
func (h *RemoteHandler) Handle(ctx context.Context, in dispatch.Input) (dispatch.TaskResult, error) {
	start := h.now()

	status, body, err := h.post(ctx, in)
	if err != nil {
		if h.Fallback != nil && ctx.Err() == nil {
			h.logFallback("transport", err)
			return h.Fallback.Handle(ctx, in)
		}
		return dispatch.TaskResult{}, fmt.Errorf("call %s: %w", h.Endpoint, err)
	}

	if status != http.StatusOK {
		if h.Fallback != nil {
			h.logFallback("status", fmt.Errorf("status %d", status))
			return h.Fallback.Handle(ctx, in)
		}
		return h.result(start, fmt.Sprintf("Task handling failed with status %d", status), ""), nil
	}

	var resp taskResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if h.Fallback != nil {
			h.logFallback("decode", err)
			return h.Fallback.Handle(ctx, in)
		}
		telemetry.Warn("capability.decode_failed", map[string]any{
			"endpoint": h.Endpoint,
			"error":    err,
		})
		return h.result(start, h.degraded(), ""), nil
	}

	text := renderResult(resp.Result)
	if text == "" {
		text = h.degraded()
	}
	return h.result(start, text, resp.ModelName), nil
}

func (h *RemoteHandler) post(ctx context.Context, in dispatch.Input) (int, []byte, error) {
	payload, err := json.Marshal(taskRequest{
		ImagePath: in.ImagePath,
		ImageKey:  in.ImageKey,
		Question:  in.Question,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL(), bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (h *RemoteHandler) result(start time.Time, text, model string) dispatch.TaskResult {
	if model == "" {
		model = h.Model
	}
	latency := h.now().Sub(start).Seconds()
	if latency < 0 {
		latency = 0
	}
	return dispatch.TaskResult{
		ResultText:     text,
		LatencySeconds: round4(latency),
		ModelIdentity:  model,
	}
}

func (h *RemoteHandler) degraded() string {
	if h.Degraded != "" {
		return h.Degraded
	}
	return dispatch.FailedResultText
}

func (h *RemoteHandler) logFallback(reason string, err error) {
	telemetry.Warn("capability.fallback", map[string]any{
		"endpoint": h.Endpoint,
		"reason":   reason,
		"error":    err,
	})
}

func (h *RemoteHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// renderResult turns a result value of any JSON type into text.
func renderResult(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return string(trimmed)
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return string(trimmed)
		}
		return buf.String()
	}
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}
