package capabilities

import (
	"context"
	"errors"
	"time"

	"vision-router/internal/dispatch"
	"vision-router/internal/shared/telemetry"
)

// LocalHandler serves a capability in-process by asking a vision engine.
// It never returns an error; failures become the degraded text.
type LocalHandler struct {
	Name     string
	Model    string
	Degraded string
	// NotFound, when set, is answered with zero latency for a missing image.
	NotFound string
	Prompt   func(in dispatch.Input) string
	Engine   Engine
	Images   Loader
	Now      func() time.Time
}

// Handle runs the engine over the input image.
func (h *LocalHandler) Handle(ctx context.Context, in dispatch.Input) (dispatch.TaskResult, error) {
	start := h.now()

	if h.Images == nil {
		return h.result(start, h.Degraded), nil
	}
	data, mimeType, err := h.Images.Load(ctx, in)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) && h.NotFound != "" {
			return dispatch.TaskResult{ResultText: h.NotFound, ModelIdentity: h.Model}, nil
		}
		h.warn("capability.image_load_failed", err)
		return h.result(start, h.Degraded), nil
	}

	if h.Engine == nil {
		return h.result(start, h.Degraded), nil
	}
	prompt := ""
	if h.Prompt != nil {
		prompt = h.Prompt(in)
	}
	text, err := h.Engine.Describe(ctx, data, mimeType, prompt)
	if err != nil || text == "" {
		if err != nil {
			h.warn("capability.engine_failed", err)
		}
		return h.result(start, h.Degraded), nil
	}
	return h.result(start, text), nil
}

func (h *LocalHandler) result(start time.Time, text string) dispatch.TaskResult {
	latency := h.now().Sub(start).Seconds()
	if latency < 0 {
		latency = 0
	}
	return dispatch.TaskResult{
		ResultText:     text,
		LatencySeconds: round4(latency),
		ModelIdentity:  h.Model,
	}
}

func (h *LocalHandler) warn(msg string, err error) {
	telemetry.Warn(msg, map[string]any{
		"handler": h.Name,
		"error":   err,
	})
}

func (h *LocalHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
