package dispatch

import "context"

// Input is what a capability handler receives.
type Input struct {
	ImagePath string
	// ImageKey is the object-store key for handlers that read bytes directly.
	ImageKey string
	Question string
}

// TaskResult is the uniform output of every handler.
type TaskResult struct {
	ResultText     string  `json:"result"`
	LatencySeconds float64 `json:"latency"`
	ModelIdentity  string  `json:"model_name"`
}

// Handler implements one capability.
type Handler interface {
	Handle(ctx context.Context, in Input) (TaskResult, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, in Input) (TaskResult, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, in Input) (TaskResult, error) {
	return f(ctx, in)
}
