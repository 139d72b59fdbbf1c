package capabilities

import (
	"context"

	"vision-router/internal/dispatch"
)

// UnsupportedText answers every request routed to the "other" handler.
const UnsupportedText = "Task not supported"

// Unsupported is the no-op capability.
type Unsupported struct{}

// Handle always succeeds.
func (Unsupported) Handle(ctx context.Context, in dispatch.Input) (dispatch.TaskResult, error) {
	return dispatch.TaskResult{ResultText: UnsupportedText, ModelIdentity: dispatch.ModelNone}, nil
}
