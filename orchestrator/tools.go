package orchestrator

import "context"

// ToolExecutor is the opaque tool-execution capability: one named operation
// from the fixed catalogue in, an arbitrary JSON-shaped value out. The real
// implementation is *canvas.Client; tests use deterministic stubs.
//
// Implementations must not retry on their own — retry policy belongs to the
// step loop, which feeds failures back to the model.
type ToolExecutor interface {
	Execute(ctx context.Context, tool string, params map[string]any) (any, error)
}

// ToolExecutorFunc adapts a function to the ToolExecutor interface.
type ToolExecutorFunc func(ctx context.Context, tool string, params map[string]any) (any, error)

// Execute calls f.
func (f ToolExecutorFunc) Execute(ctx context.Context, tool string, params map[string]any) (any, error) {
	return f(ctx, tool, params)
}

// executeTool runs one tool call and normalizes any failure into a
// structured error value instead of propagating it. The value lands in the
// tool log, so the model sees the failure on the retried step call and can
// choose a different tool or explain the problem in the summary.
func executeTool(ctx context.Context, executor ToolExecutor, tool string, params map[string]any) any {
	result, err := executor.Execute(ctx, tool, params)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return result
}
