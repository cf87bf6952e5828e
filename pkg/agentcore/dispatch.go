package agentcore

import (
	"context"
	"fmt"

	"github.com/haasonsaas/orchestrator-core/internal/tracing"
)

// ToolDispatcher parses an assistant message's tool calls, invokes each,
// and formats the results back into tool-role messages. Tool failures
// (including ToolNotFound) are contained here as error-shaped
// ToolResults and never bubble out of Dispatch as a Go error; only a
// context cancellation does.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, rc *RunContext, agent *Agent, calls []ToolCall) ([]ToolResult, error)
}

// SequentialDispatcher is the base core's dispatcher: it invokes tool
// calls one at a time, in the exact order the provider emitted them
// (spec §4.4's ordering guarantee). ConcurrentDispatcher is the opt-in
// extension for overlapping execution.
type SequentialDispatcher struct{}

// NewSequentialDispatcher returns the default dispatcher.
func NewSequentialDispatcher() *SequentialDispatcher { return &SequentialDispatcher{} }

func (d *SequentialDispatcher) Dispatch(ctx context.Context, rc *RunContext, agent *Agent, calls []ToolCall) ([]ToolResult, error) {
	registry := newToolRegistry(agent.Tools)
	results := make([]ToolResult, len(calls))

	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			return results, newRunError(ErrExecutionStopped, agent.Name, rc.Turn, "context cancelled during tool dispatch", err)
		}
		results[i] = dispatchOne(ctx, rc, registry, call)
	}
	return results, nil
}

// dispatchOne executes a single call under its own tool.<name> span,
// containing any failure as an error-shaped ToolResult (grounded on the
// teacher's ToolRegistry.Execute, internal/agent/tool_registry.go, which
// likewise returns an error-shaped ToolResult rather than a Go error for
// not-found/oversized inputs).
func dispatchOne(ctx context.Context, rc *RunContext, registry *toolRegistry, call ToolCall) ToolResult {
	var result ToolResult

	spanErr := rc.Trace.WithSpan("tool."+call.Name, tracing.SpanKindTool, func(span *Span) error {
		span.SetAttribute("tool.name", call.Name)
		span.SetAttribute("tool.call_id", call.ID)
		span.SetAttribute("tool.args", string(call.Input))

		tool, ok := registry.get(call.Name)
		if !ok {
			result = ToolResult{ToolCallID: call.ID, Content: fmt.Sprintf("tool not found: %s", call.Name), IsError: true}
			span.SetAttribute("tool.result", result.Content)
			return nil
		}

		fn, ok := tool.(*FunctionTool)
		if !ok {
			result = ToolResult{
				ToolCallID: call.ID,
				Content:    fmt.Sprintf("tool %q is a hosted tool and cannot be dispatched locally", call.Name),
				IsError:    true,
			}
			span.SetAttribute("tool.result", result.Content)
			return nil
		}

		content, err := fn.Execute(ctx, call.Input)
		if err != nil {
			toolErr := NewToolError(call.Name, call.ID, err, false)
			result = ToolResult{ToolCallID: call.ID, Content: toolErr.Error(), IsError: true}
			span.SetAttribute("tool.result", result.Content)
			return toolErr
		}

		result = ToolResult{ToolCallID: call.ID, Content: content}
		span.SetAttribute("tool.result", content)
		return nil
	})
	_ = spanErr // the span records the error; Dispatch never propagates tool failures

	return result
}

// Span is a tracing span, re-exported so FunctionTool handlers and tests
// outside this package can reference it without importing internal/tracing.
type Span = tracing.Span
