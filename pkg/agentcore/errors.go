package agentcore

import (
	"errors"
	"fmt"
)

// RunError is the base type for every error that can terminate Run or
// RunStreamed. It carries the turn at which the failure occurred and
// wraps an underlying cause, grounded on the teacher's LoopError
// (internal/agent/errors.go): a typed phase/iteration-tagged error with
// Unwrap support rather than a bare sentinel.
type RunError struct {
	Kind  ErrorKind
	Turn  int
	Agent string
	Msg   string
	Cause error
}

// ErrorKind classifies which of the taxonomy's fatal conditions occurred.
type ErrorKind string

const (
	ErrMaxTurnsExceeded       ErrorKind = "max_turns_exceeded"
	ErrHandoffTargetNotFound  ErrorKind = "handoff_target_not_found"
	ErrToolNotFound           ErrorKind = "tool_not_found"
	ErrModelBehavior          ErrorKind = "model_behavior_error"
	ErrInputGuardrailTripped  ErrorKind = "input_guardrail_triggered"
	ErrOutputGuardrailTripped ErrorKind = "output_guardrail_triggered"
	ErrExecutionStopped       ErrorKind = "execution_stopped"
	ErrProvider               ErrorKind = "provider_error"
)

func (e *RunError) Error() string {
	base := fmt.Sprintf("[%s]", e.Kind)
	if e.Agent != "" {
		base += " agent=" + e.Agent
	}
	if e.Turn > 0 {
		base += fmt.Sprintf(" turn=%d", e.Turn)
	}
	if e.Msg != "" {
		base += ": " + e.Msg
	} else if e.Cause != nil {
		base += ": " + e.Cause.Error()
	}
	return base
}

func (e *RunError) Unwrap() error { return e.Cause }

func newRunError(kind ErrorKind, agent string, turn int, msg string, cause error) *RunError {
	return &RunError{Kind: kind, Agent: agent, Turn: turn, Msg: msg, Cause: cause}
}

// IsKind reports whether err is a *RunError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

// ToolError is returned, never raised, from tool dispatch: a tool failure
// is contained and formatted into the conversation as an error-shaped
// tool result (spec §4.4), it does not bubble out of Run. It is still a
// typed error value so dispatch/metrics code can inspect it, grounded on
// the teacher's ToolError (internal/agent/errors.go).
type ToolError struct {
	ToolName   string
	ToolCallID string
	Cause      error
	Retryable  bool
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.ToolName, e.Cause)
}

func (e *ToolError) Unwrap() error { return e.Cause }

// NewToolError wraps cause as a ToolError for the named tool call.
func NewToolError(toolName, toolCallID string, cause error, retryable bool) *ToolError {
	return &ToolError{ToolName: toolName, ToolCallID: toolCallID, Cause: cause, Retryable: retryable}
}
