package agentcore

import (
	"context"
	"encoding/json"
)

// Tool is the sealed variant type for anything an Agent can call: either
// a FunctionTool, executed in-process, or a HostedTool, whose execution
// is delegated to the model provider itself (e.g. a provider-hosted code
// interpreter or browsing tool). Sealing via the unexported isTool
// method realizes the tagged-variant redesign mandated by spec §9 in
// place of a single dynamically-typed Tool struct, while still letting
// ToolDispatcher accept either kind through one interface — grounded on
// the teacher's Tool interface (internal/agent/provider_types.go)
// generalized to the two-case form.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	isTool()
}

// FunctionToolHandler executes a FunctionTool's body given its raw,
// undecoded JSON arguments.
type FunctionToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// FunctionTool is a named, schema-bearing, in-process executable tool.
// Invariant T1: FunctionTool names must be unique within a single Agent;
// enforced by Agent's constructor, not by FunctionTool itself.
type FunctionTool struct {
	ToolName        string
	ToolDescription string
	ArgsSchema      json.RawMessage
	Handler         FunctionToolHandler
}

func (t *FunctionTool) Name() string           { return t.ToolName }
func (t *FunctionTool) Description() string    { return t.ToolDescription }
func (t *FunctionTool) Schema() json.RawMessage { return t.ArgsSchema }
func (t *FunctionTool) isTool()                {}

// Execute runs the tool's handler. Dispatch wraps any returned error as a
// *ToolError; Execute itself returns a plain error so handlers can be
// written and tested without importing dispatch machinery.
func (t *FunctionTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	return t.Handler(ctx, args)
}

// HostedTool names a tool the model provider executes itself. It has no
// Execute method: the core only passes the tool's identity and schema in
// the provider request. A HostedTool call that reaches the dispatcher is
// answered with an error-shaped tool result.
type HostedTool struct {
	ToolName        string
	ToolDescription string
	ArgsSchema      json.RawMessage
}

func (t *HostedTool) Name() string           { return t.ToolName }
func (t *HostedTool) Description() string    { return t.ToolDescription }
func (t *HostedTool) Schema() json.RawMessage { return t.ArgsSchema }
func (t *HostedTool) isTool()                 {}
