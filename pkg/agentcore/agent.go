package agentcore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// agentNamePattern restricts agent names to a single token so the
// textual handoff signal's "HANDOFF:\s*(\w+)" regex can always capture a
// full name in one match (spec's Open Question #2, resolved in
// DESIGN.md: multi-word names are rejected at construction rather than
// widening the regex).
var agentNamePattern = regexp.MustCompile(`^\w+$`)

// Instructions is the sealed variant for an agent's system prompt: either
// a fixed string or a function computed per run, replacing a single
// callable field with a tagged sum type (spec §9 redesign).
type Instructions interface{ isInstructions() }

// StaticInstructions is a fixed system prompt.
type StaticInstructions string

func (StaticInstructions) isInstructions() {}

// Static wraps a fixed instructions string.
func Static(s string) Instructions { return StaticInstructions(s) }

// DynamicInstructionsFunc computes the system prompt from the run's
// context, e.g. to inject per-user state into the prompt.
type DynamicInstructionsFunc func(ctx context.Context, rc *RunContext) (string, error)

// dynamicInstructions wraps a DynamicInstructionsFunc as an Instructions value.
type dynamicInstructions struct{ fn DynamicInstructionsFunc }

func (dynamicInstructions) isInstructions() {}

// Dynamic wraps a function computing the instructions per run.
func Dynamic(fn DynamicInstructionsFunc) Instructions { return dynamicInstructions{fn: fn} }

// resolveInstructions evaluates Instructions down to a plain string for one run.
func resolveInstructions(ctx context.Context, rc *RunContext, ins Instructions) (string, error) {
	switch v := ins.(type) {
	case StaticInstructions:
		return string(v), nil
	case dynamicInstructions:
		return v.fn(ctx, rc)
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("agentcore: unknown Instructions variant %T", ins)
	}
}

// ContextSharingMode controls how much conversation context a handoff
// carries to its target agent, grounded on the teacher's
// ContextSharingMode (internal/multiagent/types.go).
type ContextSharingMode string

const (
	ContextSharingFull    ContextSharingMode = "full"
	ContextSharingSummary ContextSharingMode = "summary"
	ContextSharingNone    ContextSharingMode = "none"
)

// HandoffFilter optionally prunes or rewrites the conversation handed to
// a target agent. A nil filter means ContextSharingFull: the entire
// history transfers unfiltered.
type HandoffFilter func(rc *RunContext, history []Message) []Message

// Agent bundles instructions, tools, allowed handoff targets, an optional
// output schema, and the turn budget and guardrails that apply whenever
// it is the active agent. A run never modifies an Agent, so one *Agent
// can be shared across concurrent runs (spec §5); AddTool and AddHandoff
// do modify it and are not safe while a run is using it.
type Agent struct {
	Name             string
	Instructions     Instructions
	Model            string
	Tools            []Tool
	Handoffs         []*Agent
	OutputSchema     json.RawMessage
	MaxTurns         int
	InputGuardrails  []InputGuardrail
	OutputGuardrails []OutputGuardrail
	HandoffFilter    HandoffFilter
	Metadata         map[string]any

	toolsByName map[string]Tool
}

// AgentOption configures an Agent at construction.
type AgentOption func(*Agent)

func WithModel(model string) AgentOption {
	return func(a *Agent) { a.Model = model }
}

func WithTools(tools ...Tool) AgentOption {
	return func(a *Agent) { a.Tools = append(a.Tools, tools...) }
}

func WithHandoffs(targets ...*Agent) AgentOption {
	return func(a *Agent) { a.Handoffs = append(a.Handoffs, targets...) }
}

func WithOutputSchema(schema json.RawMessage) AgentOption {
	return func(a *Agent) { a.OutputSchema = schema }
}

func WithMaxTurns(n int) AgentOption {
	return func(a *Agent) { a.MaxTurns = n }
}

func WithInputGuardrails(gs ...InputGuardrail) AgentOption {
	return func(a *Agent) { a.InputGuardrails = append(a.InputGuardrails, gs...) }
}

func WithOutputGuardrails(gs ...OutputGuardrail) AgentOption {
	return func(a *Agent) { a.OutputGuardrails = append(a.OutputGuardrails, gs...) }
}

func WithHandoffFilter(f HandoffFilter) AgentOption {
	return func(a *Agent) { a.HandoffFilter = f }
}

func WithMetadata(md map[string]any) AgentOption {
	return func(a *Agent) { a.Metadata = md }
}

// defaultAgentMaxTurns is used when an Agent does not set MaxTurns; the
// effective per-run bound is min(RunConfig.MaxTurns, Agent.MaxTurns)
// whenever both are positive (spec §4.1).
const defaultAgentMaxTurns = 0 // 0 means "no agent-level bound"

// NewAgent validates and constructs an Agent. It enforces invariant T1
// (tool names unique within the agent) and the single-token name rule
// required by the textual handoff signal.
func NewAgent(name string, instructions Instructions, opts ...AgentOption) (*Agent, error) {
	if !agentNamePattern.MatchString(name) {
		return nil, fmt.Errorf("agentcore: agent name %q must be a single word (required for HANDOFF: <name> detection)", name)
	}

	a := &Agent{
		Name:         name,
		Instructions: instructions,
		MaxTurns:     defaultAgentMaxTurns,
		toolsByName:  make(map[string]Tool),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, t := range a.Tools {
		if _, exists := a.toolsByName[t.Name()]; exists {
			return nil, fmt.Errorf("agentcore: duplicate tool name %q on agent %q", t.Name(), name)
		}
		a.toolsByName[t.Name()] = t
	}

	return a, nil
}

// Tool returns the named tool and whether it is registered on this agent.
func (a *Agent) Tool(name string) (Tool, bool) {
	t, ok := a.toolsByName[name]
	return t, ok
}

// AddTool registers t on a after construction, enforcing invariant T1
// (tool names unique within an agent) the same way NewAgent does for
// WithTools. Used by loaders that attach tools once an agent's identity
// is already fixed (e.g. a manifest agent that gains tools in a later
// resolution pass).
func (a *Agent) AddTool(t Tool) error {
	if _, exists := a.toolsByName[t.Name()]; exists {
		return fmt.Errorf("agentcore: duplicate tool name %q on agent %q", t.Name(), a.Name)
	}
	a.Tools = append(a.Tools, t)
	a.toolsByName[t.Name()] = t
	return nil
}

// ToolsAvailable reports whether a has any tool to offer the model this
// turn.
func (a *Agent) ToolsAvailable() bool {
	return len(a.Tools) > 0
}

// CanHandoffTo reports whether target is among a's declared Handoffs.
func (a *Agent) CanHandoffTo(target string) bool {
	return a.HandoffTarget(target) != nil
}

// GetInstructions resolves a's system prompt for one run, evaluating a
// DynamicInstructionsFunc against rc when present.
func (a *Agent) GetInstructions(ctx context.Context, rc *RunContext) (string, error) {
	return resolveInstructions(ctx, rc, a.Instructions)
}

// ExecuteTool runs the named FunctionTool directly against args, for
// callers that need a tool's result outside the normal turn/dispatch
// flow (e.g. tests, or a host embedding agentcore without going through
// Run). It fails with ErrToolNotFound when no tool matches name, and
// with ErrModelBehavior when name resolves to a HostedTool, since those
// are only ever executed by the model provider itself.
func (a *Agent) ExecuteTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := a.toolsByName[name]
	if !ok {
		return "", newRunError(ErrToolNotFound, a.Name, 0, fmt.Sprintf("tool %q not found on agent %q", name, a.Name), nil)
	}
	fn, ok := t.(*FunctionTool)
	if !ok {
		return "", newRunError(ErrModelBehavior, a.Name, 0, fmt.Sprintf("tool %q is a hosted tool and cannot be executed directly", name), nil)
	}
	return fn.Execute(ctx, args)
}

// HandoffTarget returns the agent named target among a's declared
// Handoffs, or nil if it is not an allowed handoff target.
func (a *Agent) HandoffTarget(target string) *Agent {
	for _, h := range a.Handoffs {
		if h.Name == target {
			return h
		}
	}
	return nil
}

// AddHandoff declares target as a handoff destination after a has already
// been constructed, wiring both a.Handoffs and the reserved
// "handoff_to_<target>" tool that the detector's tool-based signal keys
// off. Used by loaders (e.g. internal/agentdef) that must resolve
// forward- and mutually-referencing agents in a second pass, since
// NewAgent alone cannot express a handoff cycle at construction time.
func (a *Agent) AddHandoff(target *Agent) error {
	if a.HandoffTarget(target.Name) != nil {
		return fmt.Errorf("agentcore: agent %q already has a handoff to %q", a.Name, target.Name)
	}
	tool := BuildHandoffTool(target)
	if _, exists := a.toolsByName[tool.Name()]; exists {
		return fmt.Errorf("agentcore: duplicate tool name %q on agent %q", tool.Name(), a.Name)
	}
	a.Handoffs = append(a.Handoffs, target)
	a.Tools = append(a.Tools, tool)
	a.toolsByName[tool.Name()] = tool
	return nil
}
