package agentcore

import (
	"log/slog"
	"time"

	"github.com/haasonsaas/orchestrator-core/internal/schema"
	"github.com/haasonsaas/orchestrator-core/internal/tracing"
)

// DefaultMaxTurns is the runner's default turn budget, grounded on the
// teacher's AgenticLoop default (internal/agent/loop.go:
// DefaultLoopConfig().MaxIterations) and on the comparable Go port of the
// OpenAI Agents SDK surveyed in the example pack, which also defaults to
// 10.
const DefaultMaxTurns = 10

// RunConfig is a read-only value describing how a Run/RunStreamed call
// should behave: a plain struct built via functional options rather than
// a mutable global, replacing the process-wide config object the
// original design implied (spec §9 redesign).
type RunConfig struct {
	// Provider is the model backend every turn calls. Required: Run and
	// RunStreamed return a ProviderError-kind RunError if it is nil.
	Provider ModelProvider

	// MaxTurns bounds the run. The effective bound for any given agent is
	// min(MaxTurns, agent.MaxTurns) whenever the agent sets one (spec §4.1).
	MaxTurns int

	// RunLevelInputGuardrails/OutputGuardrails run before any agent-level
	// guardrails, per spec §4.6 ordering.
	RunLevelInputGuardrails  []InputGuardrail
	RunLevelOutputGuardrails []OutputGuardrail

	// TraceProcessors receive span/trace lifecycle events for the run.
	TraceProcessors []tracing.SpanProcessor

	// IncludeSensitiveTraceData controls whether trace spans retain raw
	// instructions/input/output or redacted placeholders.
	IncludeSensitiveTraceData bool

	// ConcurrentTools opts into the non-default concurrent tool dispatcher
	// (spec §4.4's explicit extension point); the base core dispatches
	// tool calls strictly in order.
	ConcurrentTools bool

	// OutputValidator, if set, validates an agent's final content against
	// its OutputSchema before Run returns (spec §4.9).
	OutputValidator schema.Validator

	// WorkflowName labels the trace (visible to trace processors).
	WorkflowName string

	Logger *slog.Logger

	// StopFunc, if set, is polled before every turn (spec §5's cooperative
	// cancellation contract). It is distinct from ctx cancellation, which
	// dispatch.go already observes mid tool-dispatch: StopFunc lets a
	// caller request a clean stop between turns. The run then returns a
	// nil RunResult and an ExecutionStopped RunError, which carries the
	// agent name and turn but not the partial conversation.
	StopFunc func() bool
}

// RunnerOption configures a RunConfig.
type RunnerOption func(*RunConfig)

func WithProvider(p ModelProvider) RunnerOption {
	return func(c *RunConfig) { c.Provider = p }
}

func WithMaxTurns(n int) RunnerOption {
	return func(c *RunConfig) { c.MaxTurns = n }
}

func WithRunLevelInputGuardrails(gs ...InputGuardrail) RunnerOption {
	return func(c *RunConfig) { c.RunLevelInputGuardrails = append(c.RunLevelInputGuardrails, gs...) }
}

func WithRunLevelOutputGuardrails(gs ...OutputGuardrail) RunnerOption {
	return func(c *RunConfig) { c.RunLevelOutputGuardrails = append(c.RunLevelOutputGuardrails, gs...) }
}

func WithTraceProcessors(ps ...tracing.SpanProcessor) RunnerOption {
	return func(c *RunConfig) { c.TraceProcessors = append(c.TraceProcessors, ps...) }
}

func WithSensitiveTraceData(include bool) RunnerOption {
	return func(c *RunConfig) { c.IncludeSensitiveTraceData = include }
}

func WithConcurrentTools(enabled bool) RunnerOption {
	return func(c *RunConfig) { c.ConcurrentTools = enabled }
}

func WithOutputValidator(v schema.Validator) RunnerOption {
	return func(c *RunConfig) { c.OutputValidator = v }
}

func WithWorkflowName(name string) RunnerOption {
	return func(c *RunConfig) { c.WorkflowName = name }
}

func WithLogger(l *slog.Logger) RunnerOption {
	return func(c *RunConfig) { c.Logger = l }
}

// WithStopFunc installs a predicate polled before every turn; once it
// returns true, the run ends with an ExecutionStopped error instead of
// starting another turn (spec §5).
func WithStopFunc(f func() bool) RunnerOption {
	return func(c *RunConfig) { c.StopFunc = f }
}

// newRunConfig applies defaults then options, following the teacher's
// "sanitize with defaults" pattern (DefaultLoopConfig/sanitizeLoopConfig
// in internal/agent/loop.go).
func newRunConfig(opts ...RunnerOption) RunConfig {
	c := RunConfig{
		MaxTurns:     DefaultMaxTurns,
		WorkflowName: "agent-run",
		Logger:       NewLoggerFromEnv(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// RunResult is returned by Run once the conversation reaches a final
// output, and is also reconstructible from a RunStreamed call after its
// event iterator is drained.
type RunResult struct {
	FinalOutput string
	LastAgent   *Agent
	Messages    []Message
	Usage       Usage
	TraceID     string
	Turns       int
	StartedAt   time.Time
	EndedAt     time.Time
}
