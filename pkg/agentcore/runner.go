package agentcore

import (
	"context"
	"fmt"
	"time"

	"github.com/haasonsaas/orchestrator-core/internal/streaming"
	"github.com/haasonsaas/orchestrator-core/internal/tracing"
)

// Run drives startingAgent through turns until a final output, a handoff
// chain resolves, a guardrail trips, or an error occurs, and returns the
// completed RunResult. It is the non-streaming entrypoint; RunStreamed
// runs the identical algorithm while also forwarding the canonical
// streaming event sequence as it is produced.
func Run(ctx context.Context, startingAgent *Agent, input []Message, opts ...RunnerOption) (*RunResult, error) {
	cfg := newRunConfig(opts...)
	return runLoop(ctx, startingAgent, input, cfg, nil)
}

// StreamEvent tags one canonical streaming event with the agent and turn
// that produced it, since a run may visit several agents across handoffs.
type StreamEvent struct {
	Agent string
	Turn  int
	Event streaming.Event
}

// StreamedRun is the handle returned by RunStreamed: Events delivers the
// canonical event sequence as it is produced, and Wait blocks for the
// final RunResult. Events buffers 16 events; once the buffer is full the
// run waits for the caller to read (or for ctx to be done), so Wait
// returns without Events being drained only for runs that emit no more
// events than that.
type StreamedRun struct {
	Events <-chan StreamEvent

	done   chan struct{}
	result *RunResult
	err    error
}

// Wait blocks until the run completes and returns its result.
func (s *StreamedRun) Wait() (*RunResult, error) {
	<-s.done
	return s.result, s.err
}

// RunStreamed starts startingAgent's run in the background and returns a
// StreamedRun immediately. Grounded on the teacher's Run returning
// (<-chan *ResponseChunk, error) (internal/agent/runtime.go), generalized
// so the final RunResult/error is also retrievable once the stream ends,
// rather than requiring the caller to reconstruct it from chunks.
func RunStreamed(ctx context.Context, startingAgent *Agent, input []Message, opts ...RunnerOption) *StreamedRun {
	cfg := newRunConfig(opts...)
	events := make(chan StreamEvent, 16)
	sr := &StreamedRun{Events: events, done: make(chan struct{})}

	onEvent := func(agentName string, turn int, ev streaming.Event) {
		select {
		case events <- StreamEvent{Agent: agentName, Turn: turn, Event: ev}:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(sr.done)
		defer close(events)
		sr.result, sr.err = runLoop(ctx, startingAgent, input, cfg, onEvent)
	}()

	return sr
}

// runLoop is the shared Runner algorithm behind Run and RunStreamed (spec
// §4.1–§4.7): validate the agent graph, then execute turns until a final
// output is reached, dispatching tool calls and following handoffs as
// they are signaled. Input guardrails run at the start of every turn,
// inside runTurn.
func runLoop(ctx context.Context, startingAgent *Agent, input []Message, cfg RunConfig, onEvent func(string, int, streaming.Event)) (*RunResult, error) {
	if cfg.Provider == nil {
		return nil, newRunError(ErrProvider, startingAgent.Name, 0, "RunConfig.Provider is required", nil)
	}
	if err := validateAgentGraph(startingAgent); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	trace := tracing.New(cfg.WorkflowName,
		tracing.WithProcessors(cfg.TraceProcessors...),
		tracing.WithSensitiveData(cfg.IncludeSensitiveTraceData),
		tracing.WithLogger(cfg.Logger),
	)
	defer trace.End()

	history := append([]Message{}, input...)

	rc := &RunContext{
		Trace:        trace,
		CurrentAgent: startingAgent,
		History:      history,
	}

	var dispatcher ToolDispatcher = NewSequentialDispatcher()
	if cfg.ConcurrentTools {
		dispatcher = NewConcurrentDispatcher(DefaultConcurrentDispatcherConfig())
	}

	ex := &executor{
		provider:                cfg.Provider,
		dispatcher:              dispatcher,
		bridge:                  streaming.NewBridge(),
		validator:               cfg.OutputValidator,
		runLevelInputGuardrails: cfg.RunLevelInputGuardrails,
	}
	if onEvent != nil {
		ex.onEvent = onEvent
	}

	totalTurns := 0

	for {
		if cfg.StopFunc != nil && cfg.StopFunc() {
			rc.History = append(rc.History, NewMessage(RoleAssistant, "Execution stopped by user request."))
			return nil, newRunError(ErrExecutionStopped, rc.CurrentAgent.Name, rc.Turn, "execution stopped by user request", nil)
		}

		effectiveMax := cfg.MaxTurns
		if rc.CurrentAgent.MaxTurns > 0 && rc.CurrentAgent.MaxTurns < effectiveMax {
			effectiveMax = rc.CurrentAgent.MaxTurns
		}
		if rc.Turn >= effectiveMax {
			return nil, newRunError(ErrMaxTurnsExceeded, rc.CurrentAgent.Name, rc.Turn,
				fmt.Sprintf("exceeded max turns (%d) for agent %q", effectiveMax, rc.CurrentAgent.Name), nil)
		}

		outcome, err := ex.runTurn(ctx, rc)
		if err != nil {
			return nil, err
		}
		totalTurns++

		assistantMsg := NewMessage(RoleAssistant, outcome.assistantText)
		assistantMsg.AgentName = rc.CurrentAgent.Name
		assistantMsg.ToolCalls = outcome.toolCalls
		rc.History = append(rc.History, assistantMsg)

		if len(outcome.toolCalls) > 0 {
			results, err := dispatcher.Dispatch(ctx, rc, rc.CurrentAgent, outcome.toolCalls)
			if err != nil {
				return nil, err
			}
			for _, result := range results {
				rc.History = append(rc.History, result.ToMessage())
			}
		}

		if outcome.handoff != nil {
			source := rc.CurrentAgent
			rc.History = applyHandoffFilter(source, rc, rc.History)
			rc.handoffTo(outcome.handoff.Target)
			continue
		}

		if outcome.finalOutput {
			if err := validateFinalOutput(ctx, cfg, rc, outcome.assistantText); err != nil {
				return nil, err
			}
			return &RunResult{
				FinalOutput: outcome.assistantText,
				LastAgent:   rc.CurrentAgent,
				Messages:    rc.History,
				Usage:       rc.Usage,
				TraceID:     trace.TraceID(),
				Turns:       totalTurns,
				StartedAt:   startedAt,
				EndedAt:     time.Now(),
			}, nil
		}

		rc.Turn++
	}
}

// validateFinalOutput checks the current agent's OutputSchema (if any and
// if cfg.OutputValidator is configured) and then runs the output
// guardrails. Per spec §4.9, a schema mismatch is recorded on a separate
// output_schema_validation span but does not fail the run — the raw content still passes through
// as FinalOutput, since an output_schema is a contract hint for callers,
// not an enforced guardrail; only a tripped OutputGuardrail is fatal.
func validateFinalOutput(ctx context.Context, cfg RunConfig, rc *RunContext, output string) error {
	agent := rc.CurrentAgent
	if len(agent.OutputSchema) > 0 && cfg.OutputValidator != nil {
		if err := cfg.OutputValidator.Validate(agent.OutputSchema, output); err != nil {
			rc.Trace.WithSpan("output_schema_validation", tracing.SpanKindGuardrail, func(span *tracing.Span) error {
				span.SetAttribute("output_schema.valid", false)
				span.SetAttribute("output_schema.error", err.Error())
				return nil
			})
		}
	}
	return runOutputGuardrails(ctx, rc, agent, output, cfg.RunLevelOutputGuardrails, agent.OutputGuardrails)
}

// validateAgentGraph enforces invariant A1 (agent name uniqueness) across
// every agent reachable from start via Handoffs. Two distinct *Agent
// values sharing a name is a construction error; the same *Agent reached
// via more than one path (a diamond in the handoff graph) is not.
func validateAgentGraph(start *Agent) error {
	byName := make(map[string]*Agent)
	visited := make(map[*Agent]bool)

	var walk func(a *Agent) error
	walk = func(a *Agent) error {
		if visited[a] {
			return nil
		}
		visited[a] = true

		if existing, ok := byName[a.Name]; ok && existing != a {
			return fmt.Errorf("agentcore: duplicate agent name %q reachable from %q (invariant A1)", a.Name, start.Name)
		}
		byName[a.Name] = a

		for _, h := range a.Handoffs {
			if err := walk(h); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(start)
}
