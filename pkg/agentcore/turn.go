package agentcore

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/orchestrator-core/internal/schema"
	"github.com/haasonsaas/orchestrator-core/internal/streaming"
	"github.com/haasonsaas/orchestrator-core/internal/tracing"
)

// ReservedTerminationTokens are whole-word markers that, when present in
// an assistant's final text, are recorded on the turn's span as an
// explicit termination signal. They do not themselves end the run — a
// turn without tool calls and without a handoff signal is what ends a
// run (spec §4.1) — this is read-only diagnostic metadata for traces and
// for agents that adopt the convention deliberately, kept as a named,
// documented contract per the REDESIGN FLAGS in spec §9 rather than left
// as an implicit, unexplained string match (see DESIGN.md Open Question
// decision #4).
var ReservedTerminationTokens = []string{"STOP", "DONE", "FINISHED", "TERMINATE"}

func containsReservedTerminationToken(text string) bool {
	for _, tok := range ReservedTerminationTokens {
		if containsWholeWord(text, tok) {
			return true
		}
	}
	return false
}

func containsWholeWord(text, word string) bool {
	idx := 0
	for {
		at := strings.Index(text[idx:], word)
		if at < 0 {
			return false
		}
		at += idx
		beforeOK := at == 0 || !isWordByte(text[at-1])
		afterAt := at + len(word)
		afterOK := afterAt >= len(text) || !isWordByte(text[afterAt])
		if beforeOK && afterOK {
			return true
		}
		idx = at + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// turnOutcome is the result of running one turn.
type turnOutcome struct {
	assistantText string
	toolCalls     []ToolCall
	handoff       *HandoffSignal
	finalOutput   bool
}

// executor holds everything a turn needs: the provider, dispatcher,
// streaming bridge, and output validator. One executor is built per Run
// call and reused across every turn and every agent the run visits.
type executor struct {
	provider                ModelProvider
	dispatcher              ToolDispatcher
	bridge                  *streaming.Bridge
	validator               schema.Validator
	onEvent                 func(agentName string, turn int, ev streaming.Event)
	runLevelInputGuardrails []InputGuardrail
}

// runTurn implements TurnExecutor: evaluate input guardrails, build the
// request, call the model, accumulate its streamed output, dispatch any
// tool calls, and detect a handoff signal. It runs inside a re-rooted
// agent.<name> span (spec §4.7): each turn's span is a sibling of the
// previous turn's, not nested under it, while the generation and tool
// spans within the turn nest normally beneath it.
func (e *executor) runTurn(ctx context.Context, rc *RunContext) (turnOutcome, error) {
	agent := rc.CurrentAgent
	var outcome turnOutcome

	err := rc.Trace.WithRootSpan("agent."+agent.Name, tracing.SpanKindAgent, func(turnSpan *tracing.Span) error {
		turnSpan.SetAttribute("agent.name", agent.Name)
		turnSpan.SetAttribute("agent.turn", rc.Turn)
		turnSpan.SetAttribute("agent.model", agent.Model)
		turnSpan.SetAttribute("agent.handoffs", handoffNames(agent))
		turnSpan.SetAttribute("agent.tools", toolNames(agent))
		turnSpan.SetAttribute("agent.output_type", outputType(agent))

		// Input guardrails run once per turn (spec §4.3 step 3, §4.6):
		// run-level guardrails first, then whichever agent currently owns
		// the turn's own InputGuardrails, so a handoff target's guardrails
		// are reachable rather than only the starting agent's.
		if err := runInputGuardrails(ctx, rc, agent, rc.History, e.runLevelInputGuardrails, agent.InputGuardrails); err != nil {
			return err
		}

		instructions, err := resolveInstructions(ctx, rc, agent.Instructions)
		if err != nil {
			return newRunError(ErrModelBehavior, agent.Name, rc.Turn, "resolving instructions", err)
		}
		turnSpan.SetAttribute("agent.instructions", instructions)
		turnSpan.SetAttribute("agent.input", rc.History)

		req := CompletionRequest{
			Model:        agent.Model,
			Instructions: instructions,
			Messages:     rc.History,
			Tools:        agent.Tools,
		}

		var chunks <-chan streaming.ChunkDelta
		genErr := rc.Trace.WithSpan("generation", tracing.SpanKindGeneration, func(genSpan *tracing.Span) error {
			c, err := e.provider.Complete(ctx, req)
			if err != nil {
				return newRunError(ErrProvider, agent.Name, rc.Turn, "model provider call failed", err)
			}
			chunks = c
			genSpan.SetAttribute("provider.name", e.provider.Name())
			return nil
		})
		if genErr != nil {
			return genErr
		}

		text, toolCalls, usage, streamErr := e.accumulate(ctx, agent.Name, rc.Turn, chunks)
		rc.Usage.add(usage)
		if streamErr != nil {
			return newRunError(ErrProvider, agent.Name, rc.Turn, "streaming model response", streamErr)
		}

		turnSpan.SetAttribute("agent.output", text)
		turnSpan.SetAttribute("agent.termination_token_detected", containsReservedTerminationToken(text))
		turnSpan.SetAttribute("agent.tool_call_count", len(toolCalls))
		if usage.InputTokens > 0 || usage.OutputTokens > 0 {
			turnSpan.SetAttribute("agent.tokens", fmt.Sprintf("%d total", usage.TotalTokens()))
		}

		signal, err := detectHandoff(agent, toolCalls, text)
		if err != nil {
			return err
		}

		outcome = turnOutcome{
			assistantText: text,
			toolCalls:     toolCalls,
			handoff:       signal,
			finalOutput:   signal == nil && len(toolCalls) == 0,
		}
		return nil
	})

	return outcome, err
}

// handoffNames lists the agent's declared handoff targets by name, for
// the agent.handoffs span attribute (spec §4.3 span attribute contract).
func handoffNames(agent *Agent) []string {
	names := make([]string, 0, len(agent.Handoffs))
	for _, h := range agent.Handoffs {
		names = append(names, h.Name)
	}
	return names
}

// toolNames lists the agent's tool names, for the agent.tools span
// attribute.
func toolNames(agent *Agent) []string {
	names := make([]string, 0, len(agent.Tools))
	for _, t := range agent.Tools {
		names = append(names, t.Name())
	}
	return names
}

// outputType renders the agent's declared output contract for the
// agent.output_type span attribute: "json_schema" when one is set, the
// spec's default "text" otherwise.
func outputType(agent *Agent) string {
	if len(agent.OutputSchema) > 0 {
		return "json_schema"
	}
	return "text"
}

// accumulate drains a provider's chunk channel into a full assistant
// message, optionally forwarding the canonical streaming event sequence
// via e.onEvent (nil for non-streaming Run calls). It realizes the
// StreamEventBridge's role within TurnExecutor (spec §4.3/§4.8).
func (e *executor) accumulate(ctx context.Context, agentName string, turn int, chunks <-chan streaming.ChunkDelta) (string, []ToolCall, Usage, error) {
	var (
		text        strings.Builder
		usage       Usage
		toolBuilder = newToolCallBuilder()
		streamErr   error
	)

	tee := make(chan streaming.ChunkDelta)
	go func() {
		defer close(tee)
		for c := range chunks {
			if c.TextDelta != "" {
				text.WriteString(c.TextDelta)
			}
			if c.ToolCall != nil {
				toolBuilder.add(c.ToolCall.Index, c.ToolCall.ID, c.ToolCall.Name, c.ToolCall.ArgumentsDelta)
			}
			if c.Err != nil {
				streamErr = c.Err
			}
			if c.Usage.InputTokens > 0 || c.Usage.OutputTokens > 0 {
				usage = Usage{InputTokens: c.Usage.InputTokens, OutputTokens: c.Usage.OutputTokens}
			}
			select {
			case tee <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	if e.onEvent != nil {
		for ev := range e.bridge.Events(ctx, tee) {
			e.onEvent(agentName, turn, ev)
		}
	} else {
		for range e.bridge.Events(ctx, tee) {
		}
	}

	return text.String(), toolBuilder.build(), usage, streamErr
}

// toolCallBuilder assembles complete ToolCall values from a stream of
// per-index argument fragments, grounded on the teacher's pattern of
// accumulating tool call argument deltas during streamPhase
// (internal/agent/loop.go).
type toolCallBuilder struct {
	order []int
	ids   map[int]string
	names map[int]string
	args  map[int]*strings.Builder
}

func newToolCallBuilder() *toolCallBuilder {
	return &toolCallBuilder{
		ids:   make(map[int]string),
		names: make(map[int]string),
		args:  make(map[int]*strings.Builder),
	}
}

func (b *toolCallBuilder) add(index int, id, name, delta string) {
	if _, ok := b.args[index]; !ok {
		b.args[index] = &strings.Builder{}
		b.order = append(b.order, index)
	}
	if id != "" {
		b.ids[index] = id
	}
	if name != "" {
		b.names[index] = name
	}
	b.args[index].WriteString(delta)
}

func (b *toolCallBuilder) build() []ToolCall {
	calls := make([]ToolCall, 0, len(b.order))
	for _, idx := range b.order {
		calls = append(calls, ToolCall{
			ID:    b.ids[idx],
			Name:  b.names[idx],
			Input: []byte(b.args[idx].String()),
		})
	}
	return calls
}
