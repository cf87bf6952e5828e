package agentcore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/orchestrator-core/internal/provider/mock"
	"github.com/haasonsaas/orchestrator-core/pkg/agentcore"
)

func mustAgent(t *testing.T, name string, instructions string, opts ...agentcore.AgentOption) *agentcore.Agent {
	t.Helper()
	a, err := agentcore.NewAgent(name, agentcore.Static(instructions), opts...)
	require.NoError(t, err)
	return a
}

func TestRunEchoNoToolCalls(t *testing.T) {
	agent := mustAgent(t, "greeter", "say hello")
	provider := mock.New(mock.Turn{Text: "hello there"})

	result, err := agentcore.Run(context.Background(), agent, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "hi")},
		agentcore.WithProvider(provider))
	require.NoError(t, err)
	assert.Equal(t, "hello there", result.FinalOutput)
	assert.Equal(t, "greeter", result.LastAgent.Name)
	assert.Equal(t, 1, result.Turns)
}

func TestRunToolRoundTrip(t *testing.T) {
	called := make(chan string, 1)
	lookup := &agentcore.FunctionTool{
		ToolName:        "lookup",
		ToolDescription: "looks something up",
		ArgsSchema:      json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, args json.RawMessage) (string, error) {
			called <- string(args)
			return "42", nil
		},
	}
	agent := mustAgent(t, "worker", "use tools", agentcore.WithTools(lookup))

	provider := mock.New(
		mock.Turn{ToolCalls: []agentcore.ToolCall{{ID: "call-1", Name: "lookup", Input: json.RawMessage(`{"q":"answer"}`)}}},
		mock.Turn{Text: "the answer is 42"},
	)

	result, err := agentcore.Run(context.Background(), agent, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "look it up")},
		agentcore.WithProvider(provider))
	require.NoError(t, err)
	assert.Equal(t, "the answer is 42", result.FinalOutput)
	assert.Equal(t, 2, result.Turns)

	select {
	case args := <-called:
		assert.JSONEq(t, `{"q":"answer"}`, args)
	default:
		t.Fatal("tool handler was never invoked")
	}

	var sawToolResult bool
	for _, m := range result.Messages {
		if m.Role == agentcore.RoleTool && m.ToolCallID == "call-1" {
			sawToolResult = true
			assert.Equal(t, "42", m.Content)
		}
	}
	assert.True(t, sawToolResult, "expected a tool-role message correlated by tool_call_id")
}

func TestRunHandoffSwitchesAgent(t *testing.T) {
	billing := mustAgent(t, "billing", "handle billing")
	triage := mustAgent(t, "triage", "route requests", agentcore.WithHandoffs(billing))

	provider := mock.New(
		mock.Turn{ToolCalls: []agentcore.ToolCall{{ID: "h1", Name: agentcore.HandoffToolName(billing)}}},
		mock.Turn{Text: "billing here, your balance is $0"},
	)

	result, err := agentcore.Run(context.Background(), triage, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "bill me")},
		agentcore.WithProvider(provider))
	require.NoError(t, err)
	assert.Equal(t, "billing", result.LastAgent.Name)
	assert.Equal(t, "billing here, your balance is $0", result.FinalOutput)
}

func TestRunHandoffTargetsOwnInputGuardrailFiresOnItsTurn(t *testing.T) {
	tripped := agentcore.InputGuardrail{
		Name: "billing-only-guardrail",
		Func: func(_ context.Context, _ *agentcore.RunContext, _ *agentcore.Agent, _ []agentcore.Message) (agentcore.GuardrailResult, error) {
			return agentcore.GuardrailResult{TripwireTriggered: true, Reason: "billing agent refuses all input"}, nil
		},
	}
	billing := mustAgent(t, "billing", "handle billing", agentcore.WithInputGuardrails(tripped))
	triage := mustAgent(t, "triage", "route requests", agentcore.WithHandoffs(billing))

	provider := mock.New(
		mock.Turn{ToolCalls: []agentcore.ToolCall{{ID: "h1", Name: agentcore.HandoffToolName(billing)}}},
		mock.Turn{Text: "should never run"},
	)

	_, err := agentcore.Run(context.Background(), triage, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "bill me")},
		agentcore.WithProvider(provider))
	require.Error(t, err)
	assert.True(t, agentcore.IsKind(err, agentcore.ErrInputGuardrailTripped))
	assert.Len(t, provider.Calls(), 1, "triage's turn should have run, but billing's guardrail must block its own turn")
}

func TestRunMaxTurnsExceeded(t *testing.T) {
	loopTool := &agentcore.FunctionTool{
		ToolName: "noop",
		Handler: func(_ context.Context, _ json.RawMessage) (string, error) { return "ok", nil },
	}
	agent := mustAgent(t, "looper", "keep calling tools", agentcore.WithTools(loopTool), agentcore.WithMaxTurns(2))

	// Every turn calls the tool, so the run never reaches a final output
	// and must hit the max-turns guard.
	provider := mock.New(
		mock.Turn{ToolCalls: []agentcore.ToolCall{{ID: "1", Name: "noop"}}},
		mock.Turn{ToolCalls: []agentcore.ToolCall{{ID: "2", Name: "noop"}}},
		mock.Turn{ToolCalls: []agentcore.ToolCall{{ID: "3", Name: "noop"}}},
	)

	_, err := agentcore.Run(context.Background(), agent, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "go")},
		agentcore.WithProvider(provider))
	require.Error(t, err)
	assert.True(t, agentcore.IsKind(err, agentcore.ErrMaxTurnsExceeded))
}

func TestRunInputGuardrailTripwireAbortsBeforeFirstTurn(t *testing.T) {
	agent := mustAgent(t, "greeter", "say hello")
	provider := mock.New(mock.Turn{Text: "should never run"})

	tripped := agentcore.InputGuardrail{
		Name: "blocklist",
		Func: func(_ context.Context, _ *agentcore.RunContext, _ *agentcore.Agent, _ []agentcore.Message) (agentcore.GuardrailResult, error) {
			return agentcore.GuardrailResult{TripwireTriggered: true, Reason: "contains forbidden word"}, nil
		},
	}

	_, err := agentcore.Run(context.Background(), agent, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "forbidden")},
		agentcore.WithProvider(provider), agentcore.WithRunLevelInputGuardrails(tripped))
	require.Error(t, err)
	assert.True(t, agentcore.IsKind(err, agentcore.ErrInputGuardrailTripped))
	assert.Empty(t, provider.Calls(), "provider must never be called once the input guardrail has tripped")
}

func TestRunStopFuncEndsRunBeforeNextTurn(t *testing.T) {
	agent := mustAgent(t, "greeter", "say hello")
	provider := mock.New(mock.Turn{Text: "should never run"})

	_, err := agentcore.Run(context.Background(), agent, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "hi")},
		agentcore.WithProvider(provider), agentcore.WithStopFunc(func() bool { return true }))
	require.Error(t, err)
	assert.True(t, agentcore.IsKind(err, agentcore.ErrExecutionStopped))
	assert.Empty(t, provider.Calls(), "provider must never be called once StopFunc reports stopped")
}

func TestRunStopFuncAllowsInFlightTurnsUntilTriggered(t *testing.T) {
	loopTool := &agentcore.FunctionTool{
		ToolName: "noop",
		Handler:  func(_ context.Context, _ json.RawMessage) (string, error) { return "ok", nil },
	}
	agent := mustAgent(t, "greeter", "say hello", agentcore.WithTools(loopTool))
	provider := mock.New(
		mock.Turn{ToolCalls: []agentcore.ToolCall{{ID: "1", Name: "noop"}}},
		mock.Turn{Text: "done"},
	)

	calls := 0
	stopAfter := func() bool {
		calls++
		return calls > 1
	}

	_, err := agentcore.Run(context.Background(), agent, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "go")},
		agentcore.WithProvider(provider), agentcore.WithStopFunc(stopAfter))
	require.Error(t, err)
	assert.True(t, agentcore.IsKind(err, agentcore.ErrExecutionStopped))
	assert.Len(t, provider.Calls(), 1, "only the first turn should have reached the provider")
}

func TestRunOutputGuardrailTripwireOnFinalOutput(t *testing.T) {
	agent := mustAgent(t, "greeter", "say hello")
	provider := mock.New(mock.Turn{Text: "classified info: 12345"})

	tripped := agentcore.OutputGuardrail{
		Name: "redact-secrets",
		Func: func(_ context.Context, _ *agentcore.RunContext, _ *agentcore.Agent, output string) (agentcore.GuardrailResult, error) {
			return agentcore.GuardrailResult{TripwireTriggered: true, Reason: "leaked classified info"}, nil
		},
	}

	_, err := agentcore.Run(context.Background(), agent, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "hi")},
		agentcore.WithProvider(provider), agentcore.WithRunLevelOutputGuardrails(tripped))
	require.Error(t, err)
	assert.True(t, agentcore.IsKind(err, agentcore.ErrOutputGuardrailTripped))
}

func TestRunStreamedDeliversCanonicalEventsAndFinalResult(t *testing.T) {
	agent := mustAgent(t, "greeter", "say hello")
	provider := mock.New(mock.Turn{Text: "hi!"})

	streamed := agentcore.RunStreamed(context.Background(), agent,
		[]agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "hi")},
		agentcore.WithProvider(provider))

	var types []string
	for ev := range streamed.Events {
		types = append(types, string(ev.Event.Type))
	}
	result, err := streamed.Wait()
	require.NoError(t, err)
	assert.Equal(t, "hi!", result.FinalOutput)

	require.NotEmpty(t, types)
	assert.Equal(t, "response.created", types[0])
	assert.Equal(t, "response.completed", types[len(types)-1])
}

func TestRunRejectsDuplicateAgentNamesInHandoffGraph(t *testing.T) {
	impostor := mustAgent(t, "billing", "fake billing")
	real := mustAgent(t, "billing", "real billing")
	triage := mustAgent(t, "triage", "route", agentcore.WithHandoffs(impostor))
	triage.Handoffs = append(triage.Handoffs, real)

	provider := mock.New(mock.Turn{Text: "unreachable"})
	_, err := agentcore.Run(context.Background(), triage, []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "hi")},
		agentcore.WithProvider(provider))
	require.Error(t, err)
}
