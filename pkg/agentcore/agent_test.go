package agentcore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) *FunctionTool {
	return &FunctionTool{
		ToolName:        name,
		ToolDescription: "echoes its input",
		ArgsSchema:      json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, args json.RawMessage) (string, error) {
			return string(args), nil
		},
	}
}

func TestNewAgentRejectsMultiWordName(t *testing.T) {
	_, err := NewAgent("billing agent", Static("you handle billing"))
	require.Error(t, err)
}

func TestNewAgentRejectsDuplicateToolNames(t *testing.T) {
	_, err := NewAgent("triage", Static("route requests"),
		WithTools(echoTool("lookup"), echoTool("lookup")))
	require.Error(t, err)
}

func TestNewAgentToolLookup(t *testing.T) {
	a, err := NewAgent("triage", Static("route requests"), WithTools(echoTool("lookup")))
	require.NoError(t, err)

	tool, ok := a.Tool("lookup")
	require.True(t, ok)
	assert.Equal(t, "lookup", tool.Name())

	_, ok = a.Tool("missing")
	assert.False(t, ok)
}

func TestAgentHandoffTarget(t *testing.T) {
	billing, err := NewAgent("billing", Static("handle billing"))
	require.NoError(t, err)
	triage, err := NewAgent("triage", Static("route"), WithHandoffs(billing))
	require.NoError(t, err)

	assert.Same(t, billing, triage.HandoffTarget("billing"))
	assert.Nil(t, triage.HandoffTarget("support"))
}

func TestAgentAddHandoffWiresToolAndRejectsDuplicate(t *testing.T) {
	billing, err := NewAgent("billing", Static("handle billing"))
	require.NoError(t, err)
	triage, err := NewAgent("triage", Static("route"))
	require.NoError(t, err)

	require.NoError(t, triage.AddHandoff(billing))
	assert.Same(t, billing, triage.HandoffTarget("billing"))
	_, ok := triage.Tool(HandoffToolName(billing))
	assert.True(t, ok)

	assert.Error(t, triage.AddHandoff(billing))
}

func TestAgentAddToolRejectsDuplicate(t *testing.T) {
	a, err := NewAgent("triage", Static("route requests"), WithTools(echoTool("lookup")))
	require.NoError(t, err)

	require.NoError(t, a.AddTool(echoTool("other")))
	_, ok := a.Tool("other")
	assert.True(t, ok)

	assert.Error(t, a.AddTool(echoTool("lookup")))
}

func TestAgentToolsAvailable(t *testing.T) {
	bare, err := NewAgent("bare", Static("no tools"))
	require.NoError(t, err)
	assert.False(t, bare.ToolsAvailable())

	tooled, err := NewAgent("tooled", Static("has tools"), WithTools(echoTool("lookup")))
	require.NoError(t, err)
	assert.True(t, tooled.ToolsAvailable())
}

func TestAgentCanHandoffTo(t *testing.T) {
	billing, err := NewAgent("billing", Static("handle billing"))
	require.NoError(t, err)
	triage, err := NewAgent("triage", Static("route"), WithHandoffs(billing))
	require.NoError(t, err)

	assert.True(t, triage.CanHandoffTo("billing"))
	assert.False(t, triage.CanHandoffTo("support"))
}

func TestAgentGetInstructions(t *testing.T) {
	a, err := NewAgent("triage", Static("route requests"))
	require.NoError(t, err)

	text, err := a.GetInstructions(context.Background(), &RunContext{CurrentAgent: a})
	require.NoError(t, err)
	assert.Equal(t, "route requests", text)
}

func TestAgentExecuteTool(t *testing.T) {
	a, err := NewAgent("triage", Static("route requests"), WithTools(echoTool("lookup")))
	require.NoError(t, err)

	out, err := a.ExecuteTool(context.Background(), "lookup", json.RawMessage(`{"q":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"q":1}`, out)

	_, err = a.ExecuteTool(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrToolNotFound))
}

func TestAgentExecuteToolRejectsHostedTool(t *testing.T) {
	hosted := &HostedTool{ToolName: "web_search"}
	a, err := NewAgent("researcher", Static("search the web"), WithTools(hosted))
	require.NoError(t, err)

	_, err = a.ExecuteTool(context.Background(), "web_search", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrModelBehavior))
}

func TestResolveInstructionsStaticAndDynamic(t *testing.T) {
	text, err := resolveInstructions(context.Background(), &RunContext{}, Static("fixed"))
	require.NoError(t, err)
	assert.Equal(t, "fixed", text)

	dyn := Dynamic(func(_ context.Context, rc *RunContext) (string, error) {
		return "computed for " + rc.CurrentAgent.Name, nil
	})
	agent, err := NewAgent("dyn", dyn)
	require.NoError(t, err)
	text, err = resolveInstructions(context.Background(), &RunContext{CurrentAgent: agent}, agent.Instructions)
	require.NoError(t, err)
	assert.Equal(t, "computed for dyn", text)
}
