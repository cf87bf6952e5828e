package agentdef_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/orchestrator-core/internal/agentdef"
	"github.com/haasonsaas/orchestrator-core/pkg/agentcore"
)

const twoAgentManifest = `
default_agent: triage
agents:
  - name: triage
    instructions: route the request
    handoffs: [billing]
  - name: billing
    instructions: handle billing
    model: claude-sonnet-4-20250514
    max_turns: 5
    tools: [lookup_invoice]
`

func TestParseAndBuildWiresHandoffsAndTools(t *testing.T) {
	m, err := agentdef.Parse([]byte(twoAgentManifest))
	require.NoError(t, err)
	assert.Equal(t, "triage", m.DefaultAgent)

	lookup := &agentcore.FunctionTool{
		ToolName:   "lookup_invoice",
		ArgsSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
			return "ok", nil
		},
	}

	start, agents, err := agentdef.Build(m, map[string]agentcore.Tool{"lookup_invoice": lookup})
	require.NoError(t, err)
	assert.Equal(t, "triage", start.Name)
	require.Len(t, agents, 2)

	billing := agents["billing"]
	require.NotNil(t, billing)
	assert.Equal(t, "claude-sonnet-4-20250514", billing.Model)
	assert.Equal(t, 5, billing.MaxTurns)
	_, hasTool := billing.Tool("lookup_invoice")
	assert.True(t, hasTool)

	assert.NotNil(t, start.HandoffTarget("billing"))
}

func TestBuildRejectsUnknownTool(t *testing.T) {
	m, err := agentdef.Parse([]byte(`
default_agent: a
agents:
  - name: a
    instructions: x
    tools: [does_not_exist]
`))
	require.NoError(t, err)

	_, _, err = agentdef.Build(m, map[string]agentcore.Tool{})
	require.Error(t, err)
}

func TestBuildRejectsUnknownHandoffTarget(t *testing.T) {
	m, err := agentdef.Parse([]byte(`
default_agent: a
agents:
  - name: a
    instructions: x
    handoffs: [ghost]
`))
	require.NoError(t, err)

	_, _, err = agentdef.Build(m, nil)
	require.Error(t, err)
}

func TestParseRequiresDefaultAgent(t *testing.T) {
	_, err := agentdef.Parse([]byte(`agents: []`))
	require.Error(t, err)
}
