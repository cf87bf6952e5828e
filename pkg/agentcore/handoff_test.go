package agentcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHandoffToolSignalWinsOverText(t *testing.T) {
	billing, err := NewAgent("billing", Static("handle billing"))
	require.NoError(t, err)
	support, err := NewAgent("support", Static("handle support"))
	require.NoError(t, err)
	triage, err := NewAgent("triage", Static("route"), WithHandoffs(billing, support))
	require.NoError(t, err)

	calls := []ToolCall{{Name: HandoffToolName(billing)}}
	signal, err := detectHandoff(triage, calls, "HANDOFF: support")
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, "billing", signal.Target.Name)
	assert.Equal(t, HandoffViaTool, signal.Via)
}

func TestDetectHandoffTextualFallback(t *testing.T) {
	billing, err := NewAgent("billing", Static("handle billing"))
	require.NoError(t, err)
	triage, err := NewAgent("triage", Static("route"), WithHandoffs(billing))
	require.NoError(t, err)

	signal, err := detectHandoff(triage, nil, "Let me get you to billing.\nHANDOFF: billing")
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, "billing", signal.Target.Name)
	assert.Equal(t, HandoffViaText, signal.Via)
}

func TestDetectHandoffUndeclaredTargetIsFatal(t *testing.T) {
	triage, err := NewAgent("triage", Static("route"))
	require.NoError(t, err)

	_, err = detectHandoff(triage, []ToolCall{{Name: "handoff_to_billing"}}, "")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrHandoffTargetNotFound))

	_, err = detectHandoff(triage, nil, "HANDOFF: billing")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrHandoffTargetNotFound))
}

func TestDetectHandoffNoSignal(t *testing.T) {
	triage, err := NewAgent("triage", Static("route"))
	require.NoError(t, err)

	signal, err := detectHandoff(triage, nil, "All done, nothing further needed.")
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestApplyHandoffFilterDefaultsToFullHistory(t *testing.T) {
	source, err := NewAgent("triage", Static("route"))
	require.NoError(t, err)

	history := []Message{NewMessage(RoleUser, "hi"), NewMessage(RoleAssistant, "routing you")}
	out := applyHandoffFilter(source, &RunContext{}, history)
	assert.Equal(t, history, out)
}

func TestApplyHandoffFilterCustom(t *testing.T) {
	source, err := NewAgent("triage", Static("route"), WithHandoffFilter(func(_ *RunContext, history []Message) []Message {
		if len(history) == 0 {
			return history
		}
		return history[len(history)-1:]
	}))
	require.NoError(t, err)

	history := []Message{NewMessage(RoleUser, "hi"), NewMessage(RoleAssistant, "routing you")}
	out := applyHandoffFilter(source, &RunContext{}, history)
	require.Len(t, out, 1)
	assert.Equal(t, history[1], out[0])
}
