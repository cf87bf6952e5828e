package agentcore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/orchestrator-core/internal/provider/mock"
	"github.com/haasonsaas/orchestrator-core/pkg/agentcore"
)

func TestSummaryHandoffFilterCollapsesOlderHistory(t *testing.T) {
	provider := mock.New(mock.Turn{Text: "user asked about billing; agent confirmed account is in good standing"})
	filter := agentcore.NewSummaryHandoffFilter(provider, agentcore.SummarizationConfig{KeepRecent: 2})

	history := make([]agentcore.Message, 0, 10)
	for i := 0; i < 10; i++ {
		history = append(history, agentcore.NewMessage(agentcore.RoleUser, "message"))
	}

	out := filter(&agentcore.RunContext{}, history)
	require.Len(t, out, 3) // 1 summary message + 2 kept recent
	assert.Equal(t, agentcore.RoleSystem, out[0].Role)
	assert.Contains(t, out[0].Content, "good standing")
}

func TestSummaryHandoffFilterPassesShortHistoryThrough(t *testing.T) {
	provider := mock.New(mock.Turn{Text: "unused"})
	filter := agentcore.NewSummaryHandoffFilter(provider, agentcore.SummarizationConfig{KeepRecent: 10})

	history := []agentcore.Message{agentcore.NewMessage(agentcore.RoleUser, "hi")}
	out := filter(&agentcore.RunContext{}, history)
	assert.Equal(t, history, out)
}
