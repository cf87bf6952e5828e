// Package mock implements a scripted agentcore.ModelProvider for tests,
// grounded on the teacher's test doubles (internal/agent/*_test.go use
// hand-built fake LLMProviders rather than a shared package; this one is
// promoted to a reusable internal package since agentcore's own tests and
// a future cmd smoke test both need it).
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/haasonsaas/orchestrator-core/internal/streaming"
	"github.com/haasonsaas/orchestrator-core/pkg/agentcore"
)

// Turn is one scripted response: either plain text (no tool calls, ending
// the run if no handoff tool is among ToolCalls) or one or more tool
// calls for the dispatcher to execute.
type Turn struct {
	Text      string
	ToolCalls []agentcore.ToolCall
}

// Provider replays a fixed script of Turns in order, one per Complete
// call, regardless of which agent or what messages it receives. Calling
// Complete more times than len(Script) returns an error chunk, which
// surfaces as a ProviderError — useful for asserting a run terminates
// within the expected number of turns.
type Provider struct {
	mu     sync.Mutex
	script []Turn
	next   int
	calls  []agentcore.CompletionRequest
}

// New returns a Provider that replays script in order.
func New(script ...Turn) *Provider {
	return &Provider{script: script}
}

func (p *Provider) Name() string { return "mock" }

// Calls returns every CompletionRequest received so far, for assertions
// about what the runner built (instructions, history, tools).
func (p *Provider) Calls() []agentcore.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]agentcore.CompletionRequest(nil), p.calls...)
}

func (p *Provider) Complete(_ context.Context, req agentcore.CompletionRequest) (<-chan streaming.ChunkDelta, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	idx := p.next
	p.next++
	p.mu.Unlock()

	chunks := make(chan streaming.ChunkDelta, 8)
	if idx >= len(p.script) {
		chunks <- streaming.ChunkDelta{Err: fmt.Errorf("mock: script exhausted after %d turns", idx)}
		close(chunks)
		return chunks, nil
	}

	turn := p.script[idx]
	go func() {
		defer close(chunks)
		if turn.Text != "" {
			chunks <- streaming.ChunkDelta{TextDelta: turn.Text}
		}
		for i, call := range turn.ToolCalls {
			chunks <- streaming.ChunkDelta{ToolCall: &streaming.ToolCallDelta{
				Index: i,
				ID:    call.ID,
				Name:  call.Name,
			}}
			if len(call.Input) > 0 {
				chunks <- streaming.ChunkDelta{ToolCall: &streaming.ToolCallDelta{
					Index:          i,
					ArgumentsDelta: string(call.Input),
				}}
			}
		}
		chunks <- streaming.ChunkDelta{Done: true}
	}()
	return chunks, nil
}
