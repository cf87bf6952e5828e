package agentcore

import (
	"context"

	"github.com/haasonsaas/orchestrator-core/internal/streaming"
)

// ModelProvider is the external interface to an LLM backend (spec §6).
// The core depends only on this interface; internal/provider contains
// concrete adapters (mock, Anthropic, OpenAI).
type ModelProvider interface {
	// Complete starts a streaming completion and returns a channel of
	// deltas; the channel is closed when the provider has sent its final
	// chunk (Done=true) or an error chunk.
	Complete(ctx context.Context, req CompletionRequest) (<-chan streaming.ChunkDelta, error)

	// Name identifies the provider for tracing attributes (e.g. "anthropic").
	Name() string
}

// CompletionRequest is everything a ModelProvider needs for one turn's
// model call, grounded on the teacher's CompletionRequest
// (internal/agent/provider_types.go).
type CompletionRequest struct {
	Model        string
	Instructions string
	Messages     []Message
	Tools        []Tool
	MaxTokens    int
}
