// Package anthropic adapts github.com/anthropics/anthropic-sdk-go to
// agentcore.ModelProvider, grounded on the teacher's AnthropicProvider
// (internal/agent/providers/anthropic.go) narrowed to the core's
// CompletionRequest/streaming.ChunkDelta shapes rather than nexus's
// richer CompletionRequest (no attachments, no extended thinking, no
// beta computer-use tool conversion — none of those are part of this
// core's domain).
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/haasonsaas/orchestrator-core/internal/streaming"
	"github.com/haasonsaas/orchestrator-core/pkg/agentcore"
)

// Config configures a Provider.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
	MaxTokens    int
}

// Provider implements agentcore.ModelProvider over the Anthropic Messages API.
type Provider struct {
	client       anthropic.Client
	maxRetries   int
	retryDelay   time.Duration
	defaultModel string
	maxTokens    int
}

// New constructs a Provider. APIKey is required.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		client:       anthropic.NewClient(opts...),
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		defaultModel: cfg.DefaultModel,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

func (p *Provider) Name() string { return "anthropic" }

// Complete starts a streaming Messages request and translates Anthropic's
// SSE event stream into the core's ChunkDelta shape, with the same
// exponential-backoff connection retry as the teacher's provider (the
// retry here covers establishing the stream; once streaming has begun, a
// mid-stream error is surfaced as a single error chunk, not retried, so
// partial output already sent to the caller is never silently repeated).
func (p *Provider) Complete(ctx context.Context, req agentcore.CompletionRequest) (<-chan streaming.ChunkDelta, error) {
	chunks := make(chan streaming.ChunkDelta)

	go func() {
		defer close(chunks)

		messages, err := convertMessages(req.Messages)
		if err != nil {
			chunks <- streaming.ChunkDelta{Err: fmt.Errorf("anthropic: convert messages: %w", err)}
			return
		}

		tools, err := convertTools(req.Tools)
		if err != nil {
			chunks <- streaming.ChunkDelta{Err: fmt.Errorf("anthropic: convert tools: %w", err)}
			return
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(p.model(req.Model)),
			Messages:  messages,
			MaxTokens: int64(p.maxTokensFor(req.MaxTokens)),
		}
		if req.Instructions != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
		}
		if len(tools) > 0 {
			params.Tools = tools
		}

		var stream *ssestream.Stream[anthropic.MessageStreamEventUnion]

		for attempt := 0; attempt <= p.maxRetries; attempt++ {
			stream = p.client.Messages.NewStreaming(ctx, params)
			if stream.Err() == nil {
				break
			}
			if attempt == p.maxRetries {
				chunks <- streaming.ChunkDelta{Err: fmt.Errorf("anthropic: max retries exceeded: %w", stream.Err())}
				return
			}
			backoff := time.Duration(float64(p.retryDelay) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				chunks <- streaming.ChunkDelta{Err: ctx.Err()}
				return
			case <-time.After(backoff):
			}
		}

		processStream(stream, chunks)
	}()

	return chunks, nil
}

func (p *Provider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}

func (p *Provider) maxTokensFor(requested int) int {
	if requested > 0 {
		return requested
	}
	return p.maxTokens
}

// processStream drains an Anthropic SSE stream, forwarding each tool-call
// argument fragment tagged with its content-block index (the fragments
// are joined downstream, not here), grounded on the teacher's
// processStream (internal/agent/providers/anthropic.go): a string-typed
// event.Type switch with AsXxx() accessors, not a type switch on
// event.AsAny().
func processStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], chunks chan<- streaming.ChunkDelta) {
	var inputTokens, outputTokens int64

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			if usage := event.AsMessageStart().Message.Usage; usage.InputTokens > 0 {
				inputTokens = usage.InputTokens
			}

		case "content_block_start":
			start := event.AsContentBlockStart()
			if start.ContentBlock.Type == "tool_use" {
				toolUse := start.ContentBlock.AsToolUse()
				chunks <- streaming.ChunkDelta{ToolCall: &streaming.ToolCallDelta{
					Index: int(start.Index),
					ID:    toolUse.ID,
					Name:  toolUse.Name,
				}}
			}

		case "content_block_delta":
			blockDelta := event.AsContentBlockDelta()
			switch blockDelta.Delta.Type {
			case "text_delta":
				if text := blockDelta.Delta.Text; text != "" {
					chunks <- streaming.ChunkDelta{TextDelta: text}
				}
			case "input_json_delta":
				if partial := blockDelta.Delta.PartialJSON; partial != "" {
					chunks <- streaming.ChunkDelta{ToolCall: &streaming.ToolCallDelta{
						Index:          int(blockDelta.Index),
						ArgumentsDelta: partial,
					}}
				}
			}

		case "message_delta":
			if usage := event.AsMessageDelta().Usage; usage.OutputTokens > 0 {
				outputTokens = usage.OutputTokens
			}

		case "message_stop":
			chunks <- streaming.ChunkDelta{
				Done:  true,
				Usage: streaming.Usage{InputTokens: int(inputTokens), OutputTokens: int(outputTokens)},
			}
			return

		case "error":
			chunks <- streaming.ChunkDelta{Err: errors.New("anthropic: server-side stream error")}
			return
		}
	}

	if err := stream.Err(); err != nil {
		chunks <- streaming.ChunkDelta{Err: err}
	}
}

func convertMessages(messages []agentcore.Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case agentcore.RoleUser, agentcore.RoleSystem:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case agentcore.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case agentcore.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		default:
			return nil, fmt.Errorf("anthropic: unknown role %q", m.Role)
		}
	}
	return out, nil
}

func convertTools(tools []agentcore.Tool) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Schema(), &schema); err != nil {
			return nil, fmt.Errorf("anthropic: tool %q schema: %w", t.Name(), err)
		}

		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name())
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("anthropic: tool %q schema: missing tool definition", t.Name())
		}
		toolParam.OfTool.Description = anthropic.String(t.Description())

		out = append(out, toolParam)
	}
	return out, nil
}
