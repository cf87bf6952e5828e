// Package streaming translates raw model-provider streaming deltas into
// the orchestration core's canonical, strictly-ordered event sequence
// (spec §4.8). Rather than the teacher's channel-based
// EventEmitter/atomic-sequence-counter idiom pushed through a goroutine
// (internal/agent/event_emitter.go), the bridge exposes a Go 1.23
// range-over-func iterator: pulling is driven entirely by the consumer,
// which makes the sequence lazy, finite, and restartable (a fresh call
// to Events always begins a new response.created..response.completed
// cycle) per the redesign direction in spec §9 — no background goroutine
// or coroutine-style event queue is required to produce it.
package streaming

import (
	"context"
	"strconv"
	"sync/atomic"
)

// EventType enumerates the canonical streaming event kinds, in the order
// they may legally appear within one turn.
type EventType string

const (
	EventResponseCreated            EventType = "response.created"
	EventOutputItemAdded            EventType = "output_item.added"
	EventContentPartAdded           EventType = "content_part.added"
	EventOutputTextDelta            EventType = "output_text.delta"
	EventRefusalDelta               EventType = "refusal.delta"
	EventContentPartDone            EventType = "content_part.done"
	EventFunctionCallArgumentsDelta EventType = "function_call_arguments.delta"
	EventOutputItemDone             EventType = "output_item.done"
	EventResponseCompleted          EventType = "response.completed"
)

// Event is one step of the canonical streaming sequence. Sequence is
// strictly increasing within a single Events call, with no gaps,
// realizing property P5.
type Event struct {
	Type     EventType
	Sequence uint64
	ItemID   string // "message" for the text item, "tool_call_<index>" for tool-call items
	Delta    string
	Err      error
}

// ToolCallDelta is the tool-call-shaped portion of a provider chunk; a
// single chunk carries either text/refusal content or a tool-call delta
// (or neither, for a pure control chunk), mirroring the teacher's
// CompletionChunk (internal/agent/provider_types.go) generalized to a
// transport-agnostic shape the bridge can consume from any ModelProvider.
type ToolCallDelta struct {
	Index          int
	ID             string // set on the first delta for Index; empty thereafter
	Name           string // set on the first delta for Index; empty thereafter
	ArgumentsDelta string
}

// Usage is the provider-reported token count for one completion, carried
// on the chunk that reports it (typically the one with Done set) so the
// core can thread it into the run's running total without the streaming
// package depending on agentcore's Usage type.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ChunkDelta is one unit from a ModelProvider's streaming response.
type ChunkDelta struct {
	TextDelta     string
	RefusalDelta  string
	ToolCall      *ToolCallDelta
	Usage         Usage
	Done          bool
	Err           error
}

// Bridge holds no state across calls to Events; each call starts a fresh
// sequence counter and item bookkeeping, so a Bridge value is safe to
// reuse across turns and across concurrent runs.
type Bridge struct{}

// NewBridge returns a ready-to-use Bridge.
func NewBridge() *Bridge { return &Bridge{} }

// Events consumes chunks and yields the canonical event sequence for one
// turn. The returned iterator stops early if the consumer's range loop
// breaks, or if ctx is done. When ctx is done, a chunk carries an error,
// or the chunks run out, every output_item.added it has yielded is
// matched by an output_item.done, and every content_part.added by a
// content_part.done, before response.completed. When the consumer
// breaks, nothing further is yielded, so items already opened stay
// unclosed.
func (b *Bridge) Events(ctx context.Context, chunks <-chan ChunkDelta) func(yield func(Event) bool) {
	return func(yield func(Event) bool) {
		var seq uint64
		next := func() uint64 { return atomic.AddUint64(&seq, 1) - 1 }

		emit := func(e Event) bool {
			e.Sequence = next()
			return yield(e)
		}

		if !emit(Event{Type: EventResponseCreated}) {
			return
		}

		var (
			textItemOpen bool
			textPartOpen bool
			toolItemOpen = make(map[int]bool)
			sawErr       error
		)

		closeTextPart := func() bool {
			if textPartOpen {
				if !emit(Event{Type: EventContentPartDone, ItemID: "message"}) {
					return false
				}
				textPartOpen = false
			}
			if textItemOpen {
				if !emit(Event{Type: EventOutputItemDone, ItemID: "message"}) {
					return false
				}
				textItemOpen = false
			}
			return true
		}

		closeToolItems := func() bool {
			for idx, open := range toolItemOpen {
				if !open {
					continue
				}
				itemID := toolItemID(idx)
				if !emit(Event{Type: EventOutputItemDone, ItemID: itemID}) {
					return false
				}
				toolItemOpen[idx] = false
			}
			return true
		}

		finish := func() {
			emit(Event{Type: EventResponseCompleted, Err: sawErr})
		}

	loop:
		for {
			select {
			case <-ctx.Done():
				sawErr = ctx.Err()
				break loop
			case chunk, ok := <-chunks:
				if !ok {
					break loop
				}
				if chunk.Err != nil {
					sawErr = chunk.Err
					break loop
				}

				if chunk.TextDelta != "" || chunk.RefusalDelta != "" {
					if !textItemOpen {
						if !emit(Event{Type: EventOutputItemAdded, ItemID: "message"}) {
							return
						}
						textItemOpen = true
					}
					if !textPartOpen {
						if !emit(Event{Type: EventContentPartAdded, ItemID: "message"}) {
							return
						}
						textPartOpen = true
					}
					if chunk.TextDelta != "" {
						if !emit(Event{Type: EventOutputTextDelta, ItemID: "message", Delta: chunk.TextDelta}) {
							return
						}
					}
					if chunk.RefusalDelta != "" {
						if !emit(Event{Type: EventRefusalDelta, ItemID: "message", Delta: chunk.RefusalDelta}) {
							return
						}
					}
				}

				if chunk.ToolCall != nil {
					idx := chunk.ToolCall.Index
					itemID := toolItemID(idx)
					if !toolItemOpen[idx] {
						if !emit(Event{Type: EventOutputItemAdded, ItemID: itemID}) {
							return
						}
						toolItemOpen[idx] = true
					}
					if chunk.ToolCall.ArgumentsDelta != "" {
						if !emit(Event{Type: EventFunctionCallArgumentsDelta, ItemID: itemID, Delta: chunk.ToolCall.ArgumentsDelta}) {
							return
						}
					}
				}

				if chunk.Done {
					break loop
				}
			}
		}

		if !closeTextPart() {
			return
		}
		if !closeToolItems() {
			return
		}
		finish()
	}
}

func toolItemID(index int) string {
	return "tool_call_" + strconv.Itoa(index)
}
