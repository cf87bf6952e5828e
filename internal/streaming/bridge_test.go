package streaming

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ctx context.Context, b *Bridge, chunks <-chan ChunkDelta) []Event {
	var events []Event
	for e := range b.Events(ctx, chunks) {
		events = append(events, e)
	}
	return events
}

func TestEventsCanonicalTextOrder(t *testing.T) {
	chunks := make(chan ChunkDelta, 4)
	chunks <- ChunkDelta{TextDelta: "Hel"}
	chunks <- ChunkDelta{TextDelta: "lo"}
	chunks <- ChunkDelta{Done: true}
	close(chunks)

	events := collect(context.Background(), NewBridge(), chunks)
	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{
		EventResponseCreated,
		EventOutputItemAdded,
		EventContentPartAdded,
		EventOutputTextDelta,
		EventOutputTextDelta,
		EventContentPartDone,
		EventOutputItemDone,
		EventResponseCompleted,
	}, types)
}

func TestEventsSequenceStrictlyIncreasingNoGaps(t *testing.T) {
	chunks := make(chan ChunkDelta, 4)
	chunks <- ChunkDelta{TextDelta: "a"}
	chunks <- ChunkDelta{TextDelta: "b"}
	chunks <- ChunkDelta{Done: true}
	close(chunks)

	events := collect(context.Background(), NewBridge(), chunks)
	require.NotEmpty(t, events)
	for i, e := range events {
		assert.Equal(t, uint64(i), e.Sequence)
	}
}

func TestEventsToolCallOpensDistinctItem(t *testing.T) {
	chunks := make(chan ChunkDelta, 4)
	chunks <- ChunkDelta{ToolCall: &ToolCallDelta{Index: 0, ArgumentsDelta: `{"a":1`}}
	chunks <- ChunkDelta{ToolCall: &ToolCallDelta{Index: 0, ArgumentsDelta: `}`}}
	chunks <- ChunkDelta{Done: true}
	close(chunks)

	events := collect(context.Background(), NewBridge(), chunks)
	require.True(t, len(events) >= 5)
	assert.Equal(t, EventOutputItemAdded, events[1].Type)
	assert.Equal(t, "tool_call_0", events[1].ItemID)
	assert.Equal(t, EventResponseCompleted, events[len(events)-1].Type)
}

func TestEventsExactlyOneCreatedAndCompleted(t *testing.T) {
	chunks := make(chan ChunkDelta, 1)
	chunks <- ChunkDelta{Done: true}
	close(chunks)

	events := collect(context.Background(), NewBridge(), chunks)
	created, completed := 0, 0
	for _, e := range events {
		if e.Type == EventResponseCreated {
			created++
		}
		if e.Type == EventResponseCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, completed)
}

func TestEventsFreshCallRestartsSequence(t *testing.T) {
	b := NewBridge()
	chunks1 := make(chan ChunkDelta, 1)
	chunks1 <- ChunkDelta{Done: true}
	close(chunks1)
	first := collect(context.Background(), b, chunks1)

	chunks2 := make(chan ChunkDelta, 1)
	chunks2 <- ChunkDelta{Done: true}
	close(chunks2)
	second := collect(context.Background(), b, chunks2)

	assert.Equal(t, first[0].Sequence, second[0].Sequence, "each call restarts its own sequence from 0")
}
