package agentcore

import (
	"github.com/haasonsaas/orchestrator-core/internal/tracing"
)

// RunContext threads per-run state through every component: an opaque
// user value, the active trace, which agent currently
// owns the conversation, and that agent's turn counter. Grounded on the
// teacher's LoopState (internal/agent/loop.go), narrowed to the fields
// the core itself needs rather than nexus's session/branch/job fields.
type RunContext struct {
	// UserData is opaque state that guardrails and dynamic instructions
	// can read through the RunContext. The core never reads or writes it;
	// Run and RunStreamed leave it nil, and tool handlers do not receive
	// the RunContext.
	UserData any

	Trace *tracing.Context

	// CurrentAgent is the agent owning the active turn.
	CurrentAgent *Agent

	// Turn is the 0-based turn counter within CurrentAgent's assignment.
	// Invariant R1: monotonic within one agent's assignment, reset to 0
	// whenever a handoff changes CurrentAgent.
	Turn int

	// History is the full message transcript accumulated so far.
	History []Message

	Usage Usage
}

// Usage aggregates token counts across every turn of a run, grounded on
// the teacher's StatsCollector/RunStats (internal/agent/event_emitter.go).
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// TotalTokens is the sum of input and output tokens.
func (u Usage) TotalTokens() int { return u.InputTokens + u.OutputTokens }

// add accumulates u2 into u.
func (u *Usage) add(u2 Usage) {
	u.InputTokens += u2.InputTokens
	u.OutputTokens += u2.OutputTokens
}

// handoffTo switches the active agent and resets the turn counter,
// realizing invariant R1.
func (rc *RunContext) handoffTo(target *Agent) {
	rc.CurrentAgent = target
	rc.Turn = 0
}
