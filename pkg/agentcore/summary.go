package agentcore

import (
	"context"
	"strings"
)

// SummarizationConfig tunes NewSummaryHandoffFilter, grounded on the
// teacher's SummarizationConfig (internal/agent/context/summarize.go).
type SummarizationConfig struct {
	// KeepRecent is how many of the most recent messages transfer to the
	// target agent verbatim; everything older is collapsed into one
	// synthesized summary message. Default: 10.
	KeepRecent int

	// Model, if set, overrides the summarizing CompletionRequest's model;
	// empty uses the provider's own default.
	Model string
}

// NewSummaryHandoffFilter builds a HandoffFilter realizing
// ContextSharingSummary: it keeps the last cfg.KeepRecent messages
// unmodified and replaces everything older with a single system message
// containing a model-generated summary, grounded on the teacher's
// Summarizer.Summarize (internal/agent/context/summarize.go), adapted
// from the teacher's SummaryProvider interface to this core's
// ModelProvider so no second abstraction is needed for one call.
//
// If history is already no longer than cfg.KeepRecent, or the
// summarizing call fails, the filter falls back to passing the full
// history through unfiltered rather than losing context.
func NewSummaryHandoffFilter(provider ModelProvider, cfg SummarizationConfig) HandoffFilter {
	if cfg.KeepRecent <= 0 {
		cfg.KeepRecent = 10
	}

	return func(rc *RunContext, history []Message) []Message {
		if len(history) <= cfg.KeepRecent {
			return history
		}

		older := history[:len(history)-cfg.KeepRecent]
		recent := history[len(history)-cfg.KeepRecent:]

		// HandoffFilter (spec §3.1) carries no context.Context of its own;
		// context.Background() is the narrowest correct choice here rather
		// than widening the public HandoffFilter signature for one caller.
		summary, err := summarize(context.Background(), provider, cfg.Model, older)
		if err != nil {
			return history
		}

		out := make([]Message, 0, len(recent)+1)
		out = append(out, NewMessage(RoleSystem, "Summary of earlier conversation: "+summary))
		out = append(out, recent...)
		return out
	}
}

func summarize(ctx context.Context, provider ModelProvider, model string, messages []Message) (string, error) {
	var transcript strings.Builder
	for _, m := range messages {
		transcript.WriteString(string(m.Role))
		transcript.WriteString(": ")
		transcript.WriteString(m.Content)
		transcript.WriteString("\n")
	}

	req := CompletionRequest{
		Model:        model,
		Instructions: "Summarize the following conversation concisely, preserving facts and decisions relevant to continuing it.",
		Messages:     []Message{NewMessage(RoleUser, transcript.String())},
	}

	chunks, err := provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for c := range chunks {
		if c.Err != nil {
			return "", c.Err
		}
		text.WriteString(c.TextDelta)
	}
	return text.String(), nil
}
