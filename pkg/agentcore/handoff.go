package agentcore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// handoffToolPrefix names the reserved tool-based handoff signal: a tool
// call named "handoff_to_<agent>" is how an assistant message hands the
// conversation to another declared agent, grounded on the teacher's
// HandoffToolInput (internal/multiagent/types.go) — target agent named
// by the call, not by its return value, which the tool-based path here
// preserves by keying off the call itself rather than parsing output.
const handoffToolPrefix = "handoff_to_"

// textualHandoffPattern is the second, lower-priority handoff signal:
// plain text of the form "HANDOFF: <agent>" in the assistant's content.
// Per spec, if both a tool-based and a textual signal appear in the same
// turn, the tool-based signal wins.
var textualHandoffPattern = regexp.MustCompile(`HANDOFF:\s*(\w+)`)

// HandoffToolName returns the reserved tool name that signals a handoff
// to target.
func HandoffToolName(target *Agent) string { return handoffToolPrefix + target.Name }

// BuildHandoffTool constructs the FunctionTool that offers the model a
// handoff to target; AddHandoff lists it among the agent's Tools.
// detectHandoff keys off the call name alone, so a call named
// HandoffToolName(target) signals the handoff whether or not the tool is
// listed, and the tool's return value is never inspected.
func BuildHandoffTool(target *Agent) *FunctionTool {
	return &FunctionTool{
		ToolName:        HandoffToolName(target),
		ToolDescription: fmt.Sprintf("Transfer the conversation to the %s agent.", target.Name),
		ArgsSchema:      json.RawMessage(`{"type":"object","properties":{"reason":{"type":"string"}}}`),
		Handler: func(_ context.Context, _ json.RawMessage) (string, error) {
			return "", nil
		},
	}
}

// HandoffVia identifies which of the two signal types triggered a handoff.
type HandoffVia string

const (
	HandoffViaTool HandoffVia = "tool"
	HandoffViaText HandoffVia = "text"
)

// HandoffSignal is the outcome of scanning one turn's output for a
// handoff.
type HandoffSignal struct {
	Target *Agent
	Via    HandoffVia
}

// detectHandoff implements HandoffDetector: it scans tool calls first
// (tool-based signal), then, only if none matched, the assistant's text
// content (textual signal). A recognized but undeclared target is a
// fatal HandoffTargetNotFound, not a silently ignored signal.
func detectHandoff(agent *Agent, calls []ToolCall, content string) (*HandoffSignal, error) {
	for _, call := range calls {
		if !strings.HasPrefix(call.Name, handoffToolPrefix) {
			continue
		}
		name := strings.TrimPrefix(call.Name, handoffToolPrefix)
		target := agent.HandoffTarget(name)
		if target == nil {
			return nil, newRunError(ErrHandoffTargetNotFound, agent.Name, 0,
				fmt.Sprintf("handoff target %q is not declared on agent %q", name, agent.Name), nil)
		}
		return &HandoffSignal{Target: target, Via: HandoffViaTool}, nil
	}

	if m := textualHandoffPattern.FindStringSubmatch(content); m != nil {
		name := m[1]
		target := agent.HandoffTarget(name)
		if target == nil {
			return nil, newRunError(ErrHandoffTargetNotFound, agent.Name, 0,
				fmt.Sprintf("handoff target %q is not declared on agent %q", name, agent.Name), nil)
		}
		return &HandoffSignal{Target: target, Via: HandoffViaText}, nil
	}

	return nil, nil
}

// applyHandoffFilter narrows the conversation history handed to the
// target agent. A nil filter on the source agent means
// ContextSharingFull: history transfers unmodified.
func applyHandoffFilter(source *Agent, rc *RunContext, history []Message) []Message {
	if source.HandoffFilter == nil {
		return history
	}
	return source.HandoffFilter(rc, history)
}
