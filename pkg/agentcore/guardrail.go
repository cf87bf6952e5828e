package agentcore

import (
	"context"
	"fmt"
)

// GuardrailResult is what a guardrail function reports about the input
// or output it inspected.
type GuardrailResult struct {
	TripwireTriggered bool
	Reason            string
	Metadata          map[string]any
}

// InputGuardrailFunc inspects the input about to be sent to an agent
// (the user's message plus conversation history so far) before each of
// its turns.
type InputGuardrailFunc func(ctx context.Context, rc *RunContext, agent *Agent, input []Message) (GuardrailResult, error)

// OutputGuardrailFunc inspects an agent's final output before Run
// returns it to the caller.
type OutputGuardrailFunc func(ctx context.Context, rc *RunContext, agent *Agent, output string) (GuardrailResult, error)

// InputGuardrail pairs a guardrail function with a name used in tracing
// spans and tripwire errors.
type InputGuardrail struct {
	Name string
	Func InputGuardrailFunc
}

// OutputGuardrail pairs a guardrail function with a name.
type OutputGuardrail struct {
	Name string
	Func OutputGuardrailFunc
}

// runInputGuardrails executes run-level guardrails first, then the
// current agent's own, per spec §4.6 ordering; runTurn calls this once
// per turn against whichever agent is active, so a handoff target's own
// InputGuardrails are evaluated on its turns rather than only at run
// start. The first tripwire encountered aborts the run with
// ErrInputGuardrailTripped.
func runInputGuardrails(ctx context.Context, rc *RunContext, agent *Agent, input []Message, runLevel, agentLevel []InputGuardrail) error {
	for _, set := range [][]InputGuardrail{runLevel, agentLevel} {
		for _, g := range set {
			res, err := g.Func(ctx, rc, agent, input)
			if err != nil {
				return newRunError(ErrModelBehavior, agent.Name, 0, fmt.Sprintf("input guardrail %q errored", g.Name), err)
			}
			if res.TripwireTriggered {
				return newRunError(ErrInputGuardrailTripped, agent.Name, 0, tripwireMessage(g.Name, res.Reason), nil)
			}
		}
	}
	return nil
}

// runOutputGuardrails executes run-level guardrails first, then the
// current agent's own, against the run's final output.
func runOutputGuardrails(ctx context.Context, rc *RunContext, agent *Agent, output string, runLevel, agentLevel []OutputGuardrail) error {
	for _, set := range [][]OutputGuardrail{runLevel, agentLevel} {
		for _, g := range set {
			res, err := g.Func(ctx, rc, agent, output)
			if err != nil {
				return newRunError(ErrModelBehavior, agent.Name, 0, fmt.Sprintf("output guardrail %q errored", g.Name), err)
			}
			if res.TripwireTriggered {
				return newRunError(ErrOutputGuardrailTripped, agent.Name, 0, tripwireMessage(g.Name, res.Reason), nil)
			}
		}
	}
	return nil
}

func tripwireMessage(name, reason string) string {
	if reason == "" {
		return "guardrail " + name + " tripped"
	}
	return "guardrail " + name + " tripped: " + reason
}
