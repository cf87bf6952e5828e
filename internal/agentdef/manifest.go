// Package agentdef loads declarative agent definitions from YAML, so a
// fleet of agents and their handoff relationships can be authored as data
// rather than Go code. Grounded on the teacher's AgentDefinition /
// MultiAgentConfig (internal/multiagent/types.go), narrowed to the fields
// this core's Agent actually has: no tool_policy, swarm_role, or
// depends_on/can_trigger routing metadata, since those belong to the
// teacher's richer swarm scheduler, out of scope for this core (spec
// Non-goals: distributed coordination).
package agentdef

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/orchestrator-core/pkg/agentcore"
)

// AgentSpec is one agent's declarative definition.
type AgentSpec struct {
	Name         string          `yaml:"name"`
	Instructions string          `yaml:"instructions"`
	Model        string          `yaml:"model,omitempty"`
	MaxTurns     int             `yaml:"max_turns,omitempty"`
	Handoffs     []string        `yaml:"handoffs,omitempty"`
	Tools        []string        `yaml:"tools,omitempty"`
	OutputSchema json.RawMessage `yaml:"output_schema,omitempty"`
	Metadata     map[string]any  `yaml:"metadata,omitempty"`
}

// Manifest is a fleet of agents and the entrypoint agent's name.
type Manifest struct {
	DefaultAgent string      `yaml:"default_agent"`
	Agents       []AgentSpec `yaml:"agents"`
}

// Parse decodes a YAML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("agentdef: parse manifest: %w", err)
	}
	if m.DefaultAgent == "" {
		return nil, fmt.Errorf("agentdef: manifest has no default_agent")
	}
	return &m, nil
}

// Build constructs *agentcore.Agent values for every AgentSpec in the
// manifest, wires their Handoffs by name, and returns the default agent.
// toolsByName resolves an agent's tool names (the manifest only names
// tools by string; concrete FunctionTool/HostedTool values must already
// exist in the caller's process) to Tool values — any name not found is a
// build-time error, not a silently-dropped tool.
func Build(m *Manifest, toolsByName map[string]agentcore.Tool) (*agentcore.Agent, map[string]*agentcore.Agent, error) {
	agents := make(map[string]*agentcore.Agent, len(m.Agents))

	// Pass 1: construct every agent with no handoffs wired yet, since
	// handoff targets may be forward-referenced.
	for _, spec := range m.Agents {
		tools := make([]agentcore.Tool, 0, len(spec.Tools))
		for _, toolName := range spec.Tools {
			t, ok := toolsByName[toolName]
			if !ok {
				return nil, nil, fmt.Errorf("agentdef: agent %q references unknown tool %q", spec.Name, toolName)
			}
			tools = append(tools, t)
		}

		a, err := agentcore.NewAgent(spec.Name, agentcore.Static(spec.Instructions),
			agentcore.WithModel(spec.Model),
			agentcore.WithMaxTurns(spec.MaxTurns),
			agentcore.WithTools(tools...),
			agentcore.WithOutputSchema(spec.OutputSchema),
			agentcore.WithMetadata(spec.Metadata),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("agentdef: build agent %q: %w", spec.Name, err)
		}
		agents[spec.Name] = a
	}

	// Pass 2: wire handoffs now that every named target exists. Using
	// Agent.AddHandoff (rather than NewAgent's WithHandoffs option) is
	// what makes mutually-referencing agents (A hands off to B and back)
	// expressible despite Go's lack of forward declarations.
	for _, spec := range m.Agents {
		a := agents[spec.Name]
		for _, targetName := range spec.Handoffs {
			target, ok := agents[targetName]
			if !ok {
				return nil, nil, fmt.Errorf("agentdef: agent %q declares handoff to unknown agent %q", spec.Name, targetName)
			}
			if err := a.AddHandoff(target); err != nil {
				return nil, nil, fmt.Errorf("agentdef: %w", err)
			}
		}
	}

	start, ok := agents[m.DefaultAgent]
	if !ok {
		return nil, nil, fmt.Errorf("agentdef: default_agent %q not found among defined agents", m.DefaultAgent)
	}
	return start, agents, nil
}
