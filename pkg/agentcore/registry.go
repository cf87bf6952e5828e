package agentcore

import (
	"sync"
)

// toolRegistry is a thread-safe, per-agent lookup of that agent's tools
// by name, grounded on the teacher's ToolRegistry
// (internal/agent/tool_registry.go) narrowed to what ToolDispatcher
// needs: lookup, not registration of arbitrary global tools. Dispatch
// builds a fresh registry from agent.Tools on every call, so tools added
// with AddTool or AddHandoff are included.
type toolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func newToolRegistry(tools []Tool) *toolRegistry {
	r := &toolRegistry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

func (r *toolRegistry) get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}
