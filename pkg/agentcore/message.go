package agentcore

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role identifies a message's author, grounded on the teacher's
// pkg/models.Role: a uniform string-role convention resolves the spec's
// Open Question about message-key form (see DESIGN.md).
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one turn of conversation history. Tool-role messages must
// set ToolCallID to the originating ToolCall.ID (invariant M1).
type Message struct {
	ID         string         `json:"id"`
	Role       Role           `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	AgentName  string         `json:"agent_name,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewMessage builds a Message with a fresh ID and CreatedAt stamp.
func NewMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content, CreatedAt: time.Now()}
}

// ToolCall is a single provider-emitted request to execute a tool. Calls
// within one assistant message are dispatched in the order they appear
// here (spec §4.4 ordering guarantee).
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the outcome of executing a ToolCall.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// ToMessage renders a ToolResult as the tool-role Message appended to
// conversation history after dispatch.
func (r ToolResult) ToMessage() Message {
	m := NewMessage(RoleTool, r.Content)
	m.ToolCallID = r.ToolCallID
	return m
}
