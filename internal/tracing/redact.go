package tracing

// Redactor transforms a span's attribute map before it reaches a
// processor. DefaultRedactor is applied whenever a Context is not
// configured with WithSensitiveData(true).
type Redactor func(attrs map[string]any) map[string]any

// sensitiveAttributeKeys are the span attributes that carry model or tool
// payloads rather than structural metadata, grounded on the teacher's
// DefaultRedactor (internal/agent/trace.go), which redacts
// Tool.ArgsJSON/ResultJSON the same way.
var sensitiveAttributeKeys = map[string]bool{
	"agent.instructions": true,
	"agent.input":        true,
	"agent.output":       true,
	"tool.args":          true,
	"tool.result":        true,
}

const redactedPlaceholder = "[REDACTED]"

// DefaultRedactor replaces sensitive attribute values with a fixed
// placeholder, leaving structural attributes (names, IDs, counts)
// untouched.
func DefaultRedactor(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if sensitiveAttributeKeys[k] {
			out[k] = redactedPlaceholder
			continue
		}
		out[k] = v
	}
	return out
}
