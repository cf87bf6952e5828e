// Package tracing implements the orchestration core's span tree: a
// stack-based model of nested spans rooted at a trace, with fan-out to
// pluggable processors. Unlike the teacher's observability package, which
// delegates span management entirely to OpenTelemetry, the stack and
// re-rooting discipline here are native — the spec requires the nesting
// and re-rooting behavior itself, not just an exporter.
package tracing

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SpanKind classifies what a span represents in the run.
type SpanKind string

const (
	SpanKindAgent      SpanKind = "agent"
	SpanKindTurn       SpanKind = "turn"
	SpanKindGeneration SpanKind = "generation"
	SpanKindTool       SpanKind = "tool"
	SpanKindHandoff    SpanKind = "handoff"
	SpanKindGuardrail  SpanKind = "guardrail"
)

// Span is one node in the trace's span tree.
type Span struct {
	ID         string
	TraceID    string
	ParentID   string // empty for a root span
	Name       string // e.g. "agent.triage", "tool.get_weather"
	Kind       SpanKind
	StartedAt  time.Time
	EndedAt    time.Time
	Attributes map[string]any
	Err        error
}

// SetAttribute records a key on the span. Safe to call only from the
// goroutine that owns the enclosing run; spans are not shared across runs.
func (s *Span) SetAttribute(key string, value any) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]any)
	}
	s.Attributes[key] = value
}

// Trace is the root of one run's span tree.
type Trace struct {
	ID           string
	WorkflowName string
	StartedAt    time.Time
	EndedAt      time.Time
	Metadata     map[string]any
}

// NewTraceID generates a trace identifier in the "trace_<32 hex>" form.
func NewTraceID() string {
	return "trace_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newSpanID() string {
	return "span_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SpanProcessor receives span and trace lifecycle notifications. A
// processor must not block the run for long and must not panic; Context
// isolates each processor so one misbehaving processor cannot break
// tracing for the others or for the run itself.
type SpanProcessor interface {
	OnTraceStart(trace *Trace)
	OnTraceEnd(trace *Trace)
	OnSpanStart(span *Span)
	OnSpanEnd(span *Span)
}

// Context is a single run's trace context: the active trace plus the
// stack of currently-open spans. It is not safe for concurrent use from
// multiple goroutines, matching the core's single-task-per-run scheduling
// model (spec §5).
type Context struct {
	trace                *Trace
	processors            []SpanProcessor
	stack                 []*Span
	includeSensitiveData  bool
	logger                *slog.Logger
}

// Option configures a Context at construction.
type Option func(*Context)

// WithProcessors registers the given processors for span/trace fan-out.
func WithProcessors(procs ...SpanProcessor) Option {
	return func(c *Context) { c.processors = append(c.processors, procs...) }
}

// WithSensitiveData controls whether span attributes such as agent
// instructions and raw tool input/output are retained verbatim. When
// false (the default), processors receive redacted copies; this mirrors
// trace_include_sensitive_data from spec.md §6.
func WithSensitiveData(include bool) Option {
	return func(c *Context) { c.includeSensitiveData = include }
}

// WithLogger sets the logger used to report processor failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// New starts a new trace and returns its Context. The trace begins
// immediately; call End when the run completes.
func New(workflowName string, opts ...Option) *Context {
	c := &Context{
		trace: &Trace{
			ID:           NewTraceID(),
			WorkflowName: workflowName,
			StartedAt:    time.Now(),
			Metadata:     make(map[string]any),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fanOutTraceStart()
	return c
}

// TraceID returns the ID of the active trace.
func (c *Context) TraceID() string { return c.trace.ID }

// End finalizes the trace and notifies processors.
func (c *Context) End() {
	c.trace.EndedAt = time.Now()
	c.fanOutTraceEnd()
}

// StartSpan opens a span as a child of whatever is currently on top of
// the stack (or as a root span if the stack is empty) and pushes it.
func (c *Context) StartSpan(name string, kind SpanKind) *Span {
	parentID := ""
	if len(c.stack) > 0 {
		parentID = c.stack[len(c.stack)-1].ID
	}
	span := &Span{
		ID:         newSpanID(),
		TraceID:    c.trace.ID,
		ParentID:   parentID,
		Name:       name,
		Kind:       kind,
		StartedAt:  time.Now(),
		Attributes: make(map[string]any),
	}
	c.stack = append(c.stack, span)
	c.fanOutSpanStart(span)
	return span
}

// EndSpan closes the span at the top of the stack. It is the caller's
// responsibility to end spans in LIFO order (via WithSpan/WithRootSpan
// this is structural and cannot be violated).
func (c *Context) EndSpan(span *Span, err error) {
	span.EndedAt = time.Now()
	span.Err = err
	if len(c.stack) > 0 && c.stack[len(c.stack)-1].ID == span.ID {
		c.stack = c.stack[:len(c.stack)-1]
	}
	c.fanOutSpanEnd(span)
}

// WithSpan opens a span as a child of the current stack top, runs fn,
// and closes the span with fn's error.
func (c *Context) WithSpan(name string, kind SpanKind, fn func(*Span) error) error {
	span := c.StartSpan(name, kind)
	err := fn(span)
	c.EndSpan(span, err)
	return err
}

// WithRootSpan saves and clears the current span stack, opens a new root
// span (no parent), runs fn, closes the span, and restores the saved
// stack. This realizes the per-turn "agent span re-rooting" operation
// from spec §4.7: each turn's agent.<name> span is a sibling of the
// previous turn's, not nested under it, even though within a turn tool
// and generation spans nest normally under it.
func (c *Context) WithRootSpan(name string, kind SpanKind, fn func(*Span) error) error {
	saved := c.stack
	c.stack = nil
	span := c.StartSpan(name, kind)
	err := fn(span)
	c.EndSpan(span, err)
	c.stack = saved
	return err
}

// redactedAttributes returns a's attributes, or their redacted form if
// the context was not configured to include sensitive data.
func (c *Context) redactedAttributes(attrs map[string]any) map[string]any {
	if c.includeSensitiveData {
		return attrs
	}
	return DefaultRedactor(attrs)
}

func (c *Context) fanOutTraceStart() {
	for _, p := range c.processors {
		c.safe(func() { p.OnTraceStart(c.trace) })
	}
}

func (c *Context) fanOutTraceEnd() {
	for _, p := range c.processors {
		c.safe(func() { p.OnTraceEnd(c.trace) })
	}
}

func (c *Context) fanOutSpanStart(span *Span) {
	view := c.viewFor(span)
	for _, p := range c.processors {
		c.safe(func() { p.OnSpanStart(view) })
	}
}

func (c *Context) fanOutSpanEnd(span *Span) {
	view := c.viewFor(span)
	for _, p := range c.processors {
		c.safe(func() { p.OnSpanEnd(view) })
	}
}

// viewFor returns a copy of span whose attributes are subject to
// redaction, so a processor cannot mutate the run's live span state.
func (c *Context) viewFor(span *Span) *Span {
	cp := *span
	cp.Attributes = c.redactedAttributes(span.Attributes)
	return &cp
}

func (c *Context) safe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("tracing processor panicked", "recover", r)
		}
	}()
	fn()
}
