package tracing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// jsonlVersion is the on-disk format version written into every header,
// grounded on the teacher's TraceHeader.Version (internal/agent/trace.go).
const jsonlVersion = 1

// jsonlHeader is the first line written to a JSONL trace file.
type jsonlHeader struct {
	Version   int       `json:"version"`
	TraceID   string    `json:"trace_id"`
	StartedAt time.Time `json:"started_at"`
}

// jsonlRecord is one line of a JSONL trace file: either a trace-level or
// span-level lifecycle event.
type jsonlRecord struct {
	Kind       string         `json:"kind"` // "trace.started" | "trace.finished" | "span.started" | "span.finished"
	Time       time.Time      `json:"time"`
	SpanID     string         `json:"span_id,omitempty"`
	ParentID   string         `json:"parent_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	SpanKind   SpanKind       `json:"span_kind,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// JSONLProcessor persists a trace's span tree as newline-delimited JSON,
// one record per lifecycle event. It is grounded on the teacher's
// TracePlugin (internal/agent/trace.go): a header written once, a
// mutex-guarded writer, and a flush of the buffered writer after every
// record (the underlying file is not fsynced).
type JSONLProcessor struct {
	mu      sync.Mutex
	w       *bufio.Writer
	closer  io.Closer
	started bool
}

// NewJSONLProcessor wraps an io.Writer (typically an *os.File) as a
// SpanProcessor. If w also implements io.Closer, Close will close it.
func NewJSONLProcessor(w io.Writer) *JSONLProcessor {
	p := &JSONLProcessor{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		p.closer = c
	}
	return p
}

func (p *JSONLProcessor) OnTraceStart(trace *Trace) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		p.writeHeader(trace)
		p.started = true
	}
	p.writeRecord(jsonlRecord{Kind: "trace.started", Time: trace.StartedAt})
}

func (p *JSONLProcessor) OnTraceEnd(trace *Trace) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeRecord(jsonlRecord{Kind: "trace.finished", Time: trace.EndedAt})
	_ = p.w.Flush()
}

func (p *JSONLProcessor) OnSpanStart(span *Span) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeRecord(jsonlRecord{
		Kind:       "span.started",
		Time:       span.StartedAt,
		SpanID:     span.ID,
		ParentID:   span.ParentID,
		Name:       span.Name,
		SpanKind:   span.Kind,
		Attributes: span.Attributes,
	})
}

func (p *JSONLProcessor) OnSpanEnd(span *Span) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := jsonlRecord{
		Kind:       "span.finished",
		Time:       span.EndedAt,
		SpanID:     span.ID,
		ParentID:   span.ParentID,
		Name:       span.Name,
		SpanKind:   span.Kind,
		Attributes: span.Attributes,
	}
	if span.Err != nil {
		rec.Error = span.Err.Error()
	}
	p.writeRecord(rec)
}

func (p *JSONLProcessor) writeHeader(trace *Trace) {
	h := jsonlHeader{Version: jsonlVersion, TraceID: trace.ID, StartedAt: trace.StartedAt}
	data, err := json.Marshal(h)
	if err != nil {
		return
	}
	p.w.Write(data)
	p.w.WriteByte('\n')
}

func (p *JSONLProcessor) writeRecord(rec jsonlRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	p.w.Write(data)
	p.w.WriteByte('\n')
	_ = p.w.Flush()
}

// Close flushes and, if the underlying writer is closable, closes it.
func (p *JSONLProcessor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.w.Flush(); err != nil {
		return err
	}
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// Reader replays a JSONL trace file back into its header and records,
// grounded on the teacher's TraceReader (internal/agent/trace.go).
type Reader struct {
	dec    *json.Decoder
	header jsonlHeader
}

// NewReader reads and validates the header line, then returns a Reader
// positioned at the first record.
func NewReader(r io.Reader) (*Reader, error) {
	dec := json.NewDecoder(r)
	var h jsonlHeader
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("tracing: decode jsonl header: %w", err)
	}
	if h.Version != jsonlVersion {
		return nil, fmt.Errorf("tracing: unsupported jsonl trace version %d", h.Version)
	}
	return &Reader{dec: dec, header: h}, nil
}

// Header returns the parsed header.
func (r *Reader) Header() (traceID string, startedAt time.Time) {
	return r.header.TraceID, r.header.StartedAt
}

// ReadAll decodes every remaining record.
func (r *Reader) ReadAll() ([]jsonlRecord, error) {
	var records []jsonlRecord
	for {
		var rec jsonlRecord
		if err := r.dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return records, nil
			}
			return records, err
		}
		records = append(records, rec)
	}
}
