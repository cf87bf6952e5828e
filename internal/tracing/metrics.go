package tracing

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsProcessor records run/span counters and durations as Prometheus
// metrics, grounded on the teacher's ExecutorMetrics
// (internal/agent/executor.go) generalized from an ad hoc counter struct
// to real prometheus collectors.
type MetricsProcessor struct {
	spanDuration *prometheus.HistogramVec
	spanErrors   *prometheus.CounterVec
	tracesTotal  prometheus.Counter
}

// NewMetricsProcessor registers its collectors on reg (use
// prometheus.NewRegistry() in tests to avoid collisions with the default
// registry).
func NewMetricsProcessor(reg prometheus.Registerer) *MetricsProcessor {
	p := &MetricsProcessor{
		spanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "agentcore_span_duration_seconds",
			Help: "Duration of orchestration core spans by kind.",
		}, []string{"kind"}),
		spanErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcore_span_errors_total",
			Help: "Count of spans that ended with an error, by kind.",
		}, []string{"kind"}),
		tracesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentcore_traces_total",
			Help: "Count of runs (traces) started.",
		}),
	}
	reg.MustRegister(p.spanDuration, p.spanErrors, p.tracesTotal)
	return p
}

func (p *MetricsProcessor) OnTraceStart(*Trace) { p.tracesTotal.Inc() }
func (p *MetricsProcessor) OnTraceEnd(*Trace)   {}

func (p *MetricsProcessor) OnSpanStart(*Span) {}

func (p *MetricsProcessor) OnSpanEnd(span *Span) {
	if !span.EndedAt.IsZero() {
		p.spanDuration.WithLabelValues(string(span.Kind)).Observe(span.EndedAt.Sub(span.StartedAt).Seconds())
	}
	if span.Err != nil {
		p.spanErrors.WithLabelValues(string(span.Kind)).Inc()
	}
}
