package observability

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentcore/sentinel/internal/agent"
)

// SlogObserver adapts Logger to the agent.Observer interface, so turn-loop
// lifecycle events flow through the same structured, redacting logger as
// everything else.
type SlogObserver struct {
	logger *Logger
}

// NewSlogObserver wraps logger as an agent.Observer. A nil logger falls back
// to a default JSON logger on stdout.
func NewSlogObserver(logger *Logger) *SlogObserver {
	if logger == nil {
		logger = NewLogger(LogConfig{})
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) LLMRequest(provider, model string, messagesCount int) {
	o.logger.Info(context.Background(), "llm request",
		"provider", provider, "model", model, "messages", messagesCount)
}

func (o *SlogObserver) LLMResponse(provider, model string, duration time.Duration, success bool, errMsg string) {
	if success {
		o.logger.Info(context.Background(), "llm response",
			"provider", provider, "model", model, "duration_ms", duration.Milliseconds())
		return
	}
	o.logger.Error(context.Background(), "llm response failed",
		"provider", provider, "model", model, "duration_ms", duration.Milliseconds(), "error", errMsg)
}

func (o *SlogObserver) ToolCallStart(tool string) {
	o.logger.Debug(context.Background(), "tool call start", "tool", tool)
}

func (o *SlogObserver) ToolCallEnd(tool string, duration time.Duration, success bool) {
	level := o.logger.Info
	if !success {
		level = o.logger.Error
	}
	level(context.Background(), "tool call end", "tool", tool, "duration_ms", duration.Milliseconds(), "success", success)
}

var _ agent.Observer = (*SlogObserver)(nil)

// PrometheusObserver adapts Metrics to the agent.Observer interface, tracking
// turn-loop lifecycle events as counters and histograms. model is carried
// across LLMRequest/LLMResponse via a per-call label since ChatWithTools
// doesn't thread a request id through the pair.
type PrometheusObserver struct {
	metrics *Metrics
}

// NewPrometheusObserver wraps metrics as an agent.Observer. A nil metrics
// value allocates a fresh registration.
func NewPrometheusObserver(metrics *Metrics) *PrometheusObserver {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &PrometheusObserver{metrics: metrics}
}

func (o *PrometheusObserver) LLMRequest(provider, model string, messagesCount int) {
	o.metrics.RecordContextWindow(provider, model, messagesCount)
}

func (o *PrometheusObserver) LLMResponse(provider, model string, duration time.Duration, success bool, errMsg string) {
	status := "success"
	if !success {
		status = "error"
		o.metrics.RecordError("agent", "llm_request_failed")
	}
	o.metrics.RecordLLMRequest(provider, model, status, duration.Seconds(), 0, 0)
}

func (o *PrometheusObserver) ToolCallStart(tool string) {
	o.metrics.ToolExecutionCounter.WithLabelValues(tool, "started").Inc()
}

func (o *PrometheusObserver) ToolCallEnd(tool string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	o.metrics.RecordToolExecution(tool, status, duration.Seconds())
}

var _ agent.Observer = (*PrometheusObserver)(nil)

// TracingObserver adapts Tracer to the agent.Observer interface, emitting an
// OpenTelemetry span for each LLM request and tool call. Spans are tracked
// by name in a sync.Map between the Start and End callbacks since Observer
// carries no request id to correlate a pair of calls (same limitation as
// PrometheusObserver).
type TracingObserver struct {
	tracer    *Tracer
	llmSpans  sync.Map // provider+model -> trace.Span
	toolSpans sync.Map // tool name -> trace.Span
}

// NewTracingObserver wraps tracer as an agent.Observer. A nil tracer is
// replaced with a no-op tracer so the observer is always safe to use.
func NewTracingObserver(tracer *Tracer) *TracingObserver {
	if tracer == nil {
		tracer, _ = NewTracer(TraceConfig{})
	}
	return &TracingObserver{tracer: tracer}
}

func (o *TracingObserver) LLMRequest(provider, model string, messagesCount int) {
	_, span := o.tracer.TraceLLMRequest(context.Background(), provider, model)
	span.SetAttributes(attribute.Int("llm.messages_count", messagesCount))
	o.llmSpans.Store(provider+":"+model, span)
}

func (o *TracingObserver) LLMResponse(provider, model string, duration time.Duration, success bool, errMsg string) {
	key := provider + ":" + model
	v, ok := o.llmSpans.LoadAndDelete(key)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int64("llm.duration_ms", duration.Milliseconds()))
	if !success {
		o.tracer.RecordError(span, errors.New(errMsg))
	}
	span.End()
}

func (o *TracingObserver) ToolCallStart(tool string) {
	_, span := o.tracer.TraceToolExecution(context.Background(), tool)
	o.toolSpans.Store(tool, span)
}

func (o *TracingObserver) ToolCallEnd(tool string, duration time.Duration, success bool) {
	v, ok := o.toolSpans.LoadAndDelete(tool)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int64("tool.duration_ms", duration.Milliseconds()))
	if !success {
		span.SetStatus(codes.Error, "tool call failed")
	}
	span.End()
}

var _ agent.Observer = (*TracingObserver)(nil)

// MultiObserver fans lifecycle events out to every wrapped Observer, so a
// runtime can wire both SlogObserver and PrometheusObserver at once.
type MultiObserver struct {
	observers []agent.Observer
}

// NewMultiObserver combines observers into one. Nil entries are skipped.
func NewMultiObserver(observers ...agent.Observer) *MultiObserver {
	filtered := make([]agent.Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) LLMRequest(provider, model string, messagesCount int) {
	for _, o := range m.observers {
		o.LLMRequest(provider, model, messagesCount)
	}
}

func (m *MultiObserver) LLMResponse(provider, model string, duration time.Duration, success bool, errMsg string) {
	for _, o := range m.observers {
		o.LLMResponse(provider, model, duration, success, errMsg)
	}
}

func (m *MultiObserver) ToolCallStart(tool string) {
	for _, o := range m.observers {
		o.ToolCallStart(tool)
	}
}

func (m *MultiObserver) ToolCallEnd(tool string, duration time.Duration, success bool) {
	for _, o := range m.observers {
		o.ToolCallEnd(tool, duration, success)
	}
}

var _ agent.Observer = (*MultiObserver)(nil)
