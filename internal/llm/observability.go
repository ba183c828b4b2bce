package llm

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CallEvent records metadata about a single LLM invocation.
type CallEvent struct {
	Task      TaskType
	Model     string
	LatencyMs int64
	Success   bool
	ErrorCode string
	Usage     Usage
}

// Observer receives events about LLM calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes LLM call events through slog.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that logs events to logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	attrs := []any{
		"task", event.Task,
		"model", event.Model,
		"latency_ms", event.LatencyMs,
		"prompt_tokens", event.Usage.PromptTokens,
		"completion_tokens", event.Usage.CompletionTokens,
		"total_tokens", event.Usage.TotalTokens,
	}
	if event.Success {
		o.logger.Info("llm_call", attrs...)
		return
	}
	o.logger.Warn("llm_call", append(attrs, "error_code", event.ErrorCode)...)
}

var (
	llmCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barnlog_llm_calls_total",
		Help: "LLM calls by task and outcome",
	}, []string{"task", "outcome"})

	llmCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "barnlog_llm_call_duration_seconds",
		Help:    "LLM call latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
	}, []string{"task"})

	llmTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barnlog_llm_tokens_total",
		Help: "Tokens consumed by task and kind",
	}, []string{"task", "kind"})
)

// MetricsObserver exports LLM call events to Prometheus.
type MetricsObserver struct{}

func (MetricsObserver) OnCallComplete(event CallEvent) {
	task := string(event.Task)
	outcome := "ok"
	if !event.Success {
		outcome = event.ErrorCode
	}
	llmCallsTotal.WithLabelValues(task, outcome).Inc()
	llmCallDuration.WithLabelValues(task).Observe(float64(event.LatencyMs) / 1000)
	llmTokensTotal.WithLabelValues(task, "prompt").Add(float64(event.Usage.PromptTokens))
	llmTokensTotal.WithLabelValues(task, "completion").Add(float64(event.Usage.CompletionTokens))
}

// Observers fans each event out to every observer in order.
type Observers []Observer

func (os Observers) OnCallComplete(event CallEvent) {
	for _, o := range os {
		o.OnCallComplete(event)
	}
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
