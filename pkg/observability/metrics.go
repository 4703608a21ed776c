package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request metrics
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Total number of user requests processed",
		},
		[]string{"status"},
	)

	activeWorkflows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_active_workflows",
			Help: "Number of requests currently in flight",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_errors_total",
			Help: "Total number of errors absorbed by error recovery, by code",
		},
		[]string{"code"},
	)

	// Workflow metrics
	workflowExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_workflow_executions_total",
			Help: "Total number of pattern executions",
		},
		[]string{"pattern", "status"},
	)

	workflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_workflow_duration_seconds",
			Help:    "Pattern execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pattern"},
	)

	// Collaborator metrics
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_tool_calls_total",
			Help: "Total number of tool calls",
		},
		[]string{"tool", "status"},
	)

	llmCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_llm_calls_total",
			Help: "Total number of LLM generation calls",
		},
		[]string{"provider", "status"},
	)

	llmCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_llm_call_duration_seconds",
			Help:    "LLM generation call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	initOnce sync.Once
)

// InitMetrics registers the collectors with the default registry
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			requestsTotal,
			activeWorkflows,
			errorsTotal,
			workflowExecutionsTotal,
			workflowDuration,
			toolCallsTotal,
			llmCallsTotal,
			llmCallDuration,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest counts a finished user request
func RecordRequest(status string) {
	requestsTotal.WithLabelValues(status).Inc()
}

// SetActiveWorkflows sets the in-flight gauge
func SetActiveWorkflows(count int) {
	activeWorkflows.Set(float64(count))
}

// RecordError counts an error by code
func RecordError(code string) {
	errorsTotal.WithLabelValues(code).Inc()
}

// RecordWorkflowExecution records one pattern execution
func RecordWorkflowExecution(pattern, status string, duration time.Duration) {
	workflowExecutionsTotal.WithLabelValues(pattern, status).Inc()
	workflowDuration.WithLabelValues(pattern).Observe(duration.Seconds())
}

// RecordToolCall records one tool invocation
func RecordToolCall(tool, status string) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
}

// RecordLLMCall records one generation call
func RecordLLMCall(provider, status string, duration time.Duration) {
	llmCallsTotal.WithLabelValues(provider, status).Inc()
	llmCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
