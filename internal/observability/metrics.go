package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors.
//
// Tracked concerns:
//   - chat request flow and outcome
//   - security blocks by threat category
//   - model call latency and token consumption
//   - tool execution latency and error rate
type Metrics struct {
	// ChatRequests counts chat requests by outcome
	// (completed|blocked|rejected|error).
	ChatRequests *prometheus.CounterVec

	// SecurityBlocks counts blocked inputs/outputs by threat category.
	SecurityBlocks *prometheus.CounterVec

	// SecurityWarnings counts non-blocking threat detections by category.
	SecurityWarnings *prometheus.CounterVec

	// ModelRequestDuration measures model API call latency in seconds.
	// Labels: provider, model.
	ModelRequestDuration *prometheus.HistogramVec

	// ModelRequests counts model calls by provider, model and status.
	ModelRequests *prometheus.CounterVec

	// ModelTokens tracks token consumption. Labels: provider, model,
	// type (input|output).
	ModelTokens *prometheus.CounterVec

	// ToolExecutions counts tool invocations by tool_name and status.
	ToolExecutions *prometheus.CounterVec

	// ToolDuration measures tool execution time in seconds per tool_name.
	ToolDuration *prometheus.HistogramVec

	// IterationLimitReached counts sessions that hit the tool-round cap.
	IterationLimitReached prometheus.Counter

	// IntakeRejections counts rejected file attachments by reason
	// (size|mime|magic|active_content).
	IntakeRejections *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors with reg. Call once at
// startup; prometheus panics on duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shamay_chat_requests_total",
				Help: "Total chat requests by outcome",
			},
			[]string{"outcome"},
		),
		SecurityBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shamay_security_blocks_total",
				Help: "Blocked messages by threat category",
			},
			[]string{"category"},
		),
		SecurityWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shamay_security_warnings_total",
				Help: "Non-blocking threat detections by category",
			},
			[]string{"category"},
		),
		ModelRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shamay_model_request_duration_seconds",
				Help:    "Model API call latency in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		ModelRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shamay_model_requests_total",
				Help: "Model calls by provider, model and status",
			},
			[]string{"provider", "model", "status"},
		),
		ModelTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shamay_model_tokens_total",
				Help: "Tokens consumed by provider, model and type",
			},
			[]string{"provider", "model", "type"},
		),
		ToolExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shamay_tool_executions_total",
				Help: "Tool invocations by tool and status",
			},
			[]string{"tool_name", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shamay_tool_duration_seconds",
				Help:    "Tool execution time in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"tool_name"},
		),
		IterationLimitReached: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shamay_iteration_limit_reached_total",
				Help: "Sessions that hit the tool-round cap",
			},
		),
		IntakeRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shamay_intake_rejections_total",
				Help: "Rejected file attachments by reason",
			},
			[]string{"reason"},
		),
	}
}
