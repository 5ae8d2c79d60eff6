/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for NeuronChat
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Turn metrics */
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronchat_turns_total",
			Help: "Total number of conversation turns handled",
		},
		[]string{"kind", "status"},
	)

	turnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neuronchat_turn_duration_seconds",
			Help:    "Turn handling duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	/* LLM metrics */
	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronchat_llm_calls_total",
			Help: "Total number of LLM calls",
		},
		[]string{"model", "status"},
	)

	llmTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronchat_llm_tokens_total",
			Help: "Total number of LLM tokens",
		},
		[]string{"model", "type"},
	)

	/* Command execution metrics */
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronchat_commands_total",
			Help: "Total number of classified commands",
		},
		[]string{"classification"},
	)

	commandDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neuronchat_command_duration_seconds",
			Help:    "Shell command execution duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	/* Approval metrics */
	approvalsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronchat_approvals_resolved_total",
			Help: "Total number of resolved approval requests",
		},
		[]string{"outcome"},
	)

	/* Context window metrics */
	contextPrunesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neuronchat_context_prunes_total",
			Help: "Total number of context prune operations",
		},
	)

	profileUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronchat_profile_updates_total",
			Help: "Total number of profile inference runs",
		},
		[]string{"status"},
	)

	/* HTTP ops API metrics */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neuronchat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neuronchat_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

/* RecordTurn records a handled conversation turn */
func RecordTurn(kind, status string, duration time.Duration) {
	turnsTotal.WithLabelValues(kind, status).Inc()
	turnDuration.Observe(duration.Seconds())
}

/* RecordLLMCall records an LLM call */
func RecordLLMCall(model, status string, promptTokens, completionTokens int) {
	llmCallsTotal.WithLabelValues(model, status).Inc()
	llmTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	llmTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

/* RecordCommand records a command classification outcome */
func RecordCommand(classification string) {
	commandsTotal.WithLabelValues(classification).Inc()
}

/* RecordCommandDuration records a shell command execution duration */
func RecordCommandDuration(duration time.Duration) {
	commandDuration.Observe(duration.Seconds())
}

/* RecordApprovalResolved records an approval resolution */
func RecordApprovalResolved(outcome string) {
	approvalsResolvedTotal.WithLabelValues(outcome).Inc()
}

/* RecordContextPrune records a context prune operation */
func RecordContextPrune() {
	contextPrunesTotal.Inc()
}

/* RecordProfileUpdate records a profile inference run */
func RecordProfileUpdate(status string) {
	profileUpdatesTotal.WithLabelValues(status).Inc()
}

/* RecordHTTPRequest records an HTTP request */
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	statusClass := "unknown"
	if status >= 200 && status < 300 {
		statusClass = "2xx"
	} else if status >= 300 && status < 400 {
		statusClass = "3xx"
	} else if status >= 400 && status < 500 {
		statusClass = "4xx"
	} else if status >= 500 {
		statusClass = "5xx"
	}

	httpRequestsTotal.WithLabelValues(method, endpoint, statusClass).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* Handler returns the Prometheus metrics handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
