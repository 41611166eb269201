// Package metrics provides Prometheus metrics for the studio service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p-blackswan/screencast-studio/internal/llm"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ScriptsParsedTotal  prometheus.Counter
	ScriptScores        prometheus.Histogram
	FixIterations       prometheus.Histogram
	LLMCallsTotal       *prometheus.CounterVec
	LLMCallDuration     *prometheus.HistogramVec
	LLMTokensTotal      *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	ErrorsTotal         *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_http_requests_total",
				Help: "Total HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studio_http_request_duration_seconds",
				Help:    "HTTP request duration by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ScriptsParsedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "studio_scripts_parsed_total",
				Help: "Total scripts parsed into segments.",
			},
		),
		ScriptScores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studio_script_score",
				Help:    "Quality score distribution on the 100-point rubric.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		FixIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studio_fix_iterations",
				Help:    "Iterations used by the auto-fix loop per run.",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
			},
		),
		LLMCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_llm_calls_total",
				Help: "Total LLM calls by provider and status.",
			},
			[]string{"provider", "status"},
		),
		LLMCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studio_llm_call_duration_seconds",
				Help:    "LLM call duration by provider.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),
		LLMTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_llm_tokens_total",
				Help: "Total LLM tokens by provider and direction.",
			},
			[]string{"provider", "direction"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "studio_active_sessions",
				Help: "Recording sessions currently held in memory.",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_errors_total",
				Help: "Total errors by component and type.",
			},
			[]string{"component", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.HTTPRequestsTotal)
	reg.MustRegister(m.HTTPRequestDuration)
	reg.MustRegister(m.ScriptsParsedTotal)
	reg.MustRegister(m.ScriptScores)
	reg.MustRegister(m.FixIterations)
	reg.MustRegister(m.LLMCallsTotal)
	reg.MustRegister(m.LLMCallDuration)
	reg.MustRegister(m.LLMTokensTotal)
	reg.MustRegister(m.ActiveSessions)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest increments the request counter.
func (m *Metrics) RecordHTTPRequest(method, route, status string) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// ObserveHTTPDuration records how long a request took.
func (m *Metrics) ObserveHTTPDuration(method, route string, seconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordScriptParsed counts one parsed script.
func (m *Metrics) RecordScriptParsed() {
	m.ScriptsParsedTotal.Inc()
}

// ObserveScore records a quality score.
func (m *Metrics) ObserveScore(total int) {
	m.ScriptScores.Observe(float64(total))
}

// ObserveFixIterations records how many loop iterations a fix run used.
func (m *Metrics) ObserveFixIterations(n int) {
	m.FixIterations.Observe(float64(n))
}

// RecordLLMCall increments the call counter.
func (m *Metrics) RecordLLMCall(provider, status string) {
	m.LLMCallsTotal.WithLabelValues(provider, status).Inc()
}

// ObserveLLMDuration records how long an LLM call took.
func (m *Metrics) ObserveLLMDuration(provider string, seconds float64) {
	m.LLMCallDuration.WithLabelValues(provider).Observe(seconds)
}

// UsageFunc returns a callback suitable for llm.WithUsageFunc that feeds
// the token counters.
func (m *Metrics) UsageFunc(provider string) func(llm.Usage) {
	return func(u llm.Usage) {
		m.LLMTokensTotal.WithLabelValues(provider, "input").Add(float64(u.InputTokens))
		m.LLMTokensTotal.WithLabelValues(provider, "output").Add(float64(u.OutputTokens))
	}
}

// SetActiveSessions sets the live session gauge.
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errType string) {
	m.ErrorsTotal.WithLabelValues(component, errType).Inc()
}
