// ABOUTME: Prometheus instrumentation for the MCP server surfaces.
// ABOUTME: Request counts plus per-tool invocation counts and latency.

package mcp

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects MCP server instrumentation on its own registry so
// the /metrics endpoint serves only what this server produces.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec
}

// NewMetrics builds and registers the server collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dremio_mcp",
			Name:      "requests_total",
			Help:      "JSON-RPC requests handled, by method.",
		}, []string{"method"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dremio_mcp",
			Name:      "tool_calls_total",
			Help:      "Tool invocations, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dremio_mcp",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
	registry.MustRegister(m.requests, m.toolCalls, m.toolLatency)
	return m
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(method string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method).Inc()
}

func (m *Metrics) observeToolCall(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolLatency.WithLabelValues(tool).Observe(elapsed.Seconds())
}
