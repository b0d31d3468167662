package graph

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects Prometheus metrics for graph runs.
//
// Metrics exposed (all namespaced with "raggraph_"):
//
//  1. layer_size (gauge): number of nodes executing in the current layer.
//  2. node_latency_ms (histogram): node execution duration.
//     Labels: node, kind, status (forward/pruned/failed).
//  3. pruned_total (counter): results that did not forward. Labels: node.
//  4. gate_evaluations_total (counter): gate decisions. Labels: from, to, enabled.
//  5. runs_total (counter): finished runs. Labels: status (ok/error/cancelled).
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	g := graph.New(graph.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Safe for concurrent use.
type PrometheusMetrics struct {
	layerSize       prometheus.Gauge
	nodeLatency     *prometheus.HistogramVec
	pruned          *prometheus.CounterVec
	gateEvaluations *prometheus.CounterVec
	runs            *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all graph metrics with registry.
// A nil registry uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{enabled: true}

	pm.layerSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "raggraph",
		Name:      "layer_size",
		Help:      "Number of nodes executing concurrently in the current layer",
	})

	pm.nodeLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "raggraph",
		Name:      "node_latency_ms",
		Help:      "Node execution duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
	}, []string{"node", "kind", "status"})

	pm.pruned = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "raggraph",
		Name:      "pruned_total",
		Help:      "Node results that did not forward to their successors",
	}, []string{"node"})

	pm.gateEvaluations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "raggraph",
		Name:      "gate_evaluations_total",
		Help:      "Edge gate evaluations by outcome",
	}, []string{"from", "to", "enabled"})

	pm.runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "raggraph",
		Name:      "runs_total",
		Help:      "Completed graph runs by status",
	}, []string{"status"})

	return pm
}

func (pm *PrometheusMetrics) on() bool {
	if pm == nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// RecordNode records one node execution.
func (pm *PrometheusMetrics) RecordNode(node string, kind Kind, latency time.Duration, res Result) {
	if !pm.on() {
		return
	}
	status := "forward"
	switch {
	case res.Err != nil:
		status = "failed"
	case !res.Forward:
		status = "pruned"
	}
	pm.nodeLatency.WithLabelValues(node, kind.String(), status).Observe(float64(latency.Milliseconds()))
	if !res.Forward {
		pm.pruned.WithLabelValues(node).Inc()
	}
}

// RecordGate records one gate evaluation.
func (pm *PrometheusMetrics) RecordGate(from, to string, enabled bool) {
	if !pm.on() {
		return
	}
	pm.gateEvaluations.WithLabelValues(from, to, strconv.FormatBool(enabled)).Inc()
}

// SetLayerSize sets the number of nodes in the executing layer.
func (pm *PrometheusMetrics) SetLayerSize(n int) {
	if !pm.on() {
		return
	}
	pm.layerSize.Set(float64(n))
}

// RecordRun records a finished run with status "ok", "error" or "cancelled".
func (pm *PrometheusMetrics) RecordRun(status string) {
	if !pm.on() {
		return
	}
	pm.runs.WithLabelValues(status).Inc()
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
