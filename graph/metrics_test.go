package graph

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetrics_Run(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	g := New(WithMetrics(metrics))
	mustAdd(t, g, "start", Passthrough{}, AsStart())
	mustAdd(t, g, "A", fixed("a", true))
	mustAdd(t, g, "B", fixed("b", false))
	mustAdd(t, g, "end", fixed("e", true), AsEnd())
	mustConnect(t, g, "start", "A", nil)
	mustConnect(t, g, "start", "B", nil)
	mustConnect(t, g, "A", "end", func(State) bool { return true })

	if _, err := g.Run(context.Background(), NewState("", nil)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := testutil.ToFloat64(metrics.pruned.WithLabelValues("B")); got != 1 {
		t.Errorf("expected pruned_total{node=B} = 1, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.gateEvaluations.WithLabelValues("A", "end", "true")); got != 1 {
		t.Errorf("expected one enabled gate evaluation, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected runs_total{status=ok} = 1, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.layerSize); got != 1 {
		t.Errorf("expected last layer size 1, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.nodeLatency); got != 3 {
		t.Errorf("expected 3 latency series, got %d", got)
	}
}

func TestPrometheusMetrics_Disable(t *testing.T) {
	metrics := NewPrometheusMetrics(prometheus.NewRegistry())
	metrics.Disable()
	metrics.RecordRun("ok")
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("ok")); got != 0 {
		t.Errorf("expected no recording while disabled, got %v", got)
	}

	metrics.Enable()
	metrics.RecordRun("ok")
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected recording after Enable, got %v", got)
	}
}

func TestPrometheusMetrics_NilSafe(t *testing.T) {
	var metrics *PrometheusMetrics
	metrics.RecordRun("ok")
	metrics.SetLayerSize(3)
	metrics.RecordGate("a", "b", true)
}
