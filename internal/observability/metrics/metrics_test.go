package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsHighCardinalityLabels(t *testing.T) {
	filtered := FilterAttributes(
		attribute.String("org_id", "42"),
		attribute.String("outcome", "succeeded"),
		attribute.String("metric_id", "electricity_grid"),
		attribute.String("request_id", "abc"),
	)

	if len(filtered) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(filtered))
	}
	for _, attr := range filtered {
		if attr.Key != "org_id" && attr.Key != "outcome" {
			t.Fatalf("unexpected attribute %q", attr.Key)
		}
	}
}

func TestEngineMetricsRecomputeOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newEngineMetrics(registry)

	metrics.IncRecomputeAttempt(RecomputeOutcomeSucceeded)
	metrics.IncRecomputeAttempt(RecomputeOutcomeSucceeded)
	metrics.IncRecomputeAttempt(RecomputeOutcomeConflict)

	succeeded := testutil.ToFloat64(metrics.recomputeAttempts.WithLabelValues(RecomputeOutcomeSucceeded))
	if succeeded != 2 {
		t.Fatalf("expected 2 succeeded attempts, got %v", succeeded)
	}
	conflicts := testutil.ToFloat64(metrics.recomputeAttempts.WithLabelValues(RecomputeOutcomeConflict))
	if conflicts != 1 {
		t.Fatalf("expected 1 conflict attempt, got %v", conflicts)
	}
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var metrics *EngineMetrics
	metrics.IncRecomputeAttempt(RecomputeOutcomeFailed)
	metrics.IncVersionConflict()
	metrics.IncLockContention()
	metrics.IncStaleRead()
	metrics.ObserveComputeDuration(time.Second)
}

func TestEngineSingletonRegistersOnce(t *testing.T) {
	ResetEngineMetricsForTest()
	first := Engine()
	second := Engine()
	if first != second {
		t.Fatal("expected the same engine metrics instance")
	}
}
