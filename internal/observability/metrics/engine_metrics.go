package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	RecomputeOutcomeSucceeded = "succeeded"
	RecomputeOutcomeConflict  = "version_conflict"
	RecomputeOutcomeFailed    = "failed"
)

// EngineMetrics captures aggregation engine health signals.
type EngineMetrics struct {
	recomputeAttempts *prometheus.CounterVec
	versionConflicts  prometheus.Counter
	lockContention    prometheus.Counter
	computeDuration   prometheus.Histogram
	staleReads        prometheus.Counter
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

// Engine returns the singleton engine metrics registry.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = newEngineMetrics(prometheus.DefaultRegisterer)
	})
	return engineMetrics
}

// ResetEngineMetricsForTest resets the engine metrics singleton for tests.
func ResetEngineMetricsForTest() {
	engineMetricsOnce = sync.Once{}
	engineMetrics = nil
}

func newEngineMetrics(registerer prometheus.Registerer) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	m := &EngineMetrics{
		recomputeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carbonledger_baseline_recompute_attempts_total",
			Help: "Baseline recompute attempts by outcome.",
		}, []string{"outcome"}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carbonledger_baseline_version_conflicts_total",
			Help: "Optimistic version check failures on baseline writes.",
		}),
		lockContention: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carbonledger_baseline_lock_contention_total",
			Help: "Recompute lock acquisitions that had to wait or bail.",
		}),
		computeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "carbonledger_period_compute_duration_seconds",
			Help:    "Wall time of period emission computations.",
			Buckets: prometheus.DefBuckets,
		}),
		staleReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carbonledger_baseline_stale_reads_total",
			Help: "Baseline reads served from a stale snapshot.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		m.recomputeAttempts,
		m.versionConflicts,
		m.lockContention,
		m.computeDuration,
		m.staleReads,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return m
}

func (m *EngineMetrics) IncRecomputeAttempt(outcome string) {
	if m == nil {
		return
	}
	m.recomputeAttempts.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) IncVersionConflict() {
	if m == nil {
		return
	}
	m.versionConflicts.Inc()
}

func (m *EngineMetrics) IncLockContention() {
	if m == nil {
		return
	}
	m.lockContention.Inc()
}

func (m *EngineMetrics) ObserveComputeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.computeDuration.Observe(d.Seconds())
}

func (m *EngineMetrics) IncStaleRead() {
	if m == nil {
		return
	}
	m.staleReads.Inc()
}
