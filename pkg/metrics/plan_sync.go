package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels used by the plan synchronizer.
const (
	OpSavePlan   = "save_plan"
	OpReplayPlan = "replay_plan"
)

// Fallback sources recorded when a backend read fails.
const (
	SourcePrevious = "previous"
	SourceCache    = "cache"
	SourceStatic   = "static"
	SourceEmpty    = "empty"
)

// PlanSyncMetrics records backend plan writes and read fallbacks.
type PlanSyncMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewPlanSyncMetrics registers the sync metrics on the provided registerer.
func NewPlanSyncMetrics(reg prometheus.Registerer) *PlanSyncMetrics {
	if reg == nil {
		return &PlanSyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plan_sync_duration_seconds",
		Help:    "Duration of meal plan writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_sync_success",
		Help: "Meal plan writes accepted by the backend.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_sync_failure",
		Help: "Meal plan writes that failed.",
	}, []string{"op"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_fallback_total",
		Help: "Backend reads answered from a fallback source.",
	}, []string{"resource", "source"})
	reg.MustRegister(duration, success, failure, fallbacks)
	return &PlanSyncMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		fallbacks: fallbacks,
	}
}

// ObserveDuration records how long a write took.
func (m *PlanSyncMetrics) ObserveDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

func (m *PlanSyncMetrics) IncSuccess(op string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *PlanSyncMetrics) IncFailure(op string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFallback counts a read of resource served from source instead of the backend.
func (m *PlanSyncMetrics) IncFallback(resource, source string) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.WithLabelValues(normalizeLabel(resource), normalizeLabel(source)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
