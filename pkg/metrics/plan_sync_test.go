package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPlanSyncMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPlanSyncMetrics(reg)
	metrics.ObserveDuration(OpSavePlan, 250*time.Millisecond)
	metrics.IncSuccess(OpSavePlan)
	metrics.IncSuccess(OpSavePlan)
	metrics.IncFailure(OpSavePlan)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "plan_sync_success", "op", OpSavePlan); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 2 {
		t.Fatalf("expected success=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "plan_sync_failure", "op", OpSavePlan); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "plan_sync_duration_seconds", "op", OpSavePlan); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPlanSyncMetricsCountsFallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPlanSyncMetrics(reg)
	metrics.IncFallback("inventory", SourceCache)
	metrics.IncFallback("", SourceStatic)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "planner_fallback_total", "source", SourceCache); err != nil {
		t.Fatalf("fetch fallback: %v", err)
	} else if got != 1 {
		t.Fatalf("expected cache fallback=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "planner_fallback_total", "resource", "unknown"); err != nil {
		t.Fatalf("fetch unknown resource: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown resource fallback=1, got %f", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var metrics *PlanSyncMetrics
	metrics.IncSuccess(OpSavePlan)
	metrics.IncFailure(OpSavePlan)
	metrics.IncFallback("inventory", SourceEmpty)
	metrics.ObserveDuration(OpSavePlan, time.Second)

	unregistered := NewPlanSyncMetrics(nil)
	unregistered.IncSuccess(OpReplayPlan)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPlanSyncMetrics(reg).IncFailure(OpSavePlan)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `plan_sync_failure{op="save_plan"} 1`) {
		t.Fatalf("expected failure counter in output, got %s", rec.Body.String())
	}
}
