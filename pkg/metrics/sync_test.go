package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSyncMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSyncMetrics(reg)
	job := "test-job"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.AddSynced(job, 3)
	metrics.AddFailed(job, 1)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "sync_orders_synced", "job", job); err != nil {
		t.Fatalf("fetch synced: %v", err)
	} else if got != 3 {
		t.Fatalf("expected synced=3, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "sync_orders_failed", "job", job); err != nil {
		t.Fatalf("fetch failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "sync_pass_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestSyncMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *SyncMetrics
	metrics.ObserveDuration("job", time.Second)
	metrics.AddSynced("job", 1)
	metrics.AddFailed("job", 1)

	unregistered := NewSyncMetrics(nil)
	unregistered.ObserveDuration("job", time.Second)
	unregistered.AddSynced("job", 1)
	unregistered.AddFailed("job", 1)
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
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
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
