package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestWorkflowMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWorkflowMetrics(reg)
	metrics.ObserveWebhook("santimpay", "processed", 250*time.Millisecond)
	metrics.IncSettlement("success")
	metrics.IncPayout("failure")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "webhook_outcome", "provider", "santimpay"); err != nil {
		t.Fatalf("fetch webhook outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected webhook_outcome=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "settlements_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch settlements: %v", err)
	} else if got != 1 {
		t.Fatalf("expected settlements_total=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payouts_total", "outcome", "failure"); err != nil {
		t.Fatalf("fetch payouts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected payouts_total=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "webhook_duration_seconds", "provider", "santimpay"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestWorkflowMetricsNilReceiverSafe(t *testing.T) {
	var metrics *WorkflowMetrics
	metrics.ObserveWebhook("santimpay", "processed", time.Second)
	metrics.IncSettlement("success")
	metrics.IncPayout("success")
	metrics.IncOutboxPublished()
	metrics.IncOutboxFailed()
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
