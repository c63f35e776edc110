package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStockMetricsExportsCountersGaugeAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStockMetrics(reg)
	m.ObserveMutation("O-", "issuance", ResultApplied)
	m.ObserveMutation("O-", "issuance", ResultInsufficient)
	m.ObserveMutation("O-", "issuance", ResultInsufficient)
	m.SetUnits("O-", 25)
	m.ObserveLockHeld("O-", 20*time.Millisecond)
	m.IncReadRetry("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	got, err := fetchMetric(mfs, "stock_mutations_total", map[string]string{"blood_group": "O-", "result": ResultInsufficient})
	if err != nil {
		t.Fatalf("fetch mutations: %v", err)
	}
	if got.GetCounter().GetValue() != 2 {
		t.Fatalf("expected 2 insufficient, got %f", got.GetCounter().GetValue())
	}

	gauge, err := fetchMetric(mfs, "stock_units_available", map[string]string{"blood_group": "O-"})
	if err != nil {
		t.Fatalf("fetch gauge: %v", err)
	}
	if gauge.GetGauge().GetValue() != 25 {
		t.Fatalf("expected gauge 25, got %f", gauge.GetGauge().GetValue())
	}

	hist, err := fetchMetric(mfs, "stock_mutation_duration_seconds", map[string]string{"blood_group": "O-"})
	if err != nil {
		t.Fatalf("fetch histogram: %v", err)
	}
	if hist.GetHistogram().GetSampleSum() <= 0 {
		t.Fatalf("expected histogram sum > 0")
	}

	if _, err := fetchMetric(mfs, "stock_read_retries_total", map[string]string{"operation": "unknown"}); err != nil {
		t.Fatalf("empty label should normalize: %v", err)
	}
}

func TestOutboxMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("stock_balance_changed")
	m.IncFailed("stock_balance_changed")
	m.IncDeadLettered("stock_low", "max_attempts")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	dlq, err := fetchMetric(mfs, "outbox_dead_lettered_total", map[string]string{"event_type": "stock_low", "reason": "max_attempts"})
	if err != nil {
		t.Fatalf("fetch dlq: %v", err)
	}
	if dlq.GetCounter().GetValue() != 1 {
		t.Fatalf("expected 1 dead letter")
	}
}

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.IncSuccess("outbox-retention")
	m.IncFailure("alert-cleanup")
	m.ObserveDuration("outbox-retention", 150*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	failure, err := fetchMetric(mfs, "cron_job_failure_total", map[string]string{"job": "alert-cleanup"})
	if err != nil {
		t.Fatalf("fetch failure: %v", err)
	}
	if failure.GetCounter().GetValue() != 1 {
		t.Fatalf("expected 1 failure")
	}
	if _, err := fetchMetric(mfs, "cron_job_duration_seconds", map[string]string{"job": "outbox-retention"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	stock := NewStockMetrics(nil)
	stock.ObserveMutation("A+", "donation", ResultApplied)
	stock.SetUnits("A+", 1)
	var nilStock *StockMetrics
	nilStock.ObserveLockHeld("A+", time.Second)

	outbox := NewOutboxMetrics(nil)
	outbox.IncPublished("x")

	var cron *CronJobMetrics
	cron.IncSuccess("x")
}

func fetchMetric(mfs []*dto.MetricFamily, name string, labels map[string]string) (*dto.Metric, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return nil, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric, nil
		}
	}
	return nil, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, label := range pairs {
			if label.GetName() == name && label.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
