package metrics

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "test-job"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)
	metrics.AddAffected(job, 3)
	metrics.AddAffected(job, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "belldesk_cron_job_success_total", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "belldesk_cron_job_failure_total", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "belldesk_cron_job_rows_affected_total", "job", job); err != nil {
		t.Fatalf("fetch affected: %v", err)
	} else if got != 3 {
		t.Fatalf("expected affected=3, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "belldesk_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
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

func TestNilRegistererIsSafe(t *testing.T) {
	NewCronJobMetrics(nil).IncSuccess("x")
	NewDepositReleaseMetrics(nil).Observe(ReleaseOutcomeReleased, time.Second)
	NewHTTPMetrics(nil).Observe("GET", "/api/deposit", 200, time.Second)
	NewOutboxMetrics(nil).IncPublished("deposit.released")
	var nilMetrics *DepositReleaseMetrics
	nilMetrics.Observe(ReleaseOutcomeError, 0)
}

func TestDepositReleaseMetricsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDepositReleaseMetrics(reg)
	m.Observe(ReleaseOutcomeReleased, 10*time.Millisecond)
	m.Observe(ReleaseOutcomeConflict, time.Millisecond)
	m.Observe(ReleaseOutcomeConflict, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "belldesk_deposit_releases_total", "outcome", ReleaseOutcomeConflict); err != nil || got != 2 {
		t.Fatalf("expected conflict=2, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "belldesk_deposit_releases_total", "outcome", ReleaseOutcomeReleased); err != nil || got != 1 {
		t.Fatalf("expected released=1, got %f err=%v", got, err)
	}
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			t.Fatalf("metric %q missing %s namespace", mf.GetName(), namespace)
		}
	}
}

func TestHTTPMetricsLabelsUnmatchedRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "belldesk_http_requests_total", "route", "unmatched"); err != nil || got != 1 {
		t.Fatalf("expected unmatched=1, got %f err=%v", got, err)
	}
}
