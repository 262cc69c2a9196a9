package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if matchLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.GetLabel()) != len(labels) {
		return false
	}
	for _, lp := range metric.GetLabel() {
		if labels[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestSchedulerMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulerMetrics(reg)

	m.ObserveTask("rules")
	m.ObserveTask("rules")
	m.ObserveTask("expiry")
	m.ObserveRuleFired("lunch-break")
	m.ObserveStatusChange("Busy")
	m.ObserveSkipped(2)
	m.ObserveSkipped(0)
	m.ObserveTick(0.002)

	if got := counterValue(t, reg, "studio_pulse_scheduler_tasks_total", map[string]string{"task": "rules"}); got != 2 {
		t.Errorf("tasks_total{rules} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "studio_pulse_scheduler_rules_fired_total", map[string]string{"rule_id": "lunch-break"}); got != 1 {
		t.Errorf("rules_fired_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "studio_pulse_scheduler_status_changes_total", map[string]string{"status": "Busy"}); got != 1 {
		t.Errorf("status_changes_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "studio_pulse_scheduler_skipped_appointments_total", nil); got != 2 {
		t.Errorf("skipped_appointments_total = %v, want 2", got)
	}
}

func TestSchedulerMetricsNilSafe(t *testing.T) {
	var m *SchedulerMetrics
	m.ObserveTask("rules")
	m.ObserveRuleFired("x")
	m.ObserveStatusChange("Busy")
	m.ObserveSkipped(1)
	m.ObserveTick(0.1)
}
