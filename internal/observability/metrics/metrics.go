package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetrics exposes counters/histograms for the status automation loop.
type SchedulerMetrics struct {
	tasksTotal         *prometheus.CounterVec
	rulesFiredTotal    *prometheus.CounterVec
	statusChangesTotal *prometheus.CounterVec
	skippedTotal       prometheus.Counter
	tickDuration       prometheus.Histogram
}

func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio_pulse",
			Subsystem: "scheduler",
			Name:      "tasks_total",
			Help:      "Scheduler tasks run, by task name",
		}, []string{"task"}),
		rulesFiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio_pulse",
			Subsystem: "scheduler",
			Name:      "rules_fired_total",
			Help:      "Status rules that fired, by rule id",
		}, []string{"rule_id"}),
		statusChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio_pulse",
			Subsystem: "scheduler",
			Name:      "status_changes_total",
			Help:      "Canonical status transitions, by new status",
		}, []string{"status"}),
		skippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio_pulse",
			Subsystem: "scheduler",
			Name:      "skipped_appointments_total",
			Help:      "Appointments excluded from analysis because their times were malformed",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "studio_pulse",
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one scheduler tick",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.tasksTotal, m.rulesFiredTotal, m.statusChangesTotal, m.skippedTotal, m.tickDuration)
	return m
}

func (m *SchedulerMetrics) ObserveTask(task string) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(task).Inc()
}

func (m *SchedulerMetrics) ObserveRuleFired(ruleID string) {
	if m == nil {
		return
	}
	m.rulesFiredTotal.WithLabelValues(ruleID).Inc()
}

func (m *SchedulerMetrics) ObserveStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChangesTotal.WithLabelValues(status).Inc()
}

func (m *SchedulerMetrics) ObserveSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skippedTotal.Add(float64(n))
}

func (m *SchedulerMetrics) ObserveTick(seconds float64) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(seconds)
}
