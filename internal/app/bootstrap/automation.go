package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/appointments"
	"github.com/wolfman30/studio-pulse/internal/automation"
	appconfig "github.com/wolfman30/studio-pulse/internal/config"
	"github.com/wolfman30/studio-pulse/internal/kpi"
	"github.com/wolfman30/studio-pulse/internal/observability/metrics"
	"github.com/wolfman30/studio-pulse/internal/preferences"
	"github.com/wolfman30/studio-pulse/internal/status"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

var ErrProviderRequired = errors.New("bootstrap: PROVIDER_ID is required with a database")

// BuildSource picks the appointment source: the provider's rows in Postgres
// when a pool is given, otherwise a static list loaded from AppointmentsFile.
func BuildSource(cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) (appointments.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if pool != nil {
		if cfg.ProviderID == "" {
			return nil, ErrProviderRequired
		}
		repo := appointments.NewRepository(pool)
		logger.Info("reading appointments from database", "provider_id", cfg.ProviderID)
		return appointments.NewProviderSource(repo, cfg.ProviderID, kpi.FetchSpan), nil
	}
	if strings.TrimSpace(cfg.AppointmentsFile) == "" {
		logger.Warn("no database or appointments file configured; starting with an empty schedule")
		return appointments.NewStaticSource(nil), nil
	}
	appts, err := appointments.LoadFile(cfg.AppointmentsFile)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load appointments file: %w", err)
	}
	logger.Info("loaded appointments file", "path", cfg.AppointmentsFile, "count", len(appts))
	return appointments.NewStaticSource(appts), nil
}

// BuildRules applies the rule toggles file to both rule tables.
func BuildRules(cfg *appconfig.Config, logger *logging.Logger) (rules, legacy []status.Rule, err error) {
	if logger == nil {
		logger = logging.Default()
	}
	toggles, err := appconfig.LoadRuleToggles(cfg.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	disabled := toggles.Rules.Disabled
	rules = status.Disable(status.DefaultRules(), disabled)
	legacy = status.Disable(status.LegacyRules(), disabled)
	if err := status.ValidateRules(append(append([]status.Rule(nil), rules...), legacy...)); err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	if len(disabled) > 0 {
		logger.Info("rules disabled", "ids", disabled)
	}
	return rules, legacy, nil
}

// SchedulerDeps carries the collaborators BuildScheduler wires in.
type SchedulerDeps struct {
	Source      appointments.Source
	Preferences preferences.Store
	Registerer  prometheus.Registerer
	Notifier    automation.Notifier
	Recorder    automation.StatusRecorder
}

// BuildScheduler wires the automation scheduler from config.
func BuildScheduler(cfg *appconfig.Config, deps SchedulerDeps, logger *logging.Logger) (*automation.Scheduler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("bootstrap: appointment source is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("falling back to UTC", "error", err)
	}
	window := analysis.Window{StartHour: cfg.TimelineStartHour, EndHour: cfg.TimelineEndHour}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: timeline: %w", err)
	}
	kpiRange, err := kpi.ParseRange(cfg.KPIRange)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	rules, legacy, err := BuildRules(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := automation.NewScheduler(deps.Source, logger).
		WithClock(automation.SystemClock{Location: loc}).
		WithAnalyzer(analysis.NewAnalyzer(cfg.MinGapMinutes, logger)).
		WithAggregator(kpi.NewAggregator(window, cfg.MinGapMinutes, cfg.CurrencySymbol)).
		WithRules(rules).
		WithLegacyRules(legacy).
		WithIntervals(automation.Intervals{
			Rules:  cfg.RuleInterval,
			Legacy: cfg.LegacyRuleInterval,
			Expiry: cfg.ExpiryInterval,
			Clock:  cfg.ClockInterval,
		}).
		WithCustomStatusTTL(cfg.CustomStatusTTL).
		WithWindow(window).
		WithKPIRange(kpiRange)
	if deps.Preferences != nil {
		s = s.WithPreferences(deps.Preferences)
	}
	if deps.Registerer != nil {
		s = s.WithMetrics(metrics.NewSchedulerMetrics(deps.Registerer))
	}
	if deps.Notifier != nil {
		s = s.WithNotifier(deps.Notifier)
	}
	if deps.Recorder != nil {
		s = s.WithRecorder(deps.Recorder)
	}
	return s, nil
}
