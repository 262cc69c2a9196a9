// Package automation drives the status rule engine from a single ordered tick
// loop and owns the professional's availability state.
package automation

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/appointments"
	"github.com/wolfman30/studio-pulse/internal/kpi"
	"github.com/wolfman30/studio-pulse/internal/observability/metrics"
	"github.com/wolfman30/studio-pulse/internal/preferences"
	"github.com/wolfman30/studio-pulse/internal/status"
	"github.com/wolfman30/studio-pulse/internal/suggest"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

var tracer = otel.Tracer("studio-pulse/automation")

const (
	// InSessionLead is how early before a start the professional counts as in session.
	InSessionLead = 5 * time.Minute

	// DefaultCustomStatusTTL is how long a manual custom status lasts.
	DefaultCustomStatusTTL = 60 * time.Minute

	todayLayout = "Monday, January 2, 2006"
)

type task string

const (
	taskExpiry task = "expiry"
	taskClock  task = "clock"
	taskLegacy task = "legacy_rules"
	taskRules  task = "rules"
)

// Intervals sets the cadence of each periodic task. A non-positive Legacy
// interval disables the legacy pipeline.
type Intervals struct {
	Rules  time.Duration
	Legacy time.Duration
	Expiry time.Duration
	Clock  time.Duration
}

// DefaultIntervals are the production cadences.
var DefaultIntervals = Intervals{
	Rules:  60 * time.Second,
	Legacy: 5 * time.Minute,
	Expiry: 10 * time.Second,
	Clock:  60 * time.Second,
}

// Base is the loop period: the shortest positive interval.
func (i Intervals) Base() time.Duration {
	base := time.Duration(0)
	for _, d := range []time.Duration{i.Rules, i.Legacy, i.Expiry, i.Clock} {
		if d > 0 && (base == 0 || d < base) {
			base = d
		}
	}
	if base == 0 {
		base = DefaultIntervals.Expiry
	}
	return base
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Notifier delivers rule notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type logNotifier struct {
	logger *logging.Logger
}

func (l logNotifier) Notify(_ context.Context, n Notification) {
	l.logger.Info("automation: notification", "rule_id", n.RuleID, "message", n.Message)
}

// StatusRecorder persists status transitions.
type StatusRecorder interface {
	RecordStatusChange(ctx context.Context, c StatusChange) error
}

// Scheduler evaluates status automation on one cooperative loop.
type Scheduler struct {
	store    *Store
	source   appointments.Source
	clock    Clock
	prefs    preferences.Store
	analyzer *analysis.Analyzer
	kpis     *kpi.Aggregator
	notifier Notifier
	recorder StatusRecorder
	metrics  *metrics.SchedulerMetrics
	logger   *logging.Logger

	rules       []status.Rule
	legacyRules []status.Rule
	intervals   Intervals
	customTTL   time.Duration

	// lastRun and prevFired are only touched by Tick.
	lastRun   map[task]time.Time
	prevFired map[task]map[string]bool

	apptMu sync.RWMutex
	appts  []appointments.Appointment
}

// NewScheduler creates a scheduler over source with the default rule tables
// and cadences.
func NewScheduler(source appointments.Source, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store: NewStore(State{
			Status:   status.Available,
			Window:   analysis.DefaultWindow,
			KPIRange: kpi.RangeToday,
		}),
		source:      source,
		clock:       SystemClock{},
		analyzer:    analysis.NewAnalyzer(analysis.DefaultMinGapMinutes, logger),
		kpis:        kpi.NewAggregator(analysis.DefaultWindow, analysis.DefaultMinGapMinutes, ""),
		notifier:    logNotifier{logger: logger},
		logger:      logger,
		rules:       status.DefaultRules(),
		legacyRules: status.LegacyRules(),
		intervals:   DefaultIntervals,
		customTTL:   DefaultCustomStatusTTL,
		lastRun:     make(map[task]time.Time),
		prevFired:   make(map[task]map[string]bool),
	}
}

func (s *Scheduler) WithClock(c Clock) *Scheduler {
	if c != nil {
		s.clock = c
	}
	return s
}

func (s *Scheduler) WithPreferences(p preferences.Store) *Scheduler {
	s.prefs = p
	return s
}

func (s *Scheduler) WithMetrics(m *metrics.SchedulerMetrics) *Scheduler {
	s.metrics = m
	return s
}

func (s *Scheduler) WithNotifier(n Notifier) *Scheduler {
	if n != nil {
		s.notifier = n
	}
	return s
}

func (s *Scheduler) WithRecorder(r StatusRecorder) *Scheduler {
	s.recorder = r
	return s
}

func (s *Scheduler) WithAnalyzer(a *analysis.Analyzer) *Scheduler {
	if a != nil {
		s.analyzer = a
	}
	return s
}

func (s *Scheduler) WithAggregator(a *kpi.Aggregator) *Scheduler {
	if a != nil {
		s.kpis = a
	}
	return s
}

// WithRules replaces the consolidated rule table.
func (s *Scheduler) WithRules(rules []status.Rule) *Scheduler {
	s.rules = rules
	return s
}

// WithLegacyRules replaces the five-minute idle rule table.
func (s *Scheduler) WithLegacyRules(rules []status.Rule) *Scheduler {
	s.legacyRules = rules
	return s
}

func (s *Scheduler) WithIntervals(i Intervals) *Scheduler {
	if i.Rules > 0 {
		s.intervals.Rules = i.Rules
	}
	if i.Expiry > 0 {
		s.intervals.Expiry = i.Expiry
	}
	if i.Clock > 0 {
		s.intervals.Clock = i.Clock
	}
	s.intervals.Legacy = i.Legacy
	return s
}

func (s *Scheduler) WithCustomStatusTTL(d time.Duration) *Scheduler {
	if d > 0 {
		s.customTTL = d
	}
	return s
}

// WithWindow sets the initial timeline window.
func (s *Scheduler) WithWindow(w analysis.Window) *Scheduler {
	if w.Validate() == nil {
		s.store.Update(func(st *State) { st.Window = w })
	}
	return s
}

// WithKPIRange sets the initial KPI range.
func (s *Scheduler) WithKPIRange(r kpi.Range) *Scheduler {
	if r != "" {
		s.store.Update(func(st *State) { st.KPIRange = r })
	}
	return s
}

// Store exposes the owned state.
func (s *Scheduler) Store() *Store { return s.store }

// Snapshot returns the current public view.
func (s *Scheduler) Snapshot() Snapshot { return s.store.Snapshot() }

// Rules returns the consolidated and legacy rule tables.
func (s *Scheduler) Rules() (rules, legacy []status.Rule) {
	return s.rules, s.legacyRules
}

// Start restores persisted preferences.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.prefs == nil {
		return nil
	}
	w, ok, err := preferences.LoadWindow(ctx, s.prefs)
	if err != nil {
		return err
	}
	if ok {
		s.store.Update(func(st *State) { st.Window = w })
		s.logger.Info("automation: restored timeline window", "start_hour", w.StartHour, "end_hour", w.EndHour)
	}
	return nil
}

// Run ticks immediately and then on the base interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.Start(ctx); err != nil {
		s.logger.Warn("automation: restore preferences failed", "error", err)
	}
	ticker := time.NewTicker(s.intervals.Base())
	defer ticker.Stop()
	s.Tick(ctx, s.clock.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, s.clock.Now())
		}
	}
}

// Tick runs every due task for now in a fixed order: custom-status expiry,
// clock refresh, derived facts, scheduled windows or rule pipelines, and
// finally in-session detection.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	ctx, span := tracer.Start(ctx, "automation.tick", trace.WithAttributes(
		attribute.String("now", now.Format(time.RFC3339)),
	))
	defer span.End()
	started := time.Now()

	appts := s.load(ctx, now)

	var (
		notes   []Notification
		changes []StatusChange
	)
	s.store.Update(func(st *State) {
		if s.due(taskExpiry, now) {
			s.expire(st, now)
		}
		if s.due(taskClock, now) {
			s.refreshClock(st, now)
		}
		today := kpi.Today(appts, now)
		s.derive(st, appts, today, now)

		st.Scheduled = status.PruneScheduled(st.Scheduled, now)
		if active, ok := status.ActiveScheduled(st.Scheduled, now); ok {
			st.ScheduledLabel = active.Label
			st.Fired = nil
			st.RuleLabel = ""
			st.LegacyLabel = ""
		} else {
			st.ScheduledLabel = ""
			// The idle triggers stand down while any other label is shown.
			if s.intervals.Legacy > 0 && st.RuleLabel == "" && !st.InSession && s.due(taskLegacy, now) {
				notes = append(notes, s.runPipeline(st, taskLegacy, s.legacyRules, today, now)...)
			}
			if s.due(taskRules, now) {
				notes = append(notes, s.runPipeline(st, taskRules, s.rules, today, now)...)
			}
		}

		s.detectSession(st, today, now)
		st.UpdatedAt = now
		span.SetAttributes(
			attribute.String("status", string(st.Status)),
			attribute.Bool("in_session", st.InSession),
		)
		changes = s.commit(st)
	})

	s.record(ctx, changes)
	for _, n := range notes {
		s.notifier.Notify(ctx, n)
	}
	s.metrics.ObserveTick(time.Since(started).Seconds())
}

// commit drains the tick's net status change and counts it. Callers hold the
// store lock.
func (s *Scheduler) commit(st *State) []StatusChange {
	changes := st.drainChanges()
	for _, c := range changes {
		s.metrics.ObserveStatusChange(string(c.To))
		s.logger.Info("automation: status changed", "from", c.From, "status", c.To, "cause", c.Cause)
	}
	return changes
}

// record hands status transitions to the recorder outside the state lock.
func (s *Scheduler) record(ctx context.Context, changes []StatusChange) {
	if s.recorder == nil {
		return
	}
	for _, c := range changes {
		if err := s.recorder.RecordStatusChange(ctx, c); err != nil {
			s.logger.Error("automation: record status change failed", "error", err, "status", c.To)
		}
	}
}

// load fetches appointments, keeping the last good collection on error.
func (s *Scheduler) load(ctx context.Context, now time.Time) []appointments.Appointment {
	if s.source == nil {
		return s.cached()
	}
	appts, err := s.source.Appointments(ctx, now)
	if err != nil {
		s.logger.Error("automation: load appointments failed", "error", err)
		return s.cached()
	}
	s.apptMu.Lock()
	s.appts = appts
	s.apptMu.Unlock()
	return appts
}

func (s *Scheduler) cached() []appointments.Appointment {
	s.apptMu.RLock()
	defer s.apptMu.RUnlock()
	return s.appts
}

func (s *Scheduler) due(t task, now time.Time) bool {
	var every time.Duration
	switch t {
	case taskExpiry:
		every = s.intervals.Expiry
	case taskClock:
		every = s.intervals.Clock
	case taskLegacy:
		every = s.intervals.Legacy
	case taskRules:
		every = s.intervals.Rules
	}
	last, ran := s.lastRun[t]
	// Half a base tick of slack absorbs jitter between clock reads.
	if ran && now.Sub(last) < every-s.intervals.Base()/2 {
		return false
	}
	s.lastRun[t] = now
	s.metrics.ObserveTask(string(t))
	return true
}

func (s *Scheduler) expire(st *State, now time.Time) {
	if st.Manual == nil || !now.After(st.Manual.ExpiresAt) {
		return
	}
	s.logger.Info("automation: custom status expired", "label", st.Manual.Label)
	st.Manual = nil
	s.setStatus(st, status.Available, now, CauseExpiry)
}

func (s *Scheduler) refreshClock(st *State, now time.Time) {
	st.Today = now.Format(todayLayout)
	st.Greeting = status.Greeting(now)
	st.Suggestions = status.Suggestions(now)
}

func (s *Scheduler) derive(st *State, appts, today []appointments.Appointment, now time.Time) {
	st.Day = s.analyzer.Analyze(today, st.Window)
	s.metrics.ObserveSkipped(st.Day.NewlySkipped)
	st.KPI = s.kpis.WithWindow(st.Window).Compute(appts, st.KPIRange, now)
	st.Next = suggest.Next(today, now)
	st.Prompts = suggest.ForGap(st.KPI.Snapshot.NextGap, len(today)-len(st.Day.Skipped))
}

// runPipeline evaluates one rule table. A manual custom status suppresses
// automatic suggestions until it expires or is cleared.
func (s *Scheduler) runPipeline(st *State, t task, rules []status.Rule, today []appointments.Appointment, now time.Time) []Notification {
	if st.Manual != nil {
		return nil
	}
	ctx := status.NewContext(now, today, st.Status, st.StatusSince, st.CustomLabel())
	fx := &stateEffects{s: s, st: st, now: now, pipeline: t}
	eval := status.Evaluate(rules, ctx, fx)
	if !fx.labelSet {
		fx.SetCustomStatus("")
	}

	prev := s.prevFired[t]
	fired := make(map[string]bool, len(eval.Fired))
	var notes []Notification
	for _, f := range eval.Fired {
		fired[f.RuleID] = true
		s.metrics.ObserveRuleFired(f.RuleID)
		if f.Intent.Notify != "" && !prev[f.RuleID] {
			n := Notification{RuleID: f.RuleID, Message: f.Intent.Notify, At: now}
			st.pushNotification(n)
			notes = append(notes, n)
		}
	}
	s.prevFired[t] = fired
	if t == taskRules {
		st.Fired = eval.Fired
	}
	return notes
}

// detectSession forces Busy while now is within [start-5m, end] of any
// session and returns to Available when the last session is left.
func (s *Scheduler) detectSession(st *State, today []appointments.Appointment, now time.Time) {
	inSession := false
	for _, sess := range status.ResolveSessions(today, now.Location()) {
		if !now.Before(sess.Start.Add(-InSessionLead)) && !now.After(sess.End) {
			inSession = true
			break
		}
	}
	switch {
	case inSession:
		if !st.InSession {
			s.logger.Info("automation: session started")
		}
		st.InSession = true
		s.setStatus(st, status.Busy, now, CauseSession)
	case st.InSession:
		s.logger.Info("automation: session ended")
		st.InSession = false
		if st.Status == status.Busy {
			s.setStatus(st, status.Available, now, CauseSession)
		}
	}
}

func (s *Scheduler) setStatus(st *State, to status.Status, now time.Time, cause string) {
	if st.Status == to {
		return
	}
	if len(st.changes) == 0 {
		st.sinceBefore = st.StatusSince
	}
	st.changes = append(st.changes, StatusChange{From: st.Status, To: to, Cause: cause, At: now})
	st.Status = to
	st.StatusSince = now
	s.logger.Debug("automation: status set", "status", to, "cause", cause)
}

// stateEffects applies rule intents to the owned state.
type stateEffects struct {
	s        *Scheduler
	st       *State
	now      time.Time
	pipeline task
	labelSet bool
}

func (e *stateEffects) SetStatus(to status.Status) {
	e.s.setStatus(e.st, to, e.now, "rule:"+string(e.pipeline))
}

func (e *stateEffects) SetCustomStatus(label string) {
	if label != "" {
		e.labelSet = true
	}
	if e.pipeline == taskLegacy {
		e.st.LegacyLabel = label
		return
	}
	e.st.RuleLabel = label
}

// Notify is a no-op: notifications are raised from the firing list so that a
// rule only notifies when it starts firing.
func (e *stateEffects) Notify(string) {}
