package kpi

import (
	"fmt"
	"time"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/appointments"
	"github.com/wolfman30/studio-pulse/internal/timeline"
)

// Snapshot holds the figures for one period.
type Snapshot struct {
	RevenueCents  int64              `json:"revenueCents"`
	Revenue       string             `json:"revenue"`
	Sessions      int                `json:"sessions"`
	Cancellations int                `json:"cancelations"`
	NextGap       *analysis.Interval `json:"nextGapInterval,omitempty"`
	NextGapLabel  string             `json:"nextGap,omitempty"`
	Utilization   int                `json:"utilization"`
}

// Trends are current minus previous. Utilization is in percentage points.
type Trends struct {
	RevenueCents  int64 `json:"revenueCents"`
	Sessions      int   `json:"sessions"`
	Cancellations int   `json:"cancelations"`
	Utilization   int   `json:"utilization"`
}

// Report is the KPI output for one range selection.
type Report struct {
	Range    Range    `json:"range"`
	Current  Period   `json:"currentPeriod"`
	PrevSpan Period   `json:"previousPeriod"`
	Snapshot Snapshot `json:"current"`
	Previous Snapshot `json:"previous"`
	Trends   Trends   `json:"trends"`
}

// Aggregator computes KPI reports against a working window.
type Aggregator struct {
	window         analysis.Window
	minGap         int
	currencySymbol string
}

// NewAggregator creates an aggregator. minGap <= 0 uses the analysis default.
func NewAggregator(window analysis.Window, minGap int, currencySymbol string) *Aggregator {
	if minGap <= 0 {
		minGap = analysis.DefaultMinGapMinutes
	}
	if currencySymbol == "" {
		currencySymbol = "€"
	}
	return &Aggregator{window: window, minGap: minGap, currencySymbol: currencySymbol}
}

// WithWindow returns a copy of the aggregator using window for gap detection.
func (g *Aggregator) WithWindow(window analysis.Window) *Aggregator {
	cp := *g
	cp.window = window
	return &cp
}

// Compute builds the current and previous snapshots for kind as of now.
// Appointment dates are interpreted in now's location.
func (g *Aggregator) Compute(appts []appointments.Appointment, kind Range, now time.Time) Report {
	loc := now.Location()
	current := CurrentPeriod(kind, now)
	previous := PreviousRange(kind, current.Start)

	curAppts := FilterByRange(appts, loc, &current.Start, &current.End)
	prevAppts := FilterByRange(appts, loc, &previous.Start, &previous.End)

	cur := g.snapshot(curAppts)
	prev := g.snapshot(prevAppts)
	cur.NextGap = g.nextGap(appts, now)
	cur.NextGapLabel = GapLabel(cur.NextGap)

	return Report{
		Range:    kind,
		Current:  current,
		PrevSpan: previous,
		Snapshot: cur,
		Previous: prev,
		Trends: Trends{
			RevenueCents:  cur.RevenueCents - prev.RevenueCents,
			Sessions:      cur.Sessions - prev.Sessions,
			Cancellations: cur.Cancellations - prev.Cancellations,
			Utilization:   cur.Utilization - prev.Utilization,
		},
	}
}

func (g *Aggregator) snapshot(appts []appointments.Appointment) Snapshot {
	var s Snapshot
	active := make([]appointments.Appointment, 0, len(appts))
	for _, a := range appts {
		switch a.Status {
		case appointments.StatusCompleted:
			s.Sessions++
			s.RevenueCents += a.PriceCents
		case appointments.StatusCancelled:
			s.Cancellations++
			continue
		}
		active = append(active, a)
	}
	s.Utilization = analysis.UtilizationPercent(active)
	s.Revenue = FormatCents(s.RevenueCents, g.currencySymbol)
	return s
}

// nextGap returns the first of today's gaps that has not yet ended.
func (g *Aggregator) nextGap(appts []appointments.Appointment, now time.Time) *analysis.Interval {
	today := Today(appts, now)
	nowMin := timeline.MinutesOf(now)
	for _, gap := range analysis.ComputeGaps(today, g.window.StartHour, g.window.EndHour, g.minGap) {
		if gap.End > nowMin {
			return &gap
		}
	}
	return nil
}

// Today returns the non-cancelled appointments dated on now's calendar day.
func Today(appts []appointments.Appointment, now time.Time) []appointments.Appointment {
	day := now.Format(appointments.DateLayout)
	var out []appointments.Appointment
	for _, a := range appts {
		if a.Date == day && !a.Cancelled() {
			out = append(out, a)
		}
	}
	return out
}

// GapLabel renders a gap length in whole hours ("3h"), or "None".
func GapLabel(gap *analysis.Interval) string {
	if gap == nil {
		return "None"
	}
	return fmt.Sprintf("%dh", gap.Minutes()/60)
}

// FormatCents renders cents as "<symbol>123.45".
func FormatCents(cents int64, symbol string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, cents/100, cents%100)
}
