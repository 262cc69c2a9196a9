// Package kpi aggregates period-over-period dashboard figures: revenue,
// completed sessions, cancellations, utilization, and the next open gap.
package kpi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/studio-pulse/internal/appointments"
)

// Range selects the reporting unit.
type Range string

const (
	RangeToday     Range = "Today"
	RangeThisWeek  Range = "This Week"
	RangeThisMonth Range = "This Month"
)

// Ranges lists the selectable ranges in display order.
var Ranges = []Range{RangeToday, RangeThisWeek, RangeThisMonth}

var ErrUnknownRange = errors.New("kpi: unknown range")

// ParseRange accepts a range name, ignoring case and surrounding space.
func ParseRange(s string) (Range, error) {
	for _, r := range Ranges {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

// Period is an inclusive [Start, End] span at minute resolution.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the period, bounds included.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// RangeStart returns the beginning of the day, week (Sunday), or month that
// contains now, in now's location.
func RangeStart(kind Range, now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch kind {
	case RangeThisWeek:
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return day.AddDate(0, 0, -int(day.Weekday()))
	case RangeThisMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// addUnits moves t by n days, weeks, or months.
func addUnits(kind Range, t time.Time, n int) time.Time {
	switch kind {
	case RangeThisWeek:
		return t.AddDate(0, 0, 7*n)
	case RangeThisMonth:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// CurrentPeriod is the unit containing now, ending one minute before the next
// unit begins.
func CurrentPeriod(kind Range, now time.Time) Period {
	start := RangeStart(kind, now)
	return Period{Start: start, End: addUnits(kind, start, 1).Add(-time.Minute)}
}

// PreviousRange is the unit immediately before currentStart. It ends one
// minute before currentStart so the two periods never overlap.
func PreviousRange(kind Range, currentStart time.Time) Period {
	return Period{
		Start: addUnits(kind, currentStart, -1),
		End:   currentStart.Add(-time.Minute),
	}
}

// FetchSpan returns the date range covering the current and previous periods
// of every range kind, so one load serves any range the user selects.
func FetchSpan(now time.Time) (from, to time.Time) {
	for i, kind := range Ranges {
		cur := CurrentPeriod(kind, now)
		prev := PreviousRange(kind, cur.Start)
		if i == 0 || prev.Start.Before(from) {
			from = prev.Start
		}
		if i == 0 || cur.End.After(to) {
			to = cur.End
		}
	}
	return from, to
}

// FilterByRange keeps appointments whose scheduled start lies within
// [start, end]. A nil bound is open. Appointments with an unparseable start
// are dropped.
func FilterByRange(appts []appointments.Appointment, loc *time.Location, start, end *time.Time) []appointments.Appointment {
	var out []appointments.Appointment
	for _, a := range appts {
		at, err := a.StartAt(loc)
		if err != nil {
			continue
		}
		if start != nil && at.Before(*start) {
			continue
		}
		if end != nil && at.After(*end) {
			continue
		}
		out = append(out, a)
	}
	return out
}
