// Package analysis derives idle gaps, the busiest hour, and utilization from a
// day's appointments.
package analysis

import (
	"fmt"
	"sort"

	"github.com/wolfman30/studio-pulse/internal/appointments"
	"github.com/wolfman30/studio-pulse/internal/timeline"
)

const (
	// DefaultMinGapMinutes is the shortest idle span reported as a gap.
	DefaultMinGapMinutes = 180

	// UtilizationReferenceMinutes is the fixed 12-hour workday utilization is
	// normalised against. It does not follow the configured window so that
	// utilization stays comparable across shift presets.
	UtilizationReferenceMinutes = 720

	peakStartMinutes = 8 * 60
	peakBuckets      = 12
)

// Interval is a half-open span in minutes from midnight.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Minutes returns the length of the interval.
func (i Interval) Minutes() int { return i.End - i.Start }

// PeakRange is the busiest 60-minute bucket of the 08:00-20:00 partition.
type PeakRange struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// SkippedAppointment records an appointment excluded from analysis.
type SkippedAppointment struct {
	ID  string
	Err error
}

type span struct {
	start, end int
}

// spans parses appointment bounds, dropping the malformed ones. The returned
// slice preserves input order.
func spans(appts []appointments.Appointment) ([]span, []SkippedAppointment) {
	out := make([]span, 0, len(appts))
	var skipped []SkippedAppointment
	for _, a := range appts {
		s, e, err := a.Minutes()
		if err != nil {
			skipped = append(skipped, SkippedAppointment{ID: a.ID, Err: err})
			continue
		}
		if e <= s {
			skipped = append(skipped, SkippedAppointment{
				ID:  a.ID,
				Err: fmt.Errorf("%w: %s-%s", appointments.ErrEndBeforeStart, a.StartTime, a.EndTime),
			})
			continue
		}
		out = append(out, span{start: s, end: e})
	}
	return out, skipped
}

// Skipped lists the appointments that analysis excludes because their times
// cannot be parsed or do not form a positive span.
func Skipped(appts []appointments.Appointment) []SkippedAppointment {
	_, skipped := spans(appts)
	return skipped
}

// ComputeGaps returns idle intervals of at least minGap minutes inside
// [startHour, endHour]. Appointments are ordered by start with a stable sort;
// the cursor advances to the latest end seen so far, so overlapping or nested
// appointments never produce a gap inside booked time. With no usable
// appointments the whole window is one gap.
func ComputeGaps(appts []appointments.Appointment, startHour, endHour, minGap int) []Interval {
	windowStart := startHour * 60
	windowEnd := endHour * 60
	if windowEnd <= windowStart {
		return nil
	}

	parsed, _ := spans(appts)
	if len(parsed) == 0 {
		return []Interval{{Start: windowStart, End: windowEnd}}
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].start < parsed[j].start })

	var gaps []Interval
	emit := func(from, to int) {
		if from < windowStart {
			from = windowStart
		}
		if to > windowEnd {
			to = windowEnd
		}
		if to-from > 0 && to-from >= minGap {
			gaps = append(gaps, Interval{Start: from, End: to})
		}
	}

	cursor := windowStart
	for _, s := range parsed {
		emit(cursor, s.start)
		if s.end > cursor {
			cursor = s.end
		}
	}
	emit(cursor, windowEnd)
	return gaps
}

// ComputePeakHour buckets appointment starts into the twelve hours from 08:00
// and returns the earliest bucket with the highest count, or nil when no
// appointment starts inside the partition.
func ComputePeakHour(appts []appointments.Appointment) *PeakRange {
	var counts [peakBuckets]int
	for _, a := range appts {
		m, err := timeline.ParseMinutes(a.StartTime)
		if err != nil {
			continue
		}
		idx := (m - peakStartMinutes) / 60
		if m < peakStartMinutes || idx >= peakBuckets {
			continue
		}
		counts[idx]++
	}

	best := -1
	for i, c := range counts {
		if c == 0 {
			continue
		}
		if best == -1 || c > counts[best] {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	start := peakStartMinutes + best*60
	return &PeakRange{
		Start: start,
		End:   start + 60,
		Label: fmt.Sprintf("%d:00 - %d:00", 8+best, 9+best),
	}
}

// BookedMinutes sums appointment durations. A missing bound counts as the
// default 60 minutes; malformed times contribute nothing.
func BookedMinutes(appts []appointments.Appointment) int {
	total := 0
	for _, a := range appts {
		d, err := a.DurationMinutes()
		if err != nil || d <= 0 {
			continue
		}
		total += d
	}
	return total
}

// UtilizationPercent is round(100*booked/720) clamped to [0, 100].
func UtilizationPercent(appts []appointments.Appointment) int {
	return utilization(BookedMinutes(appts))
}

func utilization(booked int) int {
	if booked <= 0 {
		return 0
	}
	pct := (booked*100*2 + UtilizationReferenceMinutes) / (2 * UtilizationReferenceMinutes)
	if pct > 100 {
		return 100
	}
	return pct
}
