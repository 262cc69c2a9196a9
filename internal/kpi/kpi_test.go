package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/appointments"
)

// Wednesday 2024-05-15 10:30 UTC.
var wed = time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

func mk(id, date, start, end string, status appointments.Status, price int64) appointments.Appointment {
	return appointments.Appointment{
		ID: id, Date: date, StartTime: start, EndTime: end, Status: status, PriceCents: price,
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange(" this week ")
	require.NoError(t, err)
	assert.Equal(t, RangeThisWeek, r)

	_, err = ParseRange("Quarter")
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestRangeStart(t *testing.T) {
	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), RangeStart(RangeToday, wed))
	assert.Equal(t, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), RangeStart(RangeThisWeek, wed))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), RangeStart(RangeThisMonth, wed))

	sunday := time.Date(2024, 5, 12, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), RangeStart(RangeThisWeek, sunday))
}

func TestPreviousRange_AdjacentAndOneUnit(t *testing.T) {
	tests := []struct {
		kind      Range
		wantStart time.Time
	}{
		{RangeToday, time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)},
		{RangeThisWeek, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)},
		{RangeThisMonth, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			cur := CurrentPeriod(tt.kind, wed)
			prev := PreviousRange(tt.kind, cur.Start)
			assert.Equal(t, tt.wantStart, prev.Start)
			assert.Equal(t, cur.Start.Add(-time.Minute), prev.End)
			assert.True(t, prev.End.Before(cur.Start))
			assert.Equal(t, cur.Start, addUnits(tt.kind, prev.Start, 1))
			assert.False(t, prev.Contains(cur.Start))
		})
	}
}

func TestCurrentPeriod_EndsBeforeNextUnit(t *testing.T) {
	p := CurrentPeriod(RangeThisMonth, wed)
	assert.Equal(t, time.Date(2024, 5, 31, 23, 59, 0, 0, time.UTC), p.End)
	assert.True(t, p.Contains(wed))
}

func TestFetchSpan(t *testing.T) {
	// Sunday 2024-06-02: the previous week starts in May, the month range in June.
	now := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	from, to := FetchSpan(now)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC), to)
}

func TestFilterByRange(t *testing.T) {
	appts := []appointments.Appointment{
		mk("a", "2024-05-15", "09:00", "10:00", "", 0),
		mk("b", "2024-05-14", "23:30", "23:59", "", 0),
		mk("c", "2024-05-16", "00:00", "01:00", "", 0),
		mk("bad", "2024-05-15", "??", "10:00", "", 0),
	}
	day := CurrentPeriod(RangeToday, wed)
	got := FilterByRange(appts, time.UTC, &day.Start, &day.End)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	open := FilterByRange(appts, time.UTC, &day.Start, nil)
	assert.Len(t, open, 2)
}

func TestAggregator_Compute(t *testing.T) {
	appts := []appointments.Appointment{
		// today
		mk("t1", "2024-05-15", "08:00", "09:00", appointments.StatusCompleted, 6000),
		mk("t2", "2024-05-15", "09:00", "10:00", appointments.StatusCompleted, 4500),
		mk("t3", "2024-05-15", "11:00", "12:00", appointments.StatusCancelled, 9000),
		mk("t4", "2024-05-15", "12:00", "13:00", appointments.StatusUpcoming, 7000),
		// yesterday
		mk("y1", "2024-05-14", "10:00", "13:00", appointments.StatusCompleted, 3000),
		mk("y2", "2024-05-14", "14:00", "15:00", appointments.StatusCancelled, 0),
		mk("y3", "2024-05-14", "15:00", "16:00", appointments.StatusCancelled, 0),
	}
	agg := NewAggregator(analysis.DefaultWindow, 0, "")
	report := agg.Compute(appts, RangeToday, wed)

	assert.Equal(t, 2, report.Snapshot.Sessions)
	assert.Equal(t, 1, report.Snapshot.Cancellations)
	assert.EqualValues(t, 10500, report.Snapshot.RevenueCents)
	assert.Equal(t, "€105.00", report.Snapshot.Revenue)
	// 180 booked minutes of 720.
	assert.Equal(t, 25, report.Snapshot.Utilization)

	assert.Equal(t, 1, report.Previous.Sessions)
	assert.Equal(t, 2, report.Previous.Cancellations)
	assert.Equal(t, 25, report.Previous.Utilization)

	assert.Equal(t, Trends{RevenueCents: 7500, Sessions: 1, Cancellations: -1, Utilization: 0}, report.Trends)

	require.NotNil(t, report.Snapshot.NextGap)
	assert.Equal(t, analysis.Interval{Start: 780, End: 1200}, *report.Snapshot.NextGap)
	assert.Equal(t, "7h", report.Snapshot.NextGapLabel)
}

func TestAggregator_Empty(t *testing.T) {
	report := NewAggregator(analysis.DefaultWindow, 0, "$").Compute(nil, RangeThisWeek, wed)
	assert.Zero(t, report.Snapshot.Sessions)
	assert.Zero(t, report.Snapshot.Utilization)
	assert.Equal(t, "$0.00", report.Snapshot.Revenue)
	require.NotNil(t, report.Snapshot.NextGap)
	assert.Equal(t, analysis.Interval{Start: 480, End: 1200}, *report.Snapshot.NextGap)
	assert.Equal(t, "12h", report.Snapshot.NextGapLabel)
}

func TestAggregator_NoGapLeft(t *testing.T) {
	late := time.Date(2024, 5, 15, 21, 0, 0, 0, time.UTC)
	report := NewAggregator(analysis.DefaultWindow, 0, "").Compute(nil, RangeToday, late)
	assert.Nil(t, report.Snapshot.NextGap)
	assert.Equal(t, "None", report.Snapshot.NextGapLabel)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "€210.00", FormatCents(21000, "€"))
	assert.Equal(t, "-$0.05", FormatCents(-5, "$"))
}
