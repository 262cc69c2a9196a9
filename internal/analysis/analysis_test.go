package analysis

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/studio-pulse/internal/appointments"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

func appt(id, start, end string) appointments.Appointment {
	return appointments.Appointment{
		ID:        id,
		Date:      "2024-05-06",
		StartTime: start,
		EndTime:   end,
		Status:    appointments.StatusUpcoming,
	}
}

func TestComputeGaps_EmptyIsWholeWindow(t *testing.T) {
	assert.Equal(t, []Interval{{Start: 480, End: 1200}}, ComputeGaps(nil, 8, 20, DefaultMinGapMinutes))
	assert.Equal(t, []Interval{{Start: 480, End: 1200}}, ComputeGaps([]appointments.Appointment{}, 8, 20, DefaultMinGapMinutes))
}

func TestComputeGaps(t *testing.T) {
	tests := []struct {
		name   string
		appts  []appointments.Appointment
		minGap int
		want   []Interval
	}{
		{
			name:   "leading and trailing",
			appts:  []appointments.Appointment{appt("a", "11:00", "12:00")},
			minGap: 180,
			want:   []Interval{{Start: 480, End: 660}, {Start: 720, End: 1200}},
		},
		{
			name:   "short gaps dropped",
			appts:  []appointments.Appointment{appt("a", "09:00", "10:00"), appt("b", "11:00", "18:00")},
			minGap: 180,
			want:   nil,
		},
		{
			name:   "between pair at threshold",
			appts:  []appointments.Appointment{appt("b", "15:00", "20:00"), appt("a", "08:00", "12:00")},
			minGap: 180,
			want:   []Interval{{Start: 720, End: 900}},
		},
		{
			name:   "nested overlap uses latest end",
			appts:  []appointments.Appointment{appt("a", "08:00", "16:00"), appt("b", "09:00", "10:00"), appt("c", "19:30", "20:00")},
			minGap: 180,
			want:   []Interval{{Start: 960, End: 1170}},
		},
		{
			name:   "appointment outside window is clamped",
			appts:  []appointments.Appointment{appt("a", "06:00", "09:00")},
			minGap: 60,
			want:   []Interval{{Start: 540, End: 1200}},
		},
		{
			name:   "malformed excluded",
			appts:  []appointments.Appointment{appt("bad", "later", "soon"), appt("a", "08:00", "17:00")},
			minGap: 180,
			want:   []Interval{{Start: 1020, End: 1200}},
		},
		{
			name:   "only malformed is whole window",
			appts:  []appointments.Appointment{appt("bad", "x", "y")},
			minGap: 180,
			want:   []Interval{{Start: 480, End: 1200}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeGaps(tt.appts, 8, 20, tt.minGap))
		})
	}
}

func TestComputeGaps_Properties(t *testing.T) {
	appts := []appointments.Appointment{
		appt("a", "08:30", "09:00"),
		appt("b", "12:30", "13:00"),
		appt("c", "13:10", "14:00"),
	}
	gaps := ComputeGaps(appts, 8, 20, 60)
	require.NotEmpty(t, gaps)
	for i, g := range gaps {
		assert.GreaterOrEqual(t, g.Minutes(), 60)
		assert.GreaterOrEqual(t, g.Start, 480)
		assert.LessOrEqual(t, g.End, 1200)
		if i > 0 {
			assert.GreaterOrEqual(t, g.Start, gaps[i-1].End)
		}
	}
	assert.Equal(t, []Interval{{Start: 540, End: 750}, {Start: 840, End: 1200}}, gaps)
}

func TestComputePeakHour(t *testing.T) {
	peak := ComputePeakHour([]appointments.Appointment{appt("a", "09:15", "09:30"), appt("b", "09:45", "10:15")})
	require.NotNil(t, peak)
	assert.Equal(t, PeakRange{Start: 540, End: 600, Label: "9:00 - 10:00"}, *peak)
}

func TestComputePeakHour_TieFavorsEarliest(t *testing.T) {
	peak := ComputePeakHour([]appointments.Appointment{appt("a", "14:00", "15:00"), appt("b", "10:00", "11:00")})
	require.NotNil(t, peak)
	assert.Equal(t, 600, peak.Start)
	assert.Equal(t, "10:00 - 11:00", peak.Label)
}

func TestComputePeakHour_NilWhenEmptyOrOutside(t *testing.T) {
	assert.Nil(t, ComputePeakHour(nil))
	assert.Nil(t, ComputePeakHour([]appointments.Appointment{appt("a", "07:00", "08:00"), appt("b", "20:00", "21:00")}))
	assert.Nil(t, ComputePeakHour([]appointments.Appointment{appt("bad", "??", "10:00")}))
}

func TestUtilizationPercent(t *testing.T) {
	assert.Equal(t, 0, UtilizationPercent(nil))
	// 60 / 720 = 8.33 -> 8
	assert.Equal(t, 8, UtilizationPercent([]appointments.Appointment{appt("a", "08:00", "09:00")}))
	// 90 / 720 = 12.5 -> 13
	assert.Equal(t, 13, UtilizationPercent([]appointments.Appointment{appt("a", "08:00", "09:30")}))
	// missing end defaults to 60 minutes
	assert.Equal(t, 8, UtilizationPercent([]appointments.Appointment{appt("a", "08:00", "")}))
	assert.Equal(t, 100, UtilizationPercent([]appointments.Appointment{appt("a", "06:00", "18:00")}))
	assert.Equal(t, 100, UtilizationPercent([]appointments.Appointment{appt("a", "06:00", "18:00"), appt("b", "18:00", "20:00")}))
}

func TestUtilizationPercent_Monotonic(t *testing.T) {
	prev := 0
	for booked := 0; booked <= 900; booked += 15 {
		got := utilization(booked)
		assert.GreaterOrEqual(t, got, prev)
		assert.LessOrEqual(t, got, 100)
		prev = got
	}
	assert.Equal(t, 100, utilization(720))
}

func TestAnalyzer_LogsExcluded(t *testing.T) {
	var buf bytes.Buffer
	a := NewAnalyzer(0, logging.NewWithWriter(&buf, "info"))
	assert.Equal(t, DefaultMinGapMinutes, a.MinGap())

	report := a.Analyze([]appointments.Appointment{appt("bad", "nope", "10:00"), appt("a", "09:00", "10:00")}, DefaultWindow)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "bad", report.Skipped[0].ID)
	assert.Contains(t, buf.String(), "analysis: appointment excluded")
	assert.Contains(t, buf.String(), `"appointment_id":"bad"`)
	assert.Equal(t, 60, report.BookedMinutes)
	assert.Equal(t, 8, report.Utilization)
	require.NotNil(t, report.Peak)
	assert.Equal(t, 540, report.Peak.Start)
	assert.Equal(t, []Interval{{Start: 600, End: 1200}}, report.Gaps)
	assert.Equal(t, 1, report.NewlySkipped)

	buf.Reset()
	again := a.Analyze([]appointments.Appointment{appt("bad", "nope", "10:00")}, DefaultWindow)
	assert.Len(t, again.Skipped, 1)
	assert.Zero(t, again.NewlySkipped)
	assert.Empty(t, buf.String())
}

func TestAnalyzer_ExclusionMemoryIsBounded(t *testing.T) {
	a := NewAnalyzer(0, logging.Discard())
	var bad []appointments.Appointment
	for i := 0; i < maxLoggedExclusions+100; i++ {
		bad = append(bad, appt(fmt.Sprintf("bad-%d", i), "nope", "10:00"))
	}

	report := a.Analyze(bad, DefaultWindow)
	assert.Equal(t, len(bad), report.NewlySkipped)
	assert.LessOrEqual(t, len(a.logged), maxLoggedExclusions)

	again := a.Analyze(bad[len(bad)-1:], DefaultWindow)
	assert.Zero(t, again.NewlySkipped)
}

func TestWindowAndPresets(t *testing.T) {
	assert.NoError(t, DefaultWindow.Validate())
	assert.Equal(t, 720, DefaultWindow.TotalMinutes())
	assert.ErrorIs(t, Window{StartHour: 10, EndHour: 10}.Validate(), ErrInvalidWindow)
	assert.ErrorIs(t, Window{StartHour: -1, EndHour: 10}.Validate(), ErrInvalidWindow)
	assert.ErrorIs(t, Window{StartHour: 8, EndHour: 25}.Validate(), ErrInvalidWindow)

	p, err := LookupPreset("late start")
	require.NoError(t, err)
	assert.Equal(t, Window{StartHour: 10, EndHour: 22}, p.Window)

	_, err = LookupPreset("Night Owl")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}
