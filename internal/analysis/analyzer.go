package analysis

import (
	"sync"

	"github.com/wolfman30/studio-pulse/internal/appointments"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

// Report bundles the derived facts for one day.
type Report struct {
	Gaps          []Interval           `json:"gaps"`
	Peak          *PeakRange           `json:"peak"`
	Utilization   int                  `json:"utilization"`
	BookedMinutes int                  `json:"bookedMinutes"`
	Skipped       []SkippedAppointment `json:"-"`
	NewlySkipped  int                  `json:"-"`
}

// maxLoggedExclusions bounds the set of exclusions remembered for
// deduplication. The set starts over once it is full.
const maxLoggedExclusions = 512

// Analyzer computes day reports and logs each appointment it has to exclude
// once.
type Analyzer struct {
	minGap int
	logger *logging.Logger

	mu     sync.Mutex
	logged map[string]struct{}
}

// NewAnalyzer creates an analyzer. A non-positive minGap falls back to
// DefaultMinGapMinutes.
func NewAnalyzer(minGap int, logger *logging.Logger) *Analyzer {
	if minGap <= 0 {
		minGap = DefaultMinGapMinutes
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Analyzer{minGap: minGap, logger: logger, logged: make(map[string]struct{})}
}

// MinGap returns the configured gap threshold.
func (a *Analyzer) MinGap() int { return a.minGap }

// Analyze computes gaps, peak hour, and utilization for appts within window.
// Callers pass the day's non-cancelled appointments.
func (a *Analyzer) Analyze(appts []appointments.Appointment, window Window) Report {
	skipped := Skipped(appts)
	fresh := 0
	a.mu.Lock()
	for _, s := range skipped {
		key := s.ID + "|" + s.Err.Error()
		if _, ok := a.logged[key]; ok {
			continue
		}
		if len(a.logged) >= maxLoggedExclusions {
			a.logged = make(map[string]struct{})
		}
		a.logged[key] = struct{}{}
		fresh++
		a.logger.Warn("analysis: appointment excluded", "appointment_id", s.ID, "error", s.Err)
	}
	a.mu.Unlock()

	booked := BookedMinutes(appts)
	return Report{
		Gaps:          ComputeGaps(appts, window.StartHour, window.EndHour, a.minGap),
		Peak:          ComputePeakHour(appts),
		Utilization:   utilization(booked),
		BookedMinutes: booked,
		Skipped:       skipped,
		NewlySkipped:  fresh,
	}
}
