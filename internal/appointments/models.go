package appointments

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/studio-pulse/internal/timeline"
)

// DateLayout is the calendar-date format used by Appointment.Date.
const DateLayout = "2006-01-02"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusPending   Status = "Pending"
)

// Valid reports whether s is a known status. The empty status is treated as
// Upcoming by callers.
func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusCompleted, StatusCancelled, StatusPending, "":
		return true
	}
	return false
}

var (
	ErrMissingDate    = errors.New("appointments: missing date")
	ErrInvalidDate    = errors.New("appointments: invalid date")
	ErrEndBeforeStart = errors.New("appointments: end must be after start")
	ErrUnknownStatus  = errors.New("appointments: unknown status")
)

// Appointment is a booked session between a provider and a client. Values are
// treated as immutable; use the With* helpers to derive modified copies.
type Appointment struct {
	ID          string         `json:"id"`
	ClientID    string         `json:"clientId"`
	ProviderID  string         `json:"providerId"`
	ServiceType string         `json:"serviceType"`
	Date        string         `json:"date"`
	StartTime   string         `json:"startTime"`
	EndTime     string         `json:"endTime"`
	Status      Status         `json:"status,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Location    string         `json:"location,omitempty"`
	PriceCents  int64          `json:"priceCents,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Cancelled reports whether the appointment was cancelled.
func (a Appointment) Cancelled() bool { return a.Status == StatusCancelled }

// Day parses Date as midnight in loc.
func (a Appointment) Day(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(a.Date) == "" {
		return time.Time{}, ErrMissingDate
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(a.Date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, a.Date)
	}
	return d, nil
}

// StartAt returns the scheduled start instant in loc.
func (a Appointment) StartAt(loc *time.Location) (time.Time, error) {
	return a.instant(loc, a.StartTime)
}

// EndAt returns the scheduled end instant in loc.
func (a Appointment) EndAt(loc *time.Location) (time.Time, error) {
	return a.instant(loc, a.EndTime)
}

func (a Appointment) instant(loc *time.Location, hhmm string) (time.Time, error) {
	day, err := a.Day(loc)
	if err != nil {
		return time.Time{}, err
	}
	m, err := timeline.ParseMinutes(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return timeline.At(day, day.Location(), m), nil
}

// Minutes returns the start and end of the appointment in minutes from midnight.
func (a Appointment) Minutes() (start, end int, err error) {
	start, err = timeline.ParseMinutes(a.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err = timeline.ParseMinutes(a.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// DurationMinutes returns the booked length, defaulting to 60 minutes when a
// bound is missing.
func (a Appointment) DurationMinutes() (int, error) {
	return timeline.Duration(a.StartTime, a.EndTime)
}

// Validate checks the same-day end-after-start invariant and the date.
func (a Appointment) Validate() error {
	if _, err := a.Day(time.UTC); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, a.Status)
	}
	start, end, err := a.Minutes()
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("%w: %s-%s", ErrEndBeforeStart, a.StartTime, a.EndTime)
	}
	return nil
}

// WithStatus returns a copy of a with the given status.
func (a Appointment) WithStatus(s Status, at time.Time) Appointment {
	a.Status = s
	a.UpdatedAt = at
	return a
}

// WithNotes returns a copy of a with the given notes.
func (a Appointment) WithNotes(notes string, at time.Time) Appointment {
	a.Notes = notes
	a.UpdatedAt = at
	return a
}
