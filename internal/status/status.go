// Package status decides a professional's availability label from a table of
// condition/intent rules evaluated against a read-only context.
package status

import (
	"sort"
	"time"

	"github.com/wolfman30/studio-pulse/internal/appointments"
)

// Status is one of the canonical availability values.
type Status string

const (
	Available Status = "Available"
	Busy      Status = "Busy"
	Offline   Status = "Offline"
)

// Canonical lists the canonical statuses in display order.
var Canonical = []Status{Available, Busy, Offline}

// IsCanonical reports whether s names a canonical status.
func IsCanonical(s string) bool {
	for _, c := range Canonical {
		if string(c) == s {
			return true
		}
	}
	return false
}

// TriggerKind classifies what a rule reacts to.
type TriggerKind string

const (
	TriggerTimeOfDay      TriggerKind = "timeOfDay"
	TriggerAppointment    TriggerKind = "appointmentStart"
	TriggerNoAppointments TriggerKind = "noAppointments"
	TriggerBackToBack     TriggerKind = "backToBackAppointments"
	TriggerLongBusy       TriggerKind = "longBusy"
	TriggerEndOfDay       TriggerKind = "endOfDay"
)

// Session is an appointment resolved to absolute instants.
type Session struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Context is the snapshot a rule condition reads. Conditions must not modify it.
type Context struct {
	Now           time.Time
	Appointments  []appointments.Appointment
	Sessions      []Session
	CurrentStatus Status
	StatusSince   time.Time
	CustomStatus  string
}

// NewContext resolves appts into sessions in now's location. Cancelled and
// malformed appointments do not become sessions.
func NewContext(now time.Time, appts []appointments.Appointment, current Status, since time.Time, custom string) Context {
	return Context{
		Now:           now,
		Appointments:  appts,
		Sessions:      ResolveSessions(appts, now.Location()),
		CurrentStatus: current,
		StatusSince:   since,
		CustomStatus:  custom,
	}
}

// ResolveSessions converts appointments to sessions sorted by start.
func ResolveSessions(appts []appointments.Appointment, loc *time.Location) []Session {
	out := make([]Session, 0, len(appts))
	for _, a := range appts {
		if a.Cancelled() {
			continue
		}
		start, err := a.StartAt(loc)
		if err != nil {
			continue
		}
		end, err := a.EndAt(loc)
		if err != nil || !end.After(start) {
			continue
		}
		out = append(out, Session{ID: a.ID, Start: start, End: end})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Unfinished returns the sessions that end after now.
func (c Context) Unfinished() []Session {
	var out []Session
	for _, s := range c.Sessions {
		if s.End.After(c.Now) {
			out = append(out, s)
		}
	}
	return out
}

// NothingStartsBy reports whether every unfinished session starts after t.
// Ongoing sessions therefore make it false for any t >= Now.
func (c Context) NothingStartsBy(t time.Time) bool {
	for _, s := range c.Unfinished() {
		if !s.Start.After(t) {
			return false
		}
	}
	return true
}

// AllEnded reports whether every session ended strictly before now.
func (c Context) AllEnded() bool {
	for _, s := range c.Sessions {
		if !s.End.Before(c.Now) {
			return false
		}
	}
	return true
}

// NextStart returns the earliest session start after now.
func (c Context) NextStart() (time.Time, bool) {
	for _, s := range c.Sessions {
		if s.Start.After(c.Now) {
			return s.Start, true
		}
	}
	return time.Time{}, false
}

// LastEnd returns the latest session end before now.
func (c Context) LastEnd() (time.Time, bool) {
	var last time.Time
	found := false
	for _, s := range c.Sessions {
		if s.End.Before(c.Now) && (!found || s.End.After(last)) {
			last = s.End
			found = true
		}
	}
	return last, found
}
