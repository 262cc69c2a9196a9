package automation

import (
	"sync"
	"time"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/kpi"
	"github.com/wolfman30/studio-pulse/internal/status"
	"github.com/wolfman30/studio-pulse/internal/suggest"
)

const (
	// InSessionLabel is shown while an appointment is in progress.
	InSessionLabel = "In session"

	maxRecent        = 3
	maxNotifications = 5
)

// ManualStatus is a user-entered custom label with an expiry.
type ManualStatus struct {
	Label     string    `json:"label"`
	SetAt     time.Time `json:"setAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notification is a message raised by a rule the first time it fires.
type Notification struct {
	RuleID  string    `json:"ruleId"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Causes recorded with a StatusChange.
const (
	CauseManual  = "manual"
	CauseExpiry  = "expiry"
	CauseSession = "session"
)

// StatusChange is one transition of the canonical status. Rule-driven
// changes carry the cause "rule:<pipeline>".
type StatusChange struct {
	From  status.Status `json:"from"`
	To    status.Status `json:"to"`
	Cause string        `json:"cause"`
	At    time.Time     `json:"at"`
}

// State is the automation state owned by one Scheduler.
type State struct {
	Status      status.Status
	StatusSince time.Time
	Manual      *ManualStatus

	Scheduled      []status.ScheduledStatus
	ScheduledLabel string
	RuleLabel      string
	LegacyLabel    string
	InSession      bool

	Recent        []string
	Notifications []Notification
	Fired         []status.Firing

	Window   analysis.Window
	KPIRange kpi.Range
	Day      analysis.Report
	KPI      kpi.Report
	Next     *suggest.NextAppointment
	Prompts  []suggest.Suggestion

	Today       string
	Greeting    string
	Suggestions []string
	UpdatedAt   time.Time

	changes     []StatusChange
	sinceBefore time.Time
}

// CustomLabel resolves the overlay label by precedence: in-session, active
// scheduled window, manual status, then rule suggestions.
func (s *State) CustomLabel() string {
	switch {
	case s.InSession:
		return InSessionLabel
	case s.ScheduledLabel != "":
		return s.ScheduledLabel
	case s.Manual != nil:
		return s.Manual.Label
	case s.RuleLabel != "":
		return s.RuleLabel
	default:
		return s.LegacyLabel
	}
}

// drainChanges nets the pending transitions into at most one change from the
// first From to the last To. A round trip back to the starting status yields
// nothing and restores StatusSince.
func (s *State) drainChanges() []StatusChange {
	pending := s.changes
	s.changes = nil
	if len(pending) <= 1 {
		return pending
	}
	first, last := pending[0], pending[len(pending)-1]
	if first.From == last.To {
		s.StatusSince = s.sinceBefore
		return nil
	}
	last.From = first.From
	return []StatusChange{last}
}

func (s *State) pushRecent(label string) {
	out := []string{label}
	for _, r := range s.Recent {
		if r != label {
			out = append(out, r)
		}
	}
	if len(out) > maxRecent {
		out = out[:maxRecent]
	}
	s.Recent = out
}

func (s *State) pushNotification(n Notification) {
	s.Notifications = append([]Notification{n}, s.Notifications...)
	if len(s.Notifications) > maxNotifications {
		s.Notifications = s.Notifications[:maxNotifications]
	}
}

// Snapshot is the read-only view handed to the dashboard.
type Snapshot struct {
	Status        status.Status            `json:"status"`
	StatusSince   time.Time                `json:"statusSince"`
	CustomStatus  string                   `json:"customStatus,omitempty"`
	Display       string                   `json:"display"`
	InSession     bool                     `json:"inSession"`
	Manual        *ManualStatus            `json:"manual,omitempty"`
	Scheduled     []status.ScheduledStatus `json:"scheduled"`
	Recent        []string                 `json:"recentStatuses"`
	FiringRules   []string                 `json:"firingRules"`
	Notifications []Notification           `json:"notifications"`
	Window        analysis.Window          `json:"timelineRange"`
	Gaps          []analysis.Interval      `json:"gaps"`
	Peak          *analysis.PeakRange      `json:"peak"`
	Utilization   int                      `json:"utilization"`
	KPI           kpi.Report               `json:"kpi"`
	Next          *suggest.NextAppointment `json:"nextAppointment"`
	Prompts       []suggest.Suggestion     `json:"prompts"`
	Today         string                   `json:"today"`
	Greeting      string                   `json:"greeting"`
	Suggestions   []string                 `json:"suggestions"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// Store guards a State. Update runs fn with exclusive access.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore creates a store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// Update applies fn to the state under the write lock.
func (s *Store) Update(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Snapshot copies the current state into its public view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &s.state

	snap := Snapshot{
		Status:        st.Status,
		StatusSince:   st.StatusSince,
		CustomStatus:  st.CustomLabel(),
		InSession:     st.InSession,
		Scheduled:     append([]status.ScheduledStatus(nil), st.Scheduled...),
		Recent:        append([]string(nil), st.Recent...),
		Notifications: append([]Notification(nil), st.Notifications...),
		Window:        st.Window,
		Gaps:          append([]analysis.Interval(nil), st.Day.Gaps...),
		Utilization:   st.Day.Utilization,
		KPI:           st.KPI,
		Prompts:       append([]suggest.Suggestion(nil), st.Prompts...),
		Today:         st.Today,
		Greeting:      st.Greeting,
		Suggestions:   append([]string(nil), st.Suggestions...),
		UpdatedAt:     st.UpdatedAt,
	}
	if st.Manual != nil {
		m := *st.Manual
		snap.Manual = &m
	}
	if st.Next != nil {
		n := *st.Next
		snap.Next = &n
	}
	if st.Day.Peak != nil {
		p := *st.Day.Peak
		snap.Peak = &p
	}
	snap.FiringRules = make([]string, 0, len(st.Fired))
	for _, f := range st.Fired {
		snap.FiringRules = append(snap.FiringRules, f.Description)
	}
	snap.Display = snap.CustomStatus
	if snap.Display == "" {
		snap.Display = string(st.Status)
	}
	return snap
}
