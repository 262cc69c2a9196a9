package status

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidScheduledWindow = errors.New("status: invalid scheduled window")

// ScheduledStatus is a user-authored window during which Label replaces
// automatic rule evaluation.
type ScheduledStatus struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"status"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// NewScheduled validates and builds a scheduled window.
func NewScheduled(label string, from, to time.Time) (ScheduledStatus, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return ScheduledStatus{}, fmt.Errorf("%w: empty label", ErrInvalidScheduledWindow)
	}
	if !to.After(from) {
		return ScheduledStatus{}, fmt.Errorf("%w: %s is not after %s", ErrInvalidScheduledWindow, to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return ScheduledStatus{ID: uuid.New(), Label: label, From: from, To: to}, nil
}

// ParseScheduled builds a window from RFC 3339 bounds.
func ParseScheduled(label, from, to string) (ScheduledStatus, error) {
	f, err := time.Parse(time.RFC3339, strings.TrimSpace(from))
	if err != nil {
		return ScheduledStatus{}, fmt.Errorf("%w: from: %v", ErrInvalidScheduledWindow, err)
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(to))
	if err != nil {
		return ScheduledStatus{}, fmt.Errorf("%w: to: %v", ErrInvalidScheduledWindow, err)
	}
	return NewScheduled(label, f, t)
}

// Active reports whether now lies strictly inside the window.
func (s ScheduledStatus) Active(now time.Time) bool {
	return now.After(s.From) && now.Before(s.To)
}

// ActiveScheduled returns the first window containing now.
func ActiveScheduled(list []ScheduledStatus, now time.Time) (ScheduledStatus, bool) {
	for _, s := range list {
		if s.Active(now) {
			return s, true
		}
	}
	return ScheduledStatus{}, false
}

// PruneScheduled drops windows that ended at or before now.
func PruneScheduled(list []ScheduledStatus, now time.Time) []ScheduledStatus {
	out := list[:0:0]
	for _, s := range list {
		if s.To.After(now) {
			out = append(out, s)
		}
	}
	return out
}
