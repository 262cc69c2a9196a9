package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/kpi"
	"github.com/wolfman30/studio-pulse/internal/preferences"
	"github.com/wolfman30/studio-pulse/internal/status"
)

// MaxCustomStatusLength bounds manual custom statuses, in characters.
const MaxCustomStatusLength = 50

var (
	ErrEmptyStatus       = errors.New("automation: status is empty")
	ErrStatusTooLong     = fmt.Errorf("automation: status longer than %d characters", MaxCustomStatusLength)
	ErrNotCanonical      = errors.New("automation: not a canonical status")
	ErrScheduledNotFound = errors.New("automation: scheduled status not found")
)

// SetStatus applies a manual canonical status pick.
func (s *Scheduler) SetStatus(ctx context.Context, to status.Status) error {
	if !status.IsCanonical(string(to)) {
		return fmt.Errorf("%w: %q", ErrNotCanonical, to)
	}
	now := s.clock.Now()
	var changes []StatusChange
	s.store.Update(func(st *State) {
		s.setStatus(st, to, now, CauseManual)
		st.pushRecent(string(to))
		st.UpdatedAt = now
		changes = s.commit(st)
	})
	s.record(ctx, changes)
	return nil
}

// SetCustomStatus applies a manual free-text status that expires after the
// configured TTL. Text naming a canonical status is applied as SetStatus.
func (s *Scheduler) SetCustomStatus(ctx context.Context, label string) (ManualStatus, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return ManualStatus{}, ErrEmptyStatus
	}
	if utf8.RuneCountInString(label) > MaxCustomStatusLength {
		return ManualStatus{}, ErrStatusTooLong
	}
	if status.IsCanonical(label) {
		return ManualStatus{}, s.SetStatus(ctx, status.Status(label))
	}

	now := s.clock.Now()
	manual := ManualStatus{Label: label, SetAt: now, ExpiresAt: now.Add(s.customTTL)}
	s.store.Update(func(st *State) {
		m := manual
		st.Manual = &m
		st.pushRecent(label)
		st.UpdatedAt = now
	})
	s.logger.Info("automation: custom status set", "label", label, "expires_at", manual.ExpiresAt)
	return manual, nil
}

// ClearCustomStatus removes the manual custom status, if any.
func (s *Scheduler) ClearCustomStatus(_ context.Context) {
	now := s.clock.Now()
	s.store.Update(func(st *State) {
		st.Manual = nil
		st.UpdatedAt = now
	})
}

// AddScheduled registers a scheduled status window.
func (s *Scheduler) AddScheduled(_ context.Context, label string, from, to time.Time) (status.ScheduledStatus, error) {
	sched, err := status.NewScheduled(label, from, to)
	if err != nil {
		return status.ScheduledStatus{}, err
	}
	now := s.clock.Now()
	s.store.Update(func(st *State) {
		st.Scheduled = append(st.Scheduled, sched)
		st.UpdatedAt = now
	})
	return sched, nil
}

// RemoveScheduled deletes a scheduled status window by id.
func (s *Scheduler) RemoveScheduled(_ context.Context, id uuid.UUID) error {
	found := false
	s.store.Update(func(st *State) {
		kept := st.Scheduled[:0:0]
		for _, sched := range st.Scheduled {
			if sched.ID == id {
				found = true
				continue
			}
			kept = append(kept, sched)
		}
		st.Scheduled = kept
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrScheduledNotFound, id)
	}
	return nil
}

// SetWindow validates, persists, and applies a timeline window.
func (s *Scheduler) SetWindow(ctx context.Context, w analysis.Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if s.prefs != nil {
		if err := preferences.SaveWindow(ctx, s.prefs, w); err != nil {
			return fmt.Errorf("automation: persist window: %w", err)
		}
	}
	now := s.clock.Now()
	appts := s.cached()
	s.store.Update(func(st *State) {
		st.Window = w
		s.derive(st, appts, kpi.Today(appts, now), now)
		st.UpdatedAt = now
	})
	return nil
}

// ApplyPreset applies a named shift preset.
func (s *Scheduler) ApplyPreset(ctx context.Context, label string) (analysis.Window, error) {
	p, err := analysis.LookupPreset(label)
	if err != nil {
		return analysis.Window{}, err
	}
	if err := s.SetWindow(ctx, p.Window); err != nil {
		return analysis.Window{}, err
	}
	return p.Window, nil
}

// SetKPIRange switches the KPI reporting unit.
func (s *Scheduler) SetKPIRange(_ context.Context, r kpi.Range) error {
	parsed, err := kpi.ParseRange(string(r))
	if err != nil {
		return err
	}
	now := s.clock.Now()
	appts := s.cached()
	s.store.Update(func(st *State) {
		st.KPIRange = parsed
		st.KPI = s.kpis.WithWindow(st.Window).Compute(appts, parsed, now)
		st.UpdatedAt = now
	})
	return nil
}
