package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Source supplies the appointment collection the scheduler analyses.
type Source interface {
	Appointments(ctx context.Context, now time.Time) ([]Appointment, error)
}

// StaticSource serves a fixed in-memory collection.
type StaticSource struct {
	mu    sync.RWMutex
	appts []Appointment
}

// NewStaticSource copies appts into a new source.
func NewStaticSource(appts []Appointment) *StaticSource {
	s := &StaticSource{}
	s.Replace(appts)
	return s
}

// Replace swaps the served collection.
func (s *StaticSource) Replace(appts []Appointment) {
	cp := make([]Appointment, len(appts))
	copy(cp, appts)
	s.mu.Lock()
	s.appts = cp
	s.mu.Unlock()
}

// Appointments returns a copy of the collection.
func (s *StaticSource) Appointments(_ context.Context, _ time.Time) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]Appointment, len(s.appts))
	copy(cp, s.appts)
	return cp, nil
}

// SpanFunc returns the date range that must be loaded to analyse now.
type SpanFunc func(now time.Time) (from, to time.Time)

// ProviderSource loads one provider's appointments from a Repository.
type ProviderSource struct {
	repo       *Repository
	providerID string
	span       SpanFunc
}

// NewProviderSource adapts repo to Source for providerID.
func NewProviderSource(repo *Repository, providerID string, span SpanFunc) *ProviderSource {
	if span == nil {
		span = func(now time.Time) (time.Time, time.Time) { return now, now }
	}
	return &ProviderSource{repo: repo, providerID: providerID, span: span}
}

// Appointments implements Source.
func (p *ProviderSource) Appointments(ctx context.Context, now time.Time) ([]Appointment, error) {
	from, to := p.span(now)
	return p.repo.ListForProvider(ctx, p.providerID, from, to)
}

// Decode reads a JSON array of appointments.
func Decode(r io.Reader) ([]Appointment, error) {
	var appts []Appointment
	if err := json.NewDecoder(r).Decode(&appts); err != nil {
		return nil, fmt.Errorf("appointments: decode: %w", err)
	}
	return appts, nil
}

// LoadFile reads a JSON array of appointments from path.
func LoadFile(path string) ([]Appointment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("appointments: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
