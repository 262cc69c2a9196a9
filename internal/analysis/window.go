package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidWindow = errors.New("analysis: invalid timeline window")
	ErrUnknownPreset = errors.New("analysis: unknown shift preset")
)

// Window is the visible working day, in whole hours.
type Window struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

// DefaultWindow is the Workday preset.
var DefaultWindow = Window{StartHour: 8, EndHour: 20}

// Validate requires 0 <= StartHour < EndHour <= 24.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("%w: [%d,%d]", ErrInvalidWindow, w.StartHour, w.EndHour)
	}
	return nil
}

// TotalMinutes is the window length.
func (w Window) TotalMinutes() int { return (w.EndHour - w.StartHour) * 60 }

// ShiftPreset is a named fixed window offered to the user.
type ShiftPreset struct {
	Label  string `json:"label"`
	Window Window `json:"window"`
}

// ShiftPresets lists the selectable presets in display order.
var ShiftPresets = []ShiftPreset{
	{Label: "Early Shift", Window: Window{StartHour: 6, EndHour: 18}},
	{Label: "Workday", Window: Window{StartHour: 8, EndHour: 20}},
	{Label: "Late Start", Window: Window{StartHour: 10, EndHour: 22}},
}

// LookupPreset finds a preset by label, ignoring case.
func LookupPreset(label string) (ShiftPreset, error) {
	for _, p := range ShiftPresets {
		if strings.EqualFold(p.Label, strings.TrimSpace(label)) {
			return p, nil
		}
	}
	return ShiftPreset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, label)
}
