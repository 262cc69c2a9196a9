// Package timeline converts between wall-clock "HH:MM" strings, minutes from
// midnight, and offsets on the dashboard day timeline.
package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDurationMinutes is used when an appointment is missing either bound.
const DefaultDurationMinutes = 60

// MinutesPerDay is the length of one timeline day.
const MinutesPerDay = 24 * 60

// ErrInvalidTime is wrapped by every ParseError.
var ErrInvalidTime = errors.New("timeline: invalid time")

// ParseError reports a time string that is not a valid "HH:MM".
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("timeline: parse %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidTime }

// ParseMinutes converts "HH:MM" (or "HH:MM:SS") to minutes from midnight.
// "24:00" is accepted as the end of the day.
func ParseMinutes(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, &ParseError{Input: s, Reason: "empty"}
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &ParseError{Input: s, Reason: "expected HH:MM"}
	}
	hours, err := parseField(parts[0])
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "hours not numeric"}
	}
	minutes, err := parseField(parts[1])
	if err != nil || len(parts[1]) != 2 {
		return 0, &ParseError{Input: s, Reason: "minutes not numeric"}
	}
	seconds := 0
	if len(parts) == 3 {
		seconds, err = parseField(parts[2])
		if err != nil || seconds > 59 {
			return 0, &ParseError{Input: s, Reason: "seconds out of range"}
		}
	}
	if minutes > 59 {
		return 0, &ParseError{Input: s, Reason: "minutes out of range"}
	}
	if hours == 24 {
		if minutes != 0 || seconds != 0 {
			return 0, &ParseError{Input: s, Reason: "hours out of range"}
		}
		return MinutesPerDay, nil
	}
	if hours > 23 {
		return 0, &ParseError{Input: s, Reason: "hours out of range"}
	}
	return hours*60 + minutes, nil
}

func parseField(s string) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, strconv.ErrSyntax
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// FormatMinutes renders minutes from midnight as "HH:MM".
func FormatMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ToOffset returns the minutes between referenceHour and the given time.
func ToOffset(s string, referenceHour int) (int, error) {
	m, err := ParseMinutes(s)
	if err != nil {
		return 0, err
	}
	return m - referenceHour*60, nil
}

// MinutesOf returns the minutes elapsed since local midnight for t.
func MinutesOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// CurrentOffset places now on a timeline that begins at referenceHour and
// spans totalMinutes, clamped to [0, totalMinutes].
func CurrentOffset(now time.Time, referenceHour, totalMinutes int) int {
	offset := MinutesOf(now) - referenceHour*60
	if offset < 0 {
		return 0
	}
	if offset > totalMinutes {
		return totalMinutes
	}
	return offset
}

// Duration returns end-start in minutes, or DefaultDurationMinutes when
// either bound is missing.
func Duration(start, end string) (int, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return DefaultDurationMinutes, nil
	}
	s, err := ParseMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseMinutes(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// At returns the instant on the calendar day of ref (in loc) that is
// minutes past midnight.
func At(ref time.Time, loc *time.Location, minutes int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, mo, d := ref.In(loc).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, loc).Add(time.Duration(minutes) * time.Minute)
}
