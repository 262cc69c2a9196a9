// Package suggest produces the contextual prompts and primary call to action
// shown next to the upcoming appointment and the next free gap.
package suggest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/studio-pulse/internal/analysis"
	"github.com/wolfman30/studio-pulse/internal/appointments"
)

// Action is a button label offered with a suggestion.
type Action string

const (
	ActionBlockAdmin   Action = "Block Admin Time"
	ActionTakeBreak    Action = "Take a 15-min Break"
	ActionSendReminder Action = "Send Reminder"
	ActionPrepareRoom  Action = "Prepare Room"
	ActionGreetClient  Action = "Greet Client"
	ActionJoinCall     Action = "Join Call"
	ActionMarkArrived  Action = "Mark Arrived"
	ActionViewDetails  Action = "View Details"
)

// Mode is how an appointment is attended.
type Mode string

const (
	ModeInPerson   Mode = "inPerson"
	ModeTeleHealth Mode = "teleHealth"
)

const (
	// AdminGapMinutes is the shortest gap worth suggesting an admin block for.
	AdminGapMinutes = 120
	// BreakAfterSessions is the session count after which a break is suggested.
	BreakAfterSessions = 3
)

// Suggestion is one prompt with its offered actions.
type Suggestion struct {
	Text    string   `json:"text"`
	Actions []Action `json:"actions"`
}

// ForGap suggests uses for a free gap given how many sessions happen today.
// A nil gap only yields the break suggestion.
func ForGap(gap *analysis.Interval, sessionsToday int) []Suggestion {
	var out []Suggestion
	if gap != nil {
		if d := gap.Minutes(); d >= AdminGapMinutes {
			out = append(out, Suggestion{
				Text:    fmt.Sprintf("Looks like you have a %d-minute window, a great time for admin work", d),
				Actions: []Action{ActionBlockAdmin},
			})
		}
	}
	if sessionsToday >= BreakAfterSessions {
		out = append(out, Suggestion{
			Text:    fmt.Sprintf("You've had %d sessions, consider a quick break", sessionsToday),
			Actions: []Action{ActionTakeBreak},
		})
	}
	return out
}

// ForNextAppointment suggests preparation steps for an appointment starting
// in minutesUntil minutes.
func ForNextAppointment(minutesUntil int, clientName string) []Suggestion {
	var out []Suggestion
	if minutesUntil >= 60 {
		out = append(out, Suggestion{
			Text:    fmt.Sprintf("Your session with %s is in %d minutes. Send a reminder?", clientName, minutesUntil),
			Actions: []Action{ActionSendReminder},
		})
	}
	if minutesUntil < 60 && minutesUntil >= 15 {
		out = append(out, Suggestion{
			Text:    fmt.Sprintf("You have %d minutes before %s arrives. Time to prepare the room.", minutesUntil, clientName),
			Actions: []Action{ActionPrepareRoom},
		})
	}
	if minutesUntil <= 15 && minutesUntil > 0 {
		out = append(out, Suggestion{
			Text:    fmt.Sprintf("%s arrives in %d minutes. Get ready to greet them.", clientName, minutesUntil),
			Actions: []Action{ActionGreetClient},
		})
	}
	return out
}

// PrimaryCTA picks the single most relevant action for an appointment.
func PrimaryCTA(minutesUntil int, mode Mode, reminderSent bool) Action {
	switch {
	case minutesUntil <= 0:
		if mode == ModeTeleHealth {
			return ActionJoinCall
		}
		return ActionMarkArrived
	case minutesUntil <= 15:
		return ActionPrepareRoom
	case minutesUntil <= 60 && !reminderSent:
		return ActionSendReminder
	default:
		return ActionViewDetails
	}
}

// NextAppointment describes the upcoming appointment and what to do about it.
type NextAppointment struct {
	AppointmentID string       `json:"appointmentId"`
	ClientName    string       `json:"clientName"`
	Start         time.Time    `json:"start"`
	MinutesUntil  int          `json:"minutesUntil"`
	Mode          Mode         `json:"mode"`
	PrimaryCTA    Action       `json:"primaryCta"`
	Suggestions   []Suggestion `json:"suggestions"`
}

// Next finds the earliest non-cancelled appointment that has not ended by now
// and builds its suggestions. It returns nil when none remain.
func Next(appts []appointments.Appointment, now time.Time) *NextAppointment {
	type candidate struct {
		appt  appointments.Appointment
		start time.Time
	}
	var cands []candidate
	for _, a := range appts {
		if a.Cancelled() || a.Validate() != nil {
			continue
		}
		start, err := a.StartAt(now.Location())
		if err != nil {
			continue
		}
		end, err := a.EndAt(now.Location())
		if err != nil || !end.After(now) {
			continue
		}
		cands = append(cands, candidate{appt: a, start: start})
	}
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].start.Before(cands[j].start) })

	next := cands[0]
	minutes := int(next.start.Sub(now).Round(time.Minute) / time.Minute)
	name := ClientName(next.appt)
	mode := ModeOf(next.appt)
	return &NextAppointment{
		AppointmentID: next.appt.ID,
		ClientName:    name,
		Start:         next.start,
		MinutesUntil:  minutes,
		Mode:          mode,
		PrimaryCTA:    PrimaryCTA(minutes, mode, ReminderSent(next.appt)),
		Suggestions:   ForNextAppointment(minutes, name),
	}
}

// ClientName prefers metadata.clientName and falls back to the client id.
func ClientName(a appointments.Appointment) string {
	if name, ok := a.Metadata["clientName"].(string); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return a.ClientID
}

// ModeOf infers telehealth from metadata.mode or a virtual location.
func ModeOf(a appointments.Appointment) Mode {
	if m, ok := a.Metadata["mode"].(string); ok && Mode(m) == ModeTeleHealth {
		return ModeTeleHealth
	}
	switch strings.ToLower(strings.TrimSpace(a.Location)) {
	case "telehealth", "online", "virtual", "video":
		return ModeTeleHealth
	}
	return ModeInPerson
}

// ReminderSent reports metadata.reminderSent.
func ReminderSent(a appointments.Appointment) bool {
	sent, _ := a.Metadata["reminderSent"].(bool)
	return sent
}
