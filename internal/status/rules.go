package status

import "time"

// Rule ids of the built-in catalogue.
const (
	RuleLunchBreak         = "lunch-break"
	RuleNoAppointmentAdmin = "no-appointment-admin"
	RuleBackToBack         = "back-to-back-warning"
	RuleLongBusyStretch    = "long-busy-stretch"
	RuleEndOfDay           = "end-of-day"
	RuleFocusMorning       = "focus-morning"
	RuleAfternoonAdmin     = "afternoon-admin"
	RuleEarlyStartFocus    = "early-start-focus"
	RulePostLunch          = "post-lunch-energize"
	RuleLongGapStrategy    = "long-gap-strategy"
	RuleFridayWrapUp       = "friday-wrap-up"

	RuleIdleAdmin = "idle-admin-block"
	RuleDeepWork  = "idle-deep-work"
)

const (
	backToBackMaxGap   = 10 * time.Minute
	backToBackMinCount = 3
	longBusyThreshold  = 3 * time.Hour
	longGapThreshold   = 3 * time.Hour
	idleAdminLead      = 120 * time.Minute
	idleDeepWorkAfter  = 180 * time.Minute
)

// DefaultRules returns the automatic rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:      RuleLunchBreak,
			Trigger: TriggerTimeOfDay,
			Condition: func(c Context) bool {
				return c.Now.Hour() == 12 && c.NothingStartsBy(c.Now)
			},
			Intent:      Intent{CustomStatus: "Lunch break"},
			Description: "Set 'Lunch break' at 12:00 if no session is ongoing.",
		},
		{
			ID:      RuleNoAppointmentAdmin,
			Trigger: TriggerNoAppointments,
			Condition: func(c Context) bool {
				return c.NothingStartsBy(c.Now.Add(2 * time.Hour))
			},
			Intent:      Intent{CustomStatus: "Admin block"},
			Description: "Set 'Admin block' if no session within the next 2 hours.",
		},
		{
			ID:          RuleBackToBack,
			Trigger:     TriggerBackToBack,
			Condition:   backToBack,
			Intent:      Intent{CustomStatus: "Back-to-back sessions", Notify: "Three or more sessions are lined up back to back."},
			Description: "Set 'Back-to-back sessions' if 3 or more sessions are at most 10 minutes apart.",
		},
		{
			ID:      RuleLongBusyStretch,
			Trigger: TriggerLongBusy,
			Condition: func(c Context) bool {
				return c.CurrentStatus == Busy && !c.StatusSince.IsZero() && c.Now.Sub(c.StatusSince) >= longBusyThreshold
			},
			Intent:      Intent{CustomStatus: "Take a break soon", Notify: "You have been busy for over 3 hours."},
			Description: "Set 'Take a break soon' after 3+ hours continuously Busy.",
		},
		{
			ID:      RuleEndOfDay,
			Trigger: TriggerEndOfDay,
			Condition: func(c Context) bool {
				return c.Now.Hour() >= 19 && c.AllEnded()
			},
			Intent:      Intent{Status: Offline},
			Description: "Set status to Offline after 19:00 if nothing is left today.",
		},
		{
			ID:      RuleFocusMorning,
			Trigger: TriggerTimeOfDay,
			Condition: func(c Context) bool {
				h := c.Now.Hour()
				return h >= 8 && h < 10 && c.NothingStartsBy(c.Now)
			},
			Intent:      Intent{CustomStatus: "Focus time"},
			Description: "Set 'Focus time' between 08:00 and 10:00 if no session is ongoing.",
		},
		{
			ID:      RuleAfternoonAdmin,
			Trigger: TriggerTimeOfDay,
			Condition: func(c Context) bool {
				return c.Now.Hour() == 15 && c.NothingStartsBy(c.Now.Add(time.Hour))
			},
			Intent:      Intent{CustomStatus: "Admin block"},
			Description: "Set 'Admin block' at 15:00 if there is a free hour ahead.",
		},
		{
			ID:      RuleEarlyStartFocus,
			Trigger: TriggerTimeOfDay,
			Condition: func(c Context) bool {
				h := c.Now.Hour()
				return h >= 6 && h < 8
			},
			Intent:      Intent{CustomStatus: "Early focus time"},
			Description: "Set 'Early focus time' when active before 08:00.",
		},
		{
			ID:      RulePostLunch,
			Trigger: TriggerTimeOfDay,
			Condition: func(c Context) bool {
				return c.Now.Hour() == 13
			},
			Intent:      Intent{CustomStatus: "Quick reset"},
			Description: "Suggest 'Quick reset' after lunch (13:00).",
		},
		{
			ID:          RuleLongGapStrategy,
			Trigger:     TriggerNoAppointments,
			Condition:   longGapAhead,
			Intent:      Intent{CustomStatus: "Strategy session"},
			Description: "Suggest 'Strategy session' if the next two sessions are 3+ hours apart.",
		},
		{
			ID:      RuleFridayWrapUp,
			Trigger: TriggerTimeOfDay,
			Condition: func(c Context) bool {
				return c.Now.Weekday() == time.Friday && c.Now.Hour() >= 15
			},
			Intent:      Intent{CustomStatus: "Weekly review"},
			Description: "Suggest 'Weekly review' on Friday afternoons.",
		},
	}
}

// LegacyRules returns the idle-trigger table that runs on the slower
// five-minute cadence. Both rules only act while the status is not Available.
func LegacyRules() []Rule {
	return []Rule{
		{
			ID:      RuleIdleAdmin,
			Trigger: TriggerNoAppointments,
			Condition: func(c Context) bool {
				if c.CurrentStatus == Available {
					return false
				}
				next, ok := c.NextStart()
				return !ok || next.Sub(c.Now) >= idleAdminLead
			},
			Intent:      Intent{Status: Available, CustomStatus: "Admin block"},
			Description: "Switch to Available with 'Admin block' when the next session is 2+ hours away.",
		},
		{
			ID:      RuleDeepWork,
			Trigger: TriggerNoAppointments,
			Condition: func(c Context) bool {
				if c.CurrentStatus == Available {
					return false
				}
				last, ok := c.LastEnd()
				return !ok || c.Now.Sub(last) >= idleDeepWorkAfter
			},
			Intent:      Intent{Status: Available, CustomStatus: "Deep work"},
			Description: "Switch to Available with 'Deep work' 3+ hours after the last session.",
		},
	}
}

func backToBack(c Context) bool {
	sessions := c.Unfinished()
	count := 1
	for i := 1; i < len(sessions); i++ {
		if sessions[i].Start.Sub(sessions[i-1].End) <= backToBackMaxGap {
			count++
			if count >= backToBackMinCount {
				return true
			}
			continue
		}
		count = 1
	}
	return false
}

func longGapAhead(c Context) bool {
	var upcoming []time.Time
	for _, s := range c.Sessions {
		if s.Start.After(c.Now) {
			upcoming = append(upcoming, s.Start)
			if len(upcoming) == 2 {
				break
			}
		}
	}
	return len(upcoming) == 2 && upcoming[1].Sub(upcoming[0]) >= longGapThreshold
}
