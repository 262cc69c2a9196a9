package status

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDuplicateRuleID = errors.New("status: duplicate rule id")

// Intent is what a firing rule asks for. Empty fields are left untouched.
type Intent struct {
	Status       Status `json:"status,omitempty"`
	CustomStatus string `json:"customStatus,omitempty"`
	Notify       string `json:"notify,omitempty"`
}

// Rule pairs a pure condition with the intent applied when it holds. A nil
// Condition always fires.
type Rule struct {
	ID          string
	Trigger     TriggerKind
	Condition   func(Context) bool
	Intent      Intent
	Description string
}

// Effects receives the intents of firing rules.
type Effects interface {
	SetStatus(Status)
	SetCustomStatus(string)
	Notify(string)
}

// Firing records one rule that fired during an evaluation.
type Firing struct {
	RuleID      string `json:"ruleId"`
	Description string `json:"description"`
	Intent      Intent `json:"intent"`
}

// Evaluation is the outcome of one pass over a rule table.
type Evaluation struct {
	Fired        []Firing
	Status       Status
	CustomStatus string
}

// Descriptions lists the descriptions of the fired rules in firing order.
func (e Evaluation) Descriptions() []string {
	out := make([]string, 0, len(e.Fired))
	for _, f := range e.Fired {
		out = append(out, f.Description)
	}
	return out
}

// Evaluate walks rules in table order. Each condition sees the status and
// custom label written by the rules before it; when several rules write the
// same field the last one wins. effects may be nil for a dry run.
func Evaluate(rules []Rule, ctx Context, effects Effects) Evaluation {
	var eval Evaluation
	for _, r := range rules {
		if r.Condition != nil && !r.Condition(ctx) {
			continue
		}
		in := r.Intent
		if in.Status != "" {
			if in.Status != ctx.CurrentStatus {
				ctx.StatusSince = ctx.Now
			}
			ctx.CurrentStatus = in.Status
			if effects != nil {
				effects.SetStatus(in.Status)
			}
		}
		if in.CustomStatus != "" {
			ctx.CustomStatus = in.CustomStatus
			if effects != nil {
				effects.SetCustomStatus(in.CustomStatus)
			}
		}
		if in.Notify != "" && effects != nil {
			effects.Notify(in.Notify)
		}
		eval.Fired = append(eval.Fired, Firing{RuleID: r.ID, Description: r.Description, Intent: in})
	}
	eval.Status = ctx.CurrentStatus
	eval.CustomStatus = ctx.CustomStatus
	return eval
}

// ValidateRules checks that every rule has a unique, non-empty id.
func ValidateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("status: rule %d has no id", i)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRuleID, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// Disable returns rules without the given ids, preserving order.
func Disable(rules []Rule, ids []string) []Rule {
	if len(ids) == 0 {
		return rules
	}
	off := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		off[strings.TrimSpace(id)] = struct{}{}
	}
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if _, skip := off[r.ID]; skip {
			continue
		}
		out = append(out, r)
	}
	return out
}
