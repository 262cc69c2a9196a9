package events

import "time"

// StatusChangedV1 records one transition of a provider's availability status.
type StatusChangedV1 struct {
	ProviderID string    `json:"provider_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Cause      string    `json:"cause"`
	ChangedAt  time.Time `json:"changed_at"`
}

func (StatusChangedV1) EventType() string { return "status.changed.v1" }
