package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Event is a versioned payload stored in the status_events log.
type Event interface {
	EventType() string
}

// Envelope is one stored row of the status_events log.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	Aggregate  string          `json:"aggregate"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

var (
	errMissingAggregate = errors.New("events: aggregate is required")
	errNilEvent         = errors.New("events: event required")
	nowFunc             = time.Now
)

// newEnvelope stamps evt for aggregate. A zero occurredAt means now. Times are
// kept at microsecond precision to match timestamptz.
func newEnvelope(aggregate string, evt Event, occurredAt time.Time) (Envelope, error) {
	aggregate = strings.TrimSpace(aggregate)
	if aggregate == "" {
		return Envelope{}, errMissingAggregate
	}
	if evt == nil {
		return Envelope{}, errNilEvent
	}
	eventType := strings.TrimSpace(evt.EventType())
	if eventType == "" {
		return Envelope{}, fmt.Errorf("events: event type missing")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	if occurredAt.IsZero() {
		occurredAt = nowFunc()
	}
	return Envelope{
		EventID:    uuid.New(),
		EventType:  eventType,
		Aggregate:  aggregate,
		OccurredAt: occurredAt.UTC().Truncate(time.Microsecond),
		Payload:    payload,
	}, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertEventSQL = `
	INSERT INTO status_events (id, aggregate, event_type, payload, occurred_at)
	VALUES ($1, $2, $3, $4, $5)
`

func appendEvent(ctx context.Context, exec execer, aggregate string, evt Event, occurredAt time.Time) (Envelope, error) {
	if exec == nil {
		return Envelope{}, fmt.Errorf("events: exec required")
	}
	env, err := newEnvelope(aggregate, evt, occurredAt)
	if err != nil {
		return Envelope{}, err
	}
	if _, err := exec.Exec(ctx, insertEventSQL, env.EventID, env.Aggregate, env.EventType, []byte(env.Payload), env.OccurredAt); err != nil {
		return Envelope{}, fmt.Errorf("events: append event: %w", err)
	}
	return env, nil
}
