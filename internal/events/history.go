package events

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/studio-pulse/internal/automation"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

// DB is the subset of pgx used by the status log.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 20

// StatusLog persists status transitions for one provider.
type StatusLog struct {
	db         DB
	providerID string
	logger     *logging.Logger
}

// NewStatusLog creates a status log backed by a pgx pool.
func NewStatusLog(pool *pgxpool.Pool, providerID string, logger *logging.Logger) *StatusLog {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return NewStatusLogWithDB(pool, providerID, logger)
}

// NewStatusLogWithDB creates a status log over any pgx-compatible DB.
func NewStatusLogWithDB(db DB, providerID string, logger *logging.Logger) *StatusLog {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusLog{db: db, providerID: providerID, logger: logger}
}

func (l *StatusLog) aggregate() string {
	return "provider:" + l.providerID
}

var _ automation.StatusRecorder = (*StatusLog)(nil)

// RecordStatusChange appends a StatusChangedV1 event.
func (l *StatusLog) RecordStatusChange(ctx context.Context, c automation.StatusChange) error {
	evt := StatusChangedV1{
		ProviderID: l.providerID,
		From:       string(c.From),
		To:         string(c.To),
		Cause:      c.Cause,
		ChangedAt:  c.At,
	}
	env, err := appendEvent(ctx, l.db, l.aggregate(), evt, c.At)
	if err != nil {
		return err
	}
	l.logger.Debug("events: status change recorded", "event_id", env.EventID, "to", evt.To)
	return nil
}

// History returns the provider's most recent status changes, newest first.
func (l *StatusLog) History(ctx context.Context, limit int) ([]StatusChangedV1, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	query, args, err := psql.
		Select("payload").
		From("status_events").
		Where(sq.Eq{"aggregate": l.aggregate(), "event_type": StatusChangedV1{}.EventType()}).
		OrderBy("occurred_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("events: build history query: %w", err)
	}
	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("events: query history: %w", err)
	}
	defer rows.Close()

	var out []StatusChangedV1
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("events: scan history: %w", err)
		}
		var evt StatusChangedV1
		if err := json.Unmarshal(payload, &evt); err != nil {
			return nil, fmt.Errorf("events: decode history: %w", err)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}
