package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var columns = []string{
	"id",
	"client_id",
	"provider_id",
	"service_type",
	"to_char(appt_date, 'YYYY-MM-DD')",
	"to_char(start_time, 'HH24:MI')",
	"to_char(end_time, 'HH24:MI')",
	"status",
	"COALESCE(notes, '')",
	"COALESCE(location, '')",
	"price_cents",
	"COALESCE(metadata, '{}'::jsonb)",
	"created_at",
	"updated_at",
}

// Repository reads appointments from Postgres.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// ListForProvider returns a provider's appointments whose date lies in
// [from, to], ordered by date and start time.
func (r *Repository) ListForProvider(ctx context.Context, providerID string, from, to time.Time) ([]Appointment, error) {
	query, args, err := psql.
		Select(columns...).
		From("appointments").
		Where(sq.Eq{"provider_id": providerID}).
		Where(sq.GtOrEq{"appt_date": from.Format(DateLayout)}).
		Where(sq.LtOrEq{"appt_date": to.Format(DateLayout)}).
		OrderBy("appt_date", "start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("appointments: build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list for provider: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var (
			a        Appointment
			status   string
			metadata []byte
		)
		if err := rows.Scan(
			&a.ID, &a.ClientID, &a.ProviderID, &a.ServiceType,
			&a.Date, &a.StartTime, &a.EndTime, &status,
			&a.Notes, &a.Location, &a.PriceCents, &metadata,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		a.Status = Status(status)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("appointments: decode metadata for %s: %w", a.ID, err)
			}
			if len(a.Metadata) == 0 {
				a.Metadata = nil
			}
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate: %w", err)
	}
	return out, nil
}
