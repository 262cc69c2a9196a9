package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/studio-pulse/internal/automation"
	"github.com/wolfman30/studio-pulse/internal/status"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

func TestStatusLog_RecordStatusChange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2024, 5, 15, 9, 56, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO status_events`).
		WithArgs(pgxmock.AnyArg(), "provider:prov-1", "status.changed.v1", pgxmock.AnyArg(), at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	log := NewStatusLogWithDB(mock, "prov-1", logging.Discard())
	err = log.RecordStatusChange(context.Background(), automation.StatusChange{
		From: status.Available, To: status.Busy, Cause: automation.CauseSession, At: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusLog_RecordStatusChange_ExecError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO status_events`).WillReturnError(errors.New("relation does not exist"))

	log := NewStatusLogWithDB(mock, "prov-1", logging.Discard())
	err = log.RecordStatusChange(context.Background(), automation.StatusChange{To: status.Offline, At: time.Now()})
	assert.ErrorContains(t, err, "events: append event")
}

func TestStatusLog_History(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT payload FROM status_events WHERE aggregate = \$1 AND event_type = \$2 ORDER BY occurred_at DESC LIMIT 20`).
		WithArgs("provider:prov-1", "status.changed.v1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).
			AddRow([]byte(`{"provider_id":"prov-1","from":"Busy","to":"Available","cause":"session","changed_at":"2024-05-15T11:01:00Z"}`)).
			AddRow([]byte(`{"provider_id":"prov-1","from":"Available","to":"Busy","cause":"session","changed_at":"2024-05-15T09:56:00Z"}`)))

	log := NewStatusLogWithDB(mock, "prov-1", logging.Discard())
	history, err := log.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Available", history[0].To)
	assert.Equal(t, time.Date(2024, 5, 15, 9, 56, 0, 0, time.UTC), history[1].ChangedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusLog_History_BadPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT payload FROM status_events`).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`not json`)))

	log := NewStatusLogWithDB(mock, "prov-1", logging.Discard())
	_, err = log.History(context.Background(), 5)
	assert.ErrorContains(t, err, "events: decode history")
}

func TestNewStatusLog_PanicsWithoutPool(t *testing.T) {
	assert.Panics(t, func() { NewStatusLog(nil, "prov-1", nil) })
}
