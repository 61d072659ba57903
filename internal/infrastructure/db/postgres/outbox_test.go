package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	return m.Called(routingKey, messageID, string(body)).Error(0)
}

var outboxCols = []string{"id", "message_id", "routing_key", "body", "attempts"}

func newRelay(t *testing.T, pub *mockPublisher, opts OutboxOptions) (*OutboxRelay, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := NewOutboxRelay(db, pub, opts)
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }
	return w, dbMock
}

func TestOutboxRelay_RelayOnce(t *testing.T) {
	t.Run("publishes and marks sent", func(t *testing.T) {
		pub := &mockPublisher{}
		w, dbMock := newRelay(t, pub, OutboxOptions{})

		dbMock.ExpectQuery("UPDATE event_outbox o").
			WithArgs(20, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(outboxCols).AddRow(1, "m-1", "event.created", []byte(`{"a":1}`), 0))
		pub.On("PublishEvent", "event.created", "m-1", `{"a":1}`).Return(nil).Once()
		dbMock.ExpectExec("SET status = 'sent'").
			WithArgs(int64(1), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := w.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		pub.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("failed publish is rescheduled", func(t *testing.T) {
		pub := &mockPublisher{}
		w, dbMock := newRelay(t, pub, OutboxOptions{})

		dbMock.ExpectQuery("UPDATE event_outbox o").
			WillReturnRows(sqlmock.NewRows(outboxCols).AddRow(2, "m-2", "event.created", []byte(`{}`), 1))
		pub.On("PublishEvent", "event.created", "m-2", `{}`).Return(errors.New("NO_ROUTE: event.created")).Once()
		dbMock.ExpectExec("SET status = 'pending'").
			WithArgs(int64(2), sqlmock.AnyArg(), "NO_ROUTE: event.created").
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := w.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("last attempt marks dead", func(t *testing.T) {
		pub := &mockPublisher{}
		w, dbMock := newRelay(t, pub, OutboxOptions{MaxAttempts: 3})

		dbMock.ExpectQuery("UPDATE event_outbox o").
			WillReturnRows(sqlmock.NewRows(outboxCols).AddRow(3, "m-3", "event.created", []byte(`{}`), 2))
		pub.On("PublishEvent", "event.created", "m-3", `{}`).Return(errors.New("publish nack")).Once()
		dbMock.ExpectExec("SET status = 'dead'").
			WithArgs(int64(3), "publish nack").
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := w.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("claim error is returned", func(t *testing.T) {
		w, dbMock := newRelay(t, &mockPublisher{}, OutboxOptions{})
		dbMock.ExpectQuery("UPDATE event_outbox o").WillReturnError(errors.New("db down"))

		n, err := w.RelayOnce(context.Background())
		assert.EqualError(t, err, "db down")
		assert.Zero(t, n)
	})
}

func TestOutboxRelay_Backoff(t *testing.T) {
	w := NewOutboxRelay(nil, nil, OutboxOptions{MaxBackoff: 10 * time.Second})

	assert.GreaterOrEqual(t, w.backoff(0), time.Second)
	assert.Less(t, w.backoff(0), 2*time.Second)
	assert.GreaterOrEqual(t, w.backoff(2), 4*time.Second)
	assert.GreaterOrEqual(t, w.backoff(40), 10*time.Second)
	assert.Less(t, w.backoff(40), 11*time.Second)
}

func TestOutboxRelay_Purge(t *testing.T) {
	w, dbMock := newRelay(t, &mockPublisher{}, OutboxOptions{Retention: 24 * time.Hour})
	dbMock.ExpectExec("DELETE FROM event_outbox").
		WithArgs(time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := w.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	off := NewOutboxRelay(nil, nil, OutboxOptions{})
	n, err = off.Purge(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
