package postgres

import (
	"context"
	"database/sql"
	"math/rand"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/greencity/event-service/internal/application/event"
	"github.com/greencity/event-service/internal/metrics"
)

const insertOutboxSQL = `
INSERT INTO event_outbox (
  message_id, routing_key, body, created_at, status, next_retry_at
) VALUES ($1, $2, $3::jsonb, $4, 'pending', $4)
`

// InsertOutbox stores the message in the caller's transaction. It is due
// for publishing immediately.
func (r *txRepo) InsertOutbox(ctx context.Context, msg event.OutboxMessage) error {
	_, err := r.tx.ExecContext(ctx, insertOutboxSQL,
		msg.MessageID,
		msg.RoutingKey,
		string(msg.Body),
		msg.CreatedAt.UTC(),
	)
	return err
}

// Claims due rows (and rows whose reservation lapsed) in one statement.
// SKIP LOCKED lets several relays share the table.
const claimOutboxSQL = `
UPDATE event_outbox o
SET status = 'processing',
    next_retry_at = $2
WHERE o.id IN (
  SELECT id FROM event_outbox
  WHERE status IN ('pending', 'processing')
    AND (next_retry_at IS NULL OR next_retry_at <= $3)
  ORDER BY next_retry_at ASC NULLS FIRST, id ASC
  LIMIT $1
  FOR UPDATE SKIP LOCKED
)
RETURNING o.id, o.message_id, o.routing_key, o.body, o.attempts
`

const markOutboxSentSQL = `
UPDATE event_outbox
SET status = 'sent', sent_at = $2, last_error = NULL
WHERE id = $1
`

const markOutboxRetrySQL = `
UPDATE event_outbox
SET status = 'pending', attempts = attempts + 1, next_retry_at = $2, last_error = $3
WHERE id = $1
`

const markOutboxDeadSQL = `
UPDATE event_outbox
SET status = 'dead', attempts = attempts + 1, last_error = $2
WHERE id = $1
`

const purgeOutboxSQL = `
DELETE FROM event_outbox
WHERE status = 'sent' AND sent_at < $1
`

type OutboxOptions struct {
	BatchSize   int
	Interval    time.Duration
	MaxAttempts int
	// Reservation is how long a claimed row stays invisible to other relays.
	Reservation time.Duration
	MaxBackoff  time.Duration
	// Sent rows older than Retention are purged; zero keeps them.
	Retention time.Duration
}

func (o *OutboxOptions) defaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 10
	}
	if o.Reservation <= 0 {
		o.Reservation = 30 * time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Minute
	}
}

// OutboxRelay moves rows written by InsertOutbox to the broker.
// Delivery is at-least-once; message ids are stable across attempts.
type OutboxRelay struct {
	db   *sql.DB
	pub  event.EventPublisher
	opts OutboxOptions
	now  func() time.Time
}

func NewOutboxRelay(db *sql.DB, pub event.EventPublisher, opts OutboxOptions) *OutboxRelay {
	opts.defaults()
	return &OutboxRelay{
		db:   db,
		pub:  pub,
		opts: opts,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type outboxRow struct {
	ID         int64
	MessageID  string
	RoutingKey string
	Body       []byte
	Attempts   int
}

// Run polls until ctx is done.
func (w *OutboxRelay) Run(ctx context.Context) {
	// Jitter so instances started together do not poll in lockstep.
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(rand.Intn(1000)) * time.Millisecond):
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()
	lastPurge := w.now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				zlog.Warn().Err(err).Msg("outbox batch failed")
			}
			if w.opts.Retention > 0 && w.now().Sub(lastPurge) >= time.Hour {
				lastPurge = w.now()
				if n, err := w.Purge(ctx); err != nil {
					zlog.Warn().Err(err).Msg("outbox purge failed")
				} else if n > 0 {
					zlog.Info().Int64("rows", n).Msg("outbox purged")
				}
			}
		}
	}
}

// RelayOnce claims one batch and publishes it without holding row locks.
// It returns the number of claimed rows.
func (w *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	batch, err := w.claim(ctx)
	if err != nil {
		return 0, err
	}
	for _, item := range batch {
		w.deliver(ctx, item)
	}
	return len(batch), nil
}

func (w *OutboxRelay) claim(ctx context.Context) ([]outboxRow, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := w.now()
	rows, err := w.db.QueryContext(claimCtx, claimOutboxSQL, w.opts.BatchSize, now.Add(w.opts.Reservation), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []outboxRow
	for rows.Next() {
		var item outboxRow
		if err := rows.Scan(&item.ID, &item.MessageID, &item.RoutingKey, &item.Body, &item.Attempts); err != nil {
			return nil, err
		}
		batch = append(batch, item)
	}
	return batch, rows.Err()
}

func (w *OutboxRelay) deliver(ctx context.Context, item outboxRow) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := w.pub.PublishEvent(pubCtx, item.RoutingKey, item.MessageID, item.Body)
	cancel()

	resCtx, cancelRes := context.WithTimeout(ctx, 3*time.Second)
	defer cancelRes()

	if err == nil {
		metrics.RecordOutbox("sent")
		if _, uerr := w.db.ExecContext(resCtx, markOutboxSentSQL, item.ID, w.now()); uerr != nil {
			zlog.Warn().Err(uerr).Str("message_id", item.MessageID).Msg("outbox mark sent failed")
		}
		return
	}

	attempts := item.Attempts + 1
	log := zlog.Warn().Err(err).
		Str("message_id", item.MessageID).
		Str("rk", item.RoutingKey).
		Int("attempts", attempts)

	if attempts >= w.opts.MaxAttempts {
		log.Msg("outbox message is dead")
		metrics.RecordOutbox("dead")
		_, _ = w.db.ExecContext(resCtx, markOutboxDeadSQL, item.ID, err.Error())
		return
	}

	log.Msg("outbox publish failed, will retry")
	metrics.RecordOutbox("retry")
	next := w.now().Add(w.backoff(item.Attempts))
	_, _ = w.db.ExecContext(resCtx, markOutboxRetrySQL, item.ID, next, err.Error())
}

// backoff doubles from 1s per attempt, capped at MaxBackoff, plus up to 1s jitter.
func (w *OutboxRelay) backoff(attempts int) time.Duration {
	d := w.opts.MaxBackoff
	if attempts < 30 {
		if exp := time.Second << attempts; exp < d {
			d = exp
		}
	}
	return d + time.Duration(rand.Intn(1000))*time.Millisecond
}

// Purge deletes sent rows older than the retention window.
func (w *OutboxRelay) Purge(ctx context.Context) (int64, error) {
	if w.opts.Retention <= 0 {
		return 0, nil
	}
	res, err := w.db.ExecContext(ctx, purgeOutboxSQL, w.now().Add(-w.opts.Retention))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
