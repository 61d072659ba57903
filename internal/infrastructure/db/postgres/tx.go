package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/greencity/event-service/internal/application/event"
	"github.com/greencity/event-service/internal/domain"
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

func (r *Repo) WithTx(ctx context.Context, fn func(tr event.TxEventRepo) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
		ReadOnly:  false,
	})
	if err != nil {
		return err
	}

	tr := &txRepo{tx: tx}

	defer func() {
		// Safety: in case fn panics, rollback to avoid leaked tx.
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tr); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepo struct {
	tx *sql.Tx
}

// Insert writes the event with its days and tag links. Day ids are set on e.
func (r *txRepo) Insert(ctx context.Context, e *domain.Event) error {
	images := e.ImageURLs
	if images == nil {
		images = []string{}
	}
	if _, err := r.tx.ExecContext(ctx, insertEventSQL,
		e.ID, e.AuthorID, e.Title, e.Description, string(e.Type), pq.Array(images), e.CreatedAt.UTC(),
	); err != nil {
		return err
	}

	for i := range e.Days {
		d := &e.Days[i]
		err := r.tx.QueryRowContext(ctx, insertDaySQL,
			e.ID, d.Date.Format(domain.DateLayout), nullableTime(d.StartTime), nullableTime(d.EndTime),
			d.IsOnline, d.IsOffline, d.OnlinePlace, d.OfflinePlace,
		).Scan(&d.ID)
		if err != nil {
			return err
		}
	}

	for _, id := range e.TagIDs() {
		if _, err := r.tx.ExecContext(ctx, insertEventTagSQL, e.ID, id); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
				return domain.ErrValidationMeta("unknown tag", map[string]string{
					"tag_ids": fmt.Sprintf("tag %d does not exist", id),
				})
			}
			return err
		}
	}
	return nil
}
