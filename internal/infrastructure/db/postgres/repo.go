package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/greencity/event-service/internal/application/event"
	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/search"
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

var _ event.EventRepo = (*Repo)(nil)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, getEventSQL, id)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return nil, err
	}
	if err := loadDetails(ctx, r.db, []*domain.Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// SearchEvents runs the page and count queries in one read-only
// repeatable-read transaction so both see the same snapshot.
func (r *Repo) SearchEvents(ctx context.Context, q search.Query) ([]*domain.Event, int64, error) {
	b := &sqlBuilder{}
	where, err := b.compile(q.Where, search.ScopeEvent)
	if err != nil {
		return nil, 0, err
	}
	order, err := orderBy(q.OrderBy)
	if err != nil {
		return nil, 0, err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	countSQL := "SELECT COUNT(*) FROM events e WHERE " + where
	var total int64
	if err := tx.QueryRowContext(ctx, countSQL, b.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || q.Offset >= int(total) {
		return []*domain.Event{}, total, tx.Commit()
	}

	argN := len(b.args)
	listSQL := `
SELECT ` + eventColumns + `
FROM events e
WHERE ` + where + `
ORDER BY ` + order + `
LIMIT $` + fmt.Sprintf("%d", argN+1) + ` OFFSET $` + fmt.Sprintf("%d", argN+2)

	args := append(b.args, q.Limit, q.Offset)
	rows, err := tx.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := loadDetails(ctx, tx, out); err != nil {
		return nil, 0, err
	}
	return out, total, tx.Commit()
}

func (r *Repo) MatchingTagIDs(ctx context.Context, where search.Predicate) ([]int64, error) {
	b := &sqlBuilder{}
	cond, err := b.compile(where, search.ScopeTagTranslation)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT tt.tag_id FROM tag_translations tt WHERE "+cond+" ORDER BY tt.tag_id",
		b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repo) ListTags(ctx context.Context, lang string) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, listTagsSQL, lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Tag{}
	for rows.Next() {
		var tr domain.TagTranslation
		if err := rows.Scan(&tr.TagID, &tr.LanguageCode, &tr.Name); err != nil {
			return nil, err
		}
		out = append(out, domain.Tag{ID: tr.TagID, Translations: []domain.TagTranslation{tr}})
	}
	return out, rows.Err()
}

func (r *Repo) CitySuggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	pattern, err := search.Sanitize(strings.ToLower(prefix))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, citySuggestionsSQL, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var city string
		var uses int64
		if err := rows.Scan(&city, &uses); err != nil {
			return nil, err
		}
		out = append(out, city)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var typ string
	if err := row.Scan(
		&e.ID, &e.AuthorID, &e.Title, &e.Description, &typ,
		pq.Array(&e.ImageURLs), &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.Type = domain.EventType(typ)
	if !e.Type.Valid() {
		return nil, domain.ErrInvalidState("invalid event type in db")
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.Days = []domain.EventDayDetails{}
	e.Tags = []domain.Tag{}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()

	out := []*domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// loadDetails fills Days and Tags of events with two batched queries.
func loadDetails(ctx context.Context, q querier, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Event, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	if err := loadDays(ctx, q, ids, byID); err != nil {
		return err
	}
	return loadTags(ctx, q, ids, byID)
}

func loadDays(ctx context.Context, q querier, ids []string, byID map[string]*domain.Event) error {
	rows, err := q.QueryContext(ctx, selectDaysSQL, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d          domain.EventDayDetails
			eventID    string
			date       string
			start, end sql.NullString
		)
		if err := rows.Scan(
			&d.ID, &eventID, &date, &start, &end,
			&d.IsOnline, &d.IsOffline, &d.OnlinePlace, &d.OfflinePlace,
		); err != nil {
			return err
		}
		if d.Date, err = domain.ParseDate(date); err != nil {
			return err
		}
		if d.StartTime, err = nullTimeOfDay(start); err != nil {
			return err
		}
		if d.EndTime, err = nullTimeOfDay(end); err != nil {
			return err
		}
		if e, ok := byID[eventID]; ok {
			e.Days = append(e.Days, d)
		}
	}
	return rows.Err()
}

func loadTags(ctx context.Context, q querier, ids []string, byID map[string]*domain.Event) error {
	rows, err := q.QueryContext(ctx, selectEventTagsSQL, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID    string
			tagID      int64
			lang, name sql.NullString
		)
		if err := rows.Scan(&eventID, &tagID, &lang, &name); err != nil {
			return err
		}
		e, ok := byID[eventID]
		if !ok {
			continue
		}
		if n := len(e.Tags); n == 0 || e.Tags[n-1].ID != tagID {
			e.Tags = append(e.Tags, domain.Tag{ID: tagID, Translations: []domain.TagTranslation{}})
		}
		if lang.Valid {
			t := &e.Tags[len(e.Tags)-1]
			t.Translations = append(t.Translations, domain.TagTranslation{
				TagID: tagID, LanguageCode: lang.String, Name: name.String,
			})
		}
	}
	return rows.Err()
}

func nullTimeOfDay(s sql.NullString) (*domain.TimeOfDay, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := domain.ParseTimeOfDay(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableTime(t *domain.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return t.String()
}
