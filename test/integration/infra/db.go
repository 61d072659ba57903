package infra

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func OpenDB(dbURL string) (*sql.DB, error) {
	return sql.Open("postgres", dbURL)
}

func PingDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// ResetEvents empties everything the service writes. Tags are kept.
func ResetEvents(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, `TRUNCATE TABLE events, event_day_details, events_tags, event_outbox`)
	return err
}

// SeedTag upserts a tag with one name per language.
func SeedTag(db *sql.DB, id int64, names map[string]string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, `INSERT INTO tags (id) VALUES ($1) ON CONFLICT DO NOTHING`, id); err != nil {
		return err
	}
	for lang, name := range names {
		_, err := db.ExecContext(ctx, `
			INSERT INTO tag_translations (tag_id, language_code, name) VALUES ($1, $2, $3)
			ON CONFLICT (tag_id, language_code) DO UPDATE SET name = EXCLUDED.name`,
			id, lang, name)
		if err != nil {
			return err
		}
	}
	return nil
}
