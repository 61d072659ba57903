package postgres

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/search"
)

func TestCompile_FreeTextAndTags(t *testing.T) {
	p := search.AnyOf(
		search.TextMatch([]string{`50\%`}, search.FieldTitle, search.FieldDescription),
		search.HasAnyTag{TagIDs: []int64{3, 9}},
	)

	b := &sqlBuilder{}
	sql, err := b.compile(p, search.ScopeEvent)
	require.NoError(t, err)

	assert.Equal(t,
		`(LOWER(e.title) LIKE '%' || $1 || '%' ESCAPE '\' OR `+
			`LOWER(e.description) LIKE '%' || $2 || '%' ESCAPE '\' OR `+
			`EXISTS (SELECT 1 FROM events_tags et WHERE et.event_id = e.id AND et.tag_id = ANY($3)))`,
		sql)
	assert.Equal(t, []any{`50\%`, `50\%`, pq.Array([]int64{3, 9})}, b.args)
}

func TestCompile_ContainsLowersPattern(t *testing.T) {
	b := &sqlBuilder{}
	_, err := b.compile(search.Contains{Field: search.FieldTitle, Pattern: "BeAch"}, search.ScopeEvent)
	require.NoError(t, err)
	assert.Equal(t, []any{"beach"}, b.args)
}

func TestCompile_Bucket(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)
	live, _ := search.NewBuilder(now).Bucket(search.BucketLive)

	b := &sqlBuilder{}
	sql, err := b.compile(live, search.ScopeEvent)
	require.NoError(t, err)

	assert.Equal(t,
		"EXISTS (SELECT 1 FROM event_day_details d WHERE d.event_id = e.id AND "+
			"(d.day_date = $1::date AND d.start_time <= $2::time AND "+
			"(d.end_time >= $3::time OR d.end_time IS NULL)))",
		sql)
	assert.Equal(t, []any{"2025-06-15", "12:30:00", "12:30:00"}, b.args)
}

func TestCompile_ConstantsAndType(t *testing.T) {
	b := &sqlBuilder{}

	sql, err := b.compile(search.True(), search.ScopeEvent)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", sql)

	sql, err = b.compile(search.HasAnyTag{}, search.ScopeEvent)
	require.NoError(t, err)
	assert.Equal(t, "FALSE", sql)

	sql, err = b.compile(search.Eq(search.FieldType, domain.TypeClosed), search.ScopeEvent)
	require.NoError(t, err)
	assert.Equal(t, "e.type = $1", sql)
	assert.Equal(t, []any{"CLOSED"}, b.args)
}

func TestCompile_TranslationScope(t *testing.T) {
	b := &sqlBuilder{}
	sql, err := b.compile(search.TranslationPredicate("en", []string{"sea", "tree"}), search.ScopeTagTranslation)
	require.NoError(t, err)

	assert.Equal(t,
		`(LOWER(tt.language_code) LIKE '%' || $1 || '%' ESCAPE '\' AND `+
			`(LOWER(tt.name) LIKE '%' || $2 || '%' ESCAPE '\' OR LOWER(tt.name) LIKE '%' || $3 || '%' ESCAPE '\'))`,
		sql)
}

func TestCompile_ScopeErrors(t *testing.T) {
	tests := []struct {
		name  string
		p     search.Predicate
		scope search.Scope
	}{
		{"day field outside AnyDay", search.Eq(search.FieldDayOnline, true), search.ScopeEvent},
		{"nested AnyDay", search.AnyDay{Where: search.AnyDay{Where: search.True()}}, search.ScopeEvent},
		{"event field in tag scope", search.Contains{Field: search.FieldTitle, Pattern: "x"}, search.ScopeTagTranslation},
		{"tags in tag scope", search.HasAnyTag{TagIDs: []int64{1}}, search.ScopeTagTranslation},
		{"unsupported value", search.Eq(search.FieldTitle, 1.5), search.ScopeEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&sqlBuilder{}).compile(tt.p, tt.scope)
			assert.Error(t, err)
		})
	}
}

func TestOrderBy(t *testing.T) {
	sql, err := orderBy([]search.Order{
		search.Asc(search.FieldDayOfflinePlace),
		search.Desc(search.FieldDayDate),
		search.Asc(search.FieldTitle),
		search.Asc(search.FieldID),
	})
	require.NoError(t, err)

	assert.Equal(t,
		`(SELECT MIN(LOWER(d.offline_place) COLLATE "C") FROM event_day_details d WHERE d.event_id = e.id AND d.offline_place <> '') ASC NULLS LAST, `+
			`(SELECT MAX(d.day_date) FROM event_day_details d WHERE d.event_id = e.id) DESC NULLS LAST, `+
			`LOWER(e.title) COLLATE "C" ASC NULLS LAST, `+
			`e.id ASC NULLS LAST`,
		sql)

	_, err = orderBy([]search.Order{search.Asc(search.FieldTagName)})
	assert.Error(t, err)
}
