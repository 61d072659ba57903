package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/search"
)

// Table aliases used by compiled SQL: e = events, d = event_day_details,
// tt = tag_translations.
var columns = map[search.Field]string{
	search.FieldID:          "e.id",
	search.FieldTitle:       "e.title",
	search.FieldDescription: "e.description",
	search.FieldType:        "e.type",
	search.FieldCreatedAt:   "e.created_at",

	search.FieldDayDate:         "d.day_date",
	search.FieldDayStartTime:    "d.start_time",
	search.FieldDayEndTime:      "d.end_time",
	search.FieldDayOnline:       "d.is_online",
	search.FieldDayOffline:      "d.is_offline",
	search.FieldDayOnlinePlace:  "d.online_place",
	search.FieldDayOfflinePlace: "d.offline_place",

	search.FieldTagLanguage: "tt.language_code",
	search.FieldTagName:     "tt.name",
}

// sqlBuilder compiles predicates into a WHERE fragment with $N placeholders.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// compile renders p for rows of scope. Day fields are only reachable through
// AnyDay, and AnyDay only from the event scope.
func (b *sqlBuilder) compile(p search.Predicate, scope search.Scope) (string, error) {
	switch v := p.(type) {
	case nil:
		return "TRUE", nil
	case search.Const:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case search.And:
		return b.join(v, " AND ", "TRUE", scope)
	case search.Or:
		return b.join(v, " OR ", "FALSE", scope)
	case search.Contains:
		col, err := column(v.Field, scope)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`LOWER(%s) LIKE '%%' || %s || '%%' ESCAPE '\'`, col, b.arg(strings.ToLower(v.Pattern))), nil
	case search.Compare:
		col, err := column(v.Field, scope)
		if err != nil {
			return "", err
		}
		if v.Value == nil {
			return "FALSE", nil
		}
		val, err := b.value(v.Field, v.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", col, v.Op, val), nil
	case search.IsNull:
		col, err := column(v.Field, scope)
		if err != nil {
			return "", err
		}
		return col + " IS NULL", nil
	case search.AnyDay:
		if scope != search.ScopeEvent {
			return "", fmt.Errorf("postgres: AnyDay outside event scope")
		}
		inner, err := b.compile(v.Where, search.ScopeDay)
		if err != nil {
			return "", err
		}
		return "EXISTS (SELECT 1 FROM event_day_details d WHERE d.event_id = e.id AND " + inner + ")", nil
	case search.HasAnyTag:
		if scope != search.ScopeEvent {
			return "", fmt.Errorf("postgres: HasAnyTag outside event scope")
		}
		if len(v.TagIDs) == 0 {
			return "FALSE", nil
		}
		return "EXISTS (SELECT 1 FROM events_tags et WHERE et.event_id = e.id AND et.tag_id = ANY(" + b.arg(pq.Array(v.TagIDs)) + "))", nil
	}
	return "", fmt.Errorf("postgres: unsupported predicate %T", p)
}

func (b *sqlBuilder) join(ps []search.Predicate, sep, empty string, scope search.Scope) (string, error) {
	if len(ps) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		s, err := b.compile(p, scope)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// value binds v with the cast its column needs.
func (b *sqlBuilder) value(f search.Field, v any) (string, error) {
	switch x := v.(type) {
	case time.Time:
		if f == search.FieldDayDate {
			return b.arg(x.Format(domain.DateLayout)) + "::date", nil
		}
		return b.arg(x.UTC()), nil
	case domain.TimeOfDay:
		return b.arg(x.String()) + "::time", nil
	case domain.EventType:
		return b.arg(string(x)), nil
	case string, bool, int64:
		return b.arg(x), nil
	}
	return "", fmt.Errorf("postgres: unsupported comparison value %T", v)
}

func column(f search.Field, scope search.Scope) (string, error) {
	if f.Scope() != scope && !(scope == search.ScopeDay && f.Scope() == search.ScopeEvent) {
		return "", fmt.Errorf("postgres: field %s not available here", f)
	}
	col, ok := columns[f]
	if !ok {
		return "", fmt.Errorf("postgres: no column for field %s", f)
	}
	return col, nil
}

// orderBy renders ORDER BY terms. Day fields aggregate over the event's
// days and sort missing values last. Text sorts bytewise on lower case.
func orderBy(orders []search.Order) (string, error) {
	terms := make([]string, 0, len(orders))
	for _, o := range orders {
		dir := "ASC"
		agg := "MIN"
		if o.Desc {
			dir = "DESC"
			agg = "MAX"
		}

		var expr string
		switch o.Field {
		case search.FieldTitle, search.FieldDescription:
			expr = fmt.Sprintf(`LOWER(%s) COLLATE "C"`, columns[o.Field])
		case search.FieldID, search.FieldType, search.FieldCreatedAt:
			expr = columns[o.Field]
		case search.FieldDayDate:
			expr = fmt.Sprintf("(SELECT %s(d.day_date) FROM event_day_details d WHERE d.event_id = e.id)", agg)
		case search.FieldDayOfflinePlace, search.FieldDayOnlinePlace:
			col := columns[o.Field]
			expr = fmt.Sprintf(`(SELECT %s(LOWER(%s) COLLATE "C") FROM event_day_details d WHERE d.event_id = e.id AND %s <> '')`, agg, col, col)
		default:
			return "", fmt.Errorf("postgres: cannot order by %s", o.Field)
		}
		terms = append(terms, fmt.Sprintf("%s %s NULLS LAST", expr, dir))
	}
	if len(terms) == 0 {
		return "e.id ASC", nil
	}
	return strings.Join(terms, ", "), nil
}
