package search

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/greencity/event-service/internal/domain"
)

// row is the part of the event graph a predicate is evaluated against.
// day and tr are set only inside AnyDay and for translation predicates.
type row struct {
	e   *domain.Event
	day *domain.EventDayDetails
	tr  *domain.TagTranslation
}

// Evaluate reports whether p holds for e.
func Evaluate(p Predicate, e *domain.Event) bool {
	return row{e: e}.eval(p)
}

// EvaluateTranslation reports whether p, built from tag-translation fields,
// holds for tr.
func EvaluateTranslation(p Predicate, tr domain.TagTranslation) bool {
	return row{tr: &tr}.eval(p)
}

func (r row) eval(p Predicate) bool {
	switch v := p.(type) {
	case nil:
		return true
	case Const:
		return bool(v)
	case And:
		for _, q := range v {
			if !r.eval(q) {
				return false
			}
		}
		return true
	case Or:
		for _, q := range v {
			if r.eval(q) {
				return true
			}
		}
		return false
	case Contains:
		s, ok := r.value(v.Field)
		if !ok {
			return false
		}
		str, ok := s.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(str), strings.ToLower(Unescape(v.Pattern)))
	case Compare:
		s, ok := r.value(v.Field)
		if !ok || v.Value == nil {
			return false
		}
		c, ok := compareValues(s, v.Value)
		if !ok {
			return false
		}
		switch v.Op {
		case OpEq:
			return c == 0
		case OpLt:
			return c < 0
		case OpLe:
			return c <= 0
		case OpGt:
			return c > 0
		case OpGe:
			return c >= 0
		}
		return false
	case IsNull:
		_, ok := r.value(v.Field)
		return !ok
	case AnyDay:
		if r.e == nil {
			return false
		}
		for i := range r.e.Days {
			if (row{e: r.e, day: &r.e.Days[i]}).eval(v.Where) {
				return true
			}
		}
		return false
	case HasAnyTag:
		if r.e == nil {
			return false
		}
		for _, t := range r.e.Tags {
			if slices.Contains(v.TagIDs, t.ID) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("search: unsupported predicate %T", p))
}

// value returns the field's value, or false when it is null or out of scope.
func (r row) value(f Field) (any, bool) {
	switch f.Scope() {
	case ScopeEvent:
		if r.e == nil {
			return nil, false
		}
		switch f {
		case FieldID:
			return r.e.ID, true
		case FieldTitle:
			return r.e.Title, true
		case FieldDescription:
			return r.e.Description, true
		case FieldType:
			return string(r.e.Type), true
		case FieldCreatedAt:
			return r.e.CreatedAt, true
		}
	case ScopeDay:
		d := r.day
		if d == nil {
			return nil, false
		}
		switch f {
		case FieldDayDate:
			return d.Date, true
		case FieldDayStartTime:
			if d.StartTime == nil {
				return nil, false
			}
			return *d.StartTime, true
		case FieldDayEndTime:
			if d.EndTime == nil {
				return nil, false
			}
			return *d.EndTime, true
		case FieldDayOnline:
			return d.IsOnline, true
		case FieldDayOffline:
			return d.IsOffline, true
		case FieldDayOnlinePlace:
			return d.OnlinePlace, true
		case FieldDayOfflinePlace:
			return d.OfflinePlace, true
		}
	case ScopeTagTranslation:
		if r.tr == nil {
			return nil, false
		}
		switch f {
		case FieldTagLanguage:
			return r.tr.LanguageCode, true
		case FieldTagName:
			return r.tr.Name, true
		}
	}
	return nil, false
}

// compareValues orders a against b. It fails on mismatched kinds.
func compareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		switch y := b.(type) {
		case string:
			return strings.Compare(x, y), true
		case domain.EventType:
			return strings.Compare(x, string(y)), true
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	case domain.TimeOfDay:
		if y, ok := b.(domain.TimeOfDay); ok {
			return cmp.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			if x == y {
				return 0, true
			}
			if !x {
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

// SortEvents sorts events by orders. Day-level fields use the earliest day
// value for ascending orders and the latest for descending ones; events
// without a value sort last either way. Strings compare case-insensitively.
func SortEvents(events []*domain.Event, orders []Order) {
	slices.SortStableFunc(events, func(a, b *domain.Event) int {
		for _, o := range orders {
			ka, okA := sortKey(a, o)
			kb, okB := sortKey(b, o)
			switch {
			case !okA && !okB:
				continue
			case !okA:
				return 1
			case !okB:
				return -1
			}
			c, _ := compareValues(ka, kb)
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func sortKey(e *domain.Event, o Order) (any, bool) {
	if o.Field.Scope() != ScopeDay {
		v, ok := row{e: e}.value(o.Field)
		if s, isStr := v.(string); isStr && o.Field != FieldID {
			v = strings.ToLower(s)
		}
		return v, ok
	}

	var best any
	for i := range e.Days {
		v, ok := row{e: e, day: &e.Days[i]}.value(o.Field)
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr {
			if s == "" {
				continue
			}
			v = strings.ToLower(s)
		}
		if best == nil {
			best = v
			continue
		}
		c, _ := compareValues(v, best)
		if (!o.Desc && c < 0) || (o.Desc && c > 0) {
			best = v
		}
	}
	return best, best != nil
}
