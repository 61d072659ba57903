package search

import (
	"fmt"
	"time"

	"github.com/greencity/event-service/internal/domain"
)

// Criterion is one filter condition supplied by a caller. Type selects the
// Kind; the shape of Value depends on it.
type Criterion struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Kind is the closed set of criterion types the engine understands.
type Kind int

const (
	KindLine Kind = iota + 1
	KindLocation
	KindTime
	KindDate
	KindType
)

var kindsByName = map[string]Kind{
	"eventLine":     KindLine,
	"eventLocation": KindLocation,
	"eventTime":     KindTime,
	"eventDate":     KindDate,
	"eventType":     KindType,
}

// ParseKind resolves a criterion type. Unknown types are not an error:
// callers skip them.
func ParseKind(s string) (Kind, bool) {
	k, ok := kindsByName[s]
	return k, ok
}

func (k Kind) String() string {
	for name, v := range kindsByName {
		if v == k {
			return name
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func invalidValue(c Criterion, reason string) error {
	return domain.ErrInvalidCriterionValue("invalid criterion value", map[string]string{
		"type":  c.Type,
		"key":   c.Key,
		"value": reason,
	})
}

// stringValue accepts nil (no constraint) or a string.
func stringValue(c Criterion) (string, error) {
	switch v := c.Value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	return "", invalidValue(c, "must be a string")
}

// dateRangeValue accepts a two-element list of "2006-01-02" strings.
// An empty or null element leaves that side open.
func dateRangeValue(c Criterion) (time.Time, time.Time, error) {
	var parts []any
	switch v := c.Value.(type) {
	case nil:
		return time.Time{}, time.Time{}, nil
	case []any:
		parts = v
	case []string:
		for _, s := range v {
			parts = append(parts, s)
		}
	case [2]string:
		parts = []any{v[0], v[1]}
	default:
		return time.Time{}, time.Time{}, invalidValue(c, "must be a two-element date list")
	}
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, invalidValue(c, "must be a two-element date list")
	}

	var bounds [2]time.Time
	for i, p := range parts {
		if p == nil {
			continue
		}
		s, ok := p.(string)
		if !ok {
			return time.Time{}, time.Time{}, invalidValue(c, "dates must be strings")
		}
		if s == "" {
			continue
		}
		d, err := domain.ParseDate(s)
		if err != nil {
			return time.Time{}, time.Time{}, invalidValue(c, "dates must be formatted as YYYY-MM-DD")
		}
		bounds[i] = d
	}
	if !bounds[0].IsZero() && !bounds[1].IsZero() && bounds[1].Before(bounds[0]) {
		return time.Time{}, time.Time{}, invalidValue(c, "end date must not be before start date")
	}
	return bounds[0], bounds[1], nil
}
