package search

import (
	"fmt"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/metrics"
)

// Compiled is the outcome of evaluating a Specification.
type Compiled struct {
	Where   Predicate
	OrderBy []Order
	Skipped []Criterion
}

// Specification conjoins the predicates of an ordered list of criteria.
type Specification struct {
	criteria []Criterion
}

func NewSpecification(criteria []Criterion) *Specification {
	return &Specification{criteria: criteria}
}

// Build dispatches every criterion to b. Orders are collected in criterion
// order. Unknown types are logged and skipped; a malformed value fails the
// whole specification.
func (s *Specification) Build(b *Builder) (Compiled, error) {
	out := Compiled{Where: True()}

	for _, c := range s.criteria {
		kind, ok := ParseKind(c.Type)
		if !ok {
			zlog.Warn().
				Str("type", c.Type).
				Str("key", c.Key).
				Msg("unknown search criterion type, skipping")
			metrics.RecordSkippedCriterion()
			out.Skipped = append(out.Skipped, c)
			continue
		}

		p, orders, err := s.apply(b, kind, c)
		if err != nil {
			return Compiled{}, err
		}
		out.Where = AllOf(out.Where, p)
		out.OrderBy = append(out.OrderBy, orders...)
	}
	return out, nil
}

func (s *Specification) apply(b *Builder, kind Kind, c Criterion) (Predicate, []Order, error) {
	switch kind {
	case KindLine:
		v, err := stringValue(c)
		if err != nil {
			return nil, nil, err
		}
		line, ok := ParseLine(v)
		if !ok {
			return nil, nil, invalidValue(c, "must be one of: ONLINE, OFFLINE")
		}
		p, orders := b.Line(line)
		return p, orders, nil

	case KindLocation:
		v, err := stringValue(c)
		if err != nil {
			return nil, nil, err
		}
		city, err := Sanitize(domain.NormalizeCity(v))
		if err != nil {
			return nil, nil, invalidValue(c, "must be valid text")
		}
		p, orders := b.Location(city)
		return p, orders, nil

	case KindTime:
		v, err := stringValue(c)
		if err != nil {
			return nil, nil, err
		}
		bucket, ok := ParseBucket(v)
		if !ok {
			return nil, nil, invalidValue(c, "must be one of: FUTURE, PAST, LIVE")
		}
		p, orders := b.Bucket(bucket)
		return p, orders, nil

	case KindDate:
		from, to, err := dateRangeValue(c)
		if err != nil {
			return nil, nil, err
		}
		return b.DateRange(from, to), nil, nil

	case KindType:
		v, err := stringValue(c)
		if err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(v) == "" {
			return True(), nil, nil
		}
		t, ok := domain.ParseEventType(v)
		if !ok {
			return nil, nil, invalidValue(c, "must be one of: OPEN, CLOSED")
		}
		return b.Type(t), nil, nil
	}
	return nil, nil, fmt.Errorf("search: criterion kind %s has no handler", kind)
}
