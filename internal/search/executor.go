package search

import (
	"context"
	"time"

	"github.com/greencity/event-service/internal/domain"
)

// Query is a compiled search handed to a Store.
type Query struct {
	Where   Predicate
	OrderBy []Order
	Offset  int
	Limit   int
}

// Store runs compiled searches. SearchEvents returns the distinct events of
// one page in OrderBy order, plus the total number of events matching Where.
// Both should come from one consistent read where the store supports it.
type Store interface {
	TagLookup
	SearchEvents(ctx context.Context, q Query) ([]*domain.Event, int64, error)
}

// Request is the single entry point's input.
type Request struct {
	Criteria []Criterion
	FreeText string
	Language string
	Page     PageRequest
}

type Executor struct {
	store    Store
	resolver *TagResolver
	loc      *time.Location
	now      func() time.Time
}

// NewExecutor returns an executor that decomposes "now" in loc.
// A nil loc means UTC.
func NewExecutor(store Store, loc *time.Location) *Executor {
	if loc == nil {
		loc = time.UTC
	}
	return &Executor{
		store:    store,
		resolver: NewTagResolver(store),
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (x *Executor) WithClock(now func() time.Time) *Executor {
	cp := *x
	cp.now = now
	return &cp
}

// Compile turns req into a store query. Tag ids are resolved against the
// store, so it may block.
func (x *Executor) Compile(ctx context.Context, req Request) (Query, error) {
	if err := req.Page.Validate(); err != nil {
		return Query{}, err
	}

	text, err := Sanitize(req.FreeText)
	if err != nil {
		return Query{}, err
	}
	lang, err := Sanitize(req.Language)
	if err != nil {
		return Query{}, err
	}

	free, err := x.freeText(ctx, Tokenize(text), lang)
	if err != nil {
		return Query{}, err
	}

	spec, err := NewSpecification(req.Criteria).Build(NewBuilder(x.now().In(x.loc)))
	if err != nil {
		return Query{}, err
	}

	orders := make([]Order, 0, len(spec.OrderBy)+len(req.Page.Sort))
	orders = append(orders, spec.OrderBy...)
	orders = append(orders, req.Page.Sort...)

	return Query{
		Where:   AllOf(free, spec.Where),
		OrderBy: withTieBreaker(orders),
		Offset:  req.Page.Offset(),
		Limit:   req.Page.Size,
	}, nil
}

// freeText matches title or description, or a tag translated in lang.
func (x *Executor) freeText(ctx context.Context, tokens []string, lang string) (Predicate, error) {
	if len(tokens) == 0 {
		return True(), nil
	}
	tags, err := x.resolver.Resolve(ctx, lang, tokens)
	if err != nil {
		return nil, err
	}
	return AnyOf(TextMatch(tokens, FieldTitle, FieldDescription), tags), nil
}

// Search runs req and returns one page. Store errors are returned as-is.
func (x *Executor) Search(ctx context.Context, req Request) (Page[*domain.Event], error) {
	q, err := x.Compile(ctx, req)
	if err != nil {
		return Page[*domain.Event]{}, err
	}

	page := Page[*domain.Event]{
		Content: []*domain.Event{},
		Size:    req.Page.Size,
		Number:  req.Page.Number,
	}
	if IsFalse(q.Where) {
		return page, nil
	}

	events, total, err := x.store.SearchEvents(ctx, q)
	if err != nil {
		return Page[*domain.Event]{}, err
	}
	if events != nil {
		page.Content = events
	}
	page.TotalElements = total
	return page, nil
}
