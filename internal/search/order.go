package search

import (
	"strings"

	"github.com/greencity/event-service/internal/domain"
)

// Order sorts results by Field. Day-level fields sort by the earliest
// (ascending) or latest (descending) value over the event's days.
type Order struct {
	Field Field
	Desc  bool
}

func Asc(f Field) Order  { return Order{Field: f} }
func Desc(f Field) Order { return Order{Field: f, Desc: true} }

func (o Order) String() string {
	if o.Desc {
		return o.Field.String() + ",desc"
	}
	return o.Field.String() + ",asc"
}

var sortableFields = map[string]Field{
	"title":     FieldTitle,
	"date":      FieldDayDate,
	"createdAt": FieldCreatedAt,
}

// ParseOrder parses "field[,asc|desc]".
func ParseOrder(s string) (Order, error) {
	name, dir, _ := strings.Cut(strings.TrimSpace(s), ",")
	f, ok := sortableFields[strings.TrimSpace(name)]
	if !ok {
		return Order{}, domain.ErrInvalidPageRequest("invalid sort", map[string]string{
			"sort": "field must be one of: title, date, createdAt",
		})
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
		return Asc(f), nil
	case "desc":
		return Desc(f), nil
	}
	return Order{}, domain.ErrInvalidPageRequest("invalid sort", map[string]string{
		"sort": "direction must be asc or desc",
	})
}

func ParseOrders(ss []string) ([]Order, error) {
	out := make([]Order, 0, len(ss))
	for _, s := range ss {
		if strings.TrimSpace(s) == "" {
			continue
		}
		o, err := ParseOrder(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// withTieBreaker appends id ascending unless id is already ordered on,
// so that offset paging is deterministic.
func withTieBreaker(orders []Order) []Order {
	out := make([]Order, 0, len(orders)+1)
	out = append(out, orders...)
	for _, o := range orders {
		if o.Field == FieldID {
			return out
		}
	}
	return append(out, Asc(FieldID))
}
