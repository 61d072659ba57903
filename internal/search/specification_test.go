package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencity/event-service/internal/domain"
)

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("eventLine")
	assert.True(t, ok)
	assert.Equal(t, KindLine, k)
	assert.Equal(t, "eventLine", k.String())

	_, ok = ParseKind("EventLine")
	assert.False(t, ok)
}

func TestSpecification_Empty(t *testing.T) {
	c, err := NewSpecification(nil).Build(NewBuilder(testNow))
	require.NoError(t, err)
	assert.True(t, IsTrue(c.Where))
	assert.Empty(t, c.OrderBy)
	assert.Empty(t, c.Skipped)
}

func TestSpecification_UnknownTypeIsSkipped(t *testing.T) {
	bogus := Criterion{Key: "x", Type: "bogus", Value: 42}

	c, err := NewSpecification([]Criterion{bogus}).Build(NewBuilder(testNow))
	require.NoError(t, err)
	assert.True(t, IsTrue(c.Where))
	assert.Equal(t, []Criterion{bogus}, c.Skipped)
}

func TestSpecification_OrdersFollowCriterionOrder(t *testing.T) {
	b := NewBuilder(testNow)
	criteria := []Criterion{
		{Key: "line", Type: "eventLine", Value: "offline"},
		{Key: "time", Type: "eventTime", Value: "FUTURE"},
		{Key: "loc", Type: "eventLocation", Value: " Lviv "},
	}

	c, err := NewSpecification(criteria).Build(b)
	require.NoError(t, err)
	assert.Equal(t, []Order{Asc(FieldDayOfflinePlace), Asc(FieldDayDate), Asc(FieldDayDate)}, c.OrderBy)

	and, ok := c.Where.(And)
	require.True(t, ok)
	require.Len(t, and, 3)
	assert.Equal(t, AnyDay{Where: Contains{Field: FieldDayOfflinePlace, Pattern: "lviv"}}, and[2])
}

func TestSpecification_EmptyValuesAddNoConstraint(t *testing.T) {
	criteria := []Criterion{
		{Type: "eventLine", Value: ""},
		{Type: "eventTime", Value: nil},
		{Type: "eventLocation", Value: "  "},
		{Type: "eventType", Value: ""},
		{Type: "eventDate", Value: []any{"", nil}},
	}
	c, err := NewSpecification(criteria).Build(NewBuilder(testNow))
	require.NoError(t, err)
	assert.True(t, IsTrue(c.Where))
	assert.Empty(t, c.OrderBy)
}

func TestSpecification_LocationIsEscaped(t *testing.T) {
	c, err := NewSpecification([]Criterion{{Type: "eventLocation", Value: "100%_city"}}).Build(NewBuilder(testNow))
	require.NoError(t, err)
	assert.Equal(t, AnyDay{Where: Contains{Field: FieldDayOfflinePlace, Pattern: `100\%\_city`}}, c.Where)
}

func TestSpecification_Type(t *testing.T) {
	c, err := NewSpecification([]Criterion{{Type: "eventType", Value: "closed"}}).Build(NewBuilder(testNow))
	require.NoError(t, err)
	assert.Equal(t, Eq(FieldType, domain.TypeClosed), c.Where)

	closed := &domain.Event{Type: domain.TypeClosed}
	open := &domain.Event{Type: domain.TypeOpen}
	assert.True(t, Evaluate(c.Where, closed))
	assert.False(t, Evaluate(c.Where, open))
}

func TestSpecification_DateRange(t *testing.T) {
	c, err := NewSpecification([]Criterion{
		{Type: "eventDate", Value: []any{"2025-06-10", "2025-06-20"}},
	}).Build(NewBuilder(testNow))
	require.NoError(t, err)
	assert.Equal(t, AnyDay{Where: And{
		Ge(FieldDayDate, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)),
		Le(FieldDayDate, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)),
	}}, c.Where)
}

func TestSpecification_InvalidValuesFailFast(t *testing.T) {
	tests := []struct {
		name string
		c    Criterion
	}{
		{"unknown line", Criterion{Type: "eventLine", Value: "HYBRID"}},
		{"line not a string", Criterion{Type: "eventLine", Value: 1}},
		{"unknown bucket", Criterion{Type: "eventTime", Value: "SOON"}},
		{"location not a string", Criterion{Type: "eventLocation", Value: []any{"lviv"}}},
		{"location malformed", Criterion{Type: "eventLocation", Value: "a\x00b"}},
		{"unknown type value", Criterion{Type: "eventType", Value: "PRIVATE"}},
		{"date not a list", Criterion{Type: "eventDate", Value: "2025-06-10"}},
		{"date wrong arity", Criterion{Type: "eventDate", Value: []any{"2025-06-10"}}},
		{"date malformed", Criterion{Type: "eventDate", Value: []any{"10/06/2025", ""}}},
		{"date not a string", Criterion{Type: "eventDate", Value: []any{20250610, ""}}},
		{"date reversed", Criterion{Type: "eventDate", Value: []string{"2025-06-20", "2025-06-10"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			criteria := []Criterion{{Type: "eventTime", Value: "FUTURE"}, tt.c}
			_, err := NewSpecification(criteria).Build(NewBuilder(testNow))
			require.Error(t, err)
			assert.True(t, domain.IsCode(err, domain.CodeInvalidCriterionValue), err.Error())
		})
	}
}
