package search

import (
	"strings"
	"time"

	"github.com/greencity/event-service/internal/domain"
)

// Bucket classifies a day relative to now.
type Bucket string

const (
	BucketNone   Bucket = ""
	BucketFuture Bucket = "FUTURE"
	BucketPast   Bucket = "PAST"
	BucketLive   Bucket = "LIVE"
)

func ParseBucket(s string) (Bucket, bool) {
	b := Bucket(strings.ToUpper(strings.TrimSpace(s)))
	switch b {
	case BucketNone, BucketFuture, BucketPast, BucketLive:
		return b, true
	}
	return "", false
}

// Line is the delivery mode of an event day.
type Line string

const (
	LineNone    Line = ""
	LineOnline  Line = "ONLINE"
	LineOffline Line = "OFFLINE"
)

func ParseLine(s string) (Line, bool) {
	l := Line(strings.ToUpper(strings.TrimSpace(s)))
	switch l {
	case LineNone, LineOnline, LineOffline:
		return l, true
	}
	return "", false
}

// Builder builds the predicates of one request. It pins "now" so every
// criterion in the request sees the same instant. It is not shared.
type Builder struct {
	today time.Time
	now   domain.TimeOfDay
}

// NewBuilder decomposes now, in its own location, into a date and a time of day.
func NewBuilder(now time.Time) *Builder {
	return &Builder{today: domain.DateOf(now), now: domain.ClockOf(now)}
}

func (b *Builder) Today() time.Time      { return b.today }
func (b *Builder) Now() domain.TimeOfDay { return b.now }

// Bucket returns the predicate for a temporal bucket and the order it implies.
//
// A day without an end time is treated as still running: it only becomes
// PAST once its date is before today, and it is LIVE from its start time on.
// A day without a start time never matches the same-day branches.
func (b *Builder) Bucket(bucket Bucket) (Predicate, []Order) {
	switch bucket {
	case BucketFuture:
		return AnyDay{Where: AnyOf(
			Gt(FieldDayDate, b.today),
			AllOf(Eq(FieldDayDate, b.today), Ge(FieldDayStartTime, b.now)),
		)}, []Order{Asc(FieldDayDate)}
	case BucketPast:
		return AnyDay{Where: AnyOf(
			Lt(FieldDayDate, b.today),
			AllOf(Eq(FieldDayDate, b.today), Lt(FieldDayEndTime, b.now)),
		)}, nil
	case BucketLive:
		return AnyDay{Where: AllOf(
			Eq(FieldDayDate, b.today),
			Le(FieldDayStartTime, b.now),
			AnyOf(Ge(FieldDayEndTime, b.now), IsNull{Field: FieldDayEndTime}),
		)}, nil
	}
	return True(), nil
}

// Line returns the predicate for an online/offline filter. Only days from
// today on count; online results go by date, offline results by city.
func (b *Builder) Line(line Line) (Predicate, []Order) {
	switch line {
	case LineOnline:
		return AnyDay{Where: AllOf(
			Eq(FieldDayOnline, true),
			Ge(FieldDayDate, b.today),
		)}, []Order{Asc(FieldDayDate)}
	case LineOffline:
		return AnyDay{Where: AllOf(
			Eq(FieldDayOffline, true),
			Ge(FieldDayDate, b.today),
		)}, []Order{Asc(FieldDayOfflinePlace)}
	}
	return True(), nil
}

// Location matches events with a day whose offline place contains city.
// city must be sanitized.
func (b *Builder) Location(city string) (Predicate, []Order) {
	if city == "" {
		return True(), nil
	}
	return AnyDay{Where: Contains{Field: FieldDayOfflinePlace, Pattern: city}}, []Order{Asc(FieldDayDate)}
}

// DateRange matches events with a day in [from, to]. A zero bound is open.
func (b *Builder) DateRange(from, to time.Time) Predicate {
	var ps []Predicate
	if !from.IsZero() {
		ps = append(ps, Ge(FieldDayDate, from))
	}
	if !to.IsZero() {
		ps = append(ps, Le(FieldDayDate, to))
	}
	if len(ps) == 0 {
		return True()
	}
	return AnyDay{Where: AllOf(ps...)}
}

func (b *Builder) Type(t domain.EventType) Predicate {
	return Eq(FieldType, t)
}
