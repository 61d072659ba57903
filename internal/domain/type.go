package domain

import "strings"

type EventType string

const (
	TypeOpen   EventType = "OPEN"
	TypeClosed EventType = "CLOSED"
)

func (t EventType) Valid() bool {
	return t == TypeOpen || t == TypeClosed
}

// ParseEventType accepts any casing and surrounding whitespace.
func ParseEventType(s string) (EventType, bool) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}
