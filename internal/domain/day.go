package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t as seen in t's location,
// represented as midnight UTC so dates compare with ==, Before and After.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// TimeOfDay is a wall-clock time with second precision, stored as seconds since midnight.
type TimeOfDay int32

func NewTimeOfDay(h, m, s int) TimeOfDay {
	return TimeOfDay(h*3600 + m*60 + s)
}

// ClockOf drops the date part of t, keeping its wall clock in t's location.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return NewTimeOfDay(h, m, s)
}

// ParseTimeOfDay accepts "15:04" and "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	v := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", v/3600, (v%3600)/60, v%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// EventDayDetails is one calendar day of an event. It is owned by exactly one Event.
type EventDayDetails struct {
	ID        int64      `json:"id"`
	Date      time.Time  `json:"date"`
	StartTime *TimeOfDay `json:"start_time,omitempty"`
	EndTime   *TimeOfDay `json:"end_time,omitempty"`

	IsOnline     bool   `json:"is_online"`
	IsOffline    bool   `json:"is_offline"`
	OnlinePlace  string `json:"online_place,omitempty"`
	OfflinePlace string `json:"offline_place,omitempty"`
}

func (d EventDayDetails) validate() error {
	if d.Date.IsZero() {
		return ErrValidation("day date is required")
	}
	if !d.IsOnline && !d.IsOffline {
		return ErrValidation("day must be online, offline or both")
	}
	if d.IsOnline && strings.TrimSpace(d.OnlinePlace) == "" {
		return ErrValidation("online_place is required for an online day")
	}
	if d.IsOffline && strings.TrimSpace(d.OfflinePlace) == "" {
		return ErrValidation("offline_place is required for an offline day")
	}
	if d.StartTime != nil && d.EndTime != nil && *d.EndTime <= *d.StartTime {
		return ErrValidation("end_time must be after start_time")
	}
	return nil
}
