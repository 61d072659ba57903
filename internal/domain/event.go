package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxImages = 10

type Event struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`

	Days      []EventDayDetails `json:"days"`
	Tags      []Tag             `json:"tags"`
	ImageURLs []string          `json:"image_urls,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func NewEvent(authorID, title, description string, typ EventType, days []EventDayDetails, tagIDs []int64, images []string, now time.Time) (*Event, error) {
	authorID = strings.TrimSpace(authorID)
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if authorID == "" {
		return nil, ErrValidation("author_id is required")
	}
	if title == "" || len(title) > 120 {
		return nil, ErrValidation("title is required and must be <= 120 chars")
	}
	if description == "" || len(description) > 4000 {
		return nil, ErrValidation("description is required and must be <= 4000 chars")
	}
	if !typ.Valid() {
		return nil, ErrValidationMeta("invalid event type", map[string]string{
			"type": "must be one of: OPEN, CLOSED",
		})
	}
	if len(days) == 0 {
		return nil, ErrValidation("event must have at least one day")
	}
	if len(images) > maxImages {
		return nil, ErrValidation("maximum 10 images allowed")
	}

	normalized := make([]EventDayDetails, 0, len(days))
	for _, d := range days {
		d.Date = DateOf(d.Date)
		d.OnlinePlace = strings.TrimSpace(d.OnlinePlace)
		d.OfflinePlace = strings.TrimSpace(d.OfflinePlace)
		if err := d.validate(); err != nil {
			return nil, err
		}
		normalized = append(normalized, d)
	}

	tags := make([]Tag, 0, len(tagIDs))
	seen := make(map[int64]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		tags = append(tags, Tag{ID: id})
	}

	return &Event{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		Type:        typ,
		Days:        normalized,
		Tags:        tags,
		ImageURLs:   images,
		CreatedAt:   now.UTC(),
	}, nil
}

// TagIDs lists the ids of the event's tags in order.
func (e *Event) TagIDs() []int64 {
	out := make([]int64, 0, len(e.Tags))
	for _, t := range e.Tags {
		out = append(out, t.ID)
	}
	return out
}
