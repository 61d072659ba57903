package dto

import "time"

// EventResp is the stable API response model. Tag names are in the request language.
type EventResp struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`

	Days      []DayResp `json:"days"`
	Tags      []TagResp `json:"tags"`
	ImageURLs []string  `json:"image_urls,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type DayResp struct {
	ID        int64   `json:"id"`
	Date      string  `json:"date"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`

	IsOnline     bool   `json:"is_online"`
	IsOffline    bool   `json:"is_offline"`
	OnlinePlace  string `json:"online_place,omitempty"`
	OfflinePlace string `json:"offline_place,omitempty"`
}

type TagResp struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PageResp[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

type CitiesResp struct {
	Items []string `json:"items"`
}
