package dto

// CreateEventReq is the body of POST /events. Times of day are "15:04" or "15:04:05".
type CreateEventReq struct {
	Title       string   `json:"title" validate:"required,max=120"`
	Description string   `json:"description" validate:"required,max=4000"`
	Type        string   `json:"type" validate:"required,oneof=OPEN CLOSED open closed"`
	Days        []DayReq `json:"days" validate:"required,min=1,dive"`
	TagIDs      []int64  `json:"tag_ids" validate:"omitempty,dive,gt=0"`
	ImageURLs   []string `json:"image_urls" validate:"max=10,dive,url"`
}

type DayReq struct {
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`

	IsOnline     bool   `json:"is_online"`
	IsOffline    bool   `json:"is_offline"`
	OnlinePlace  string `json:"online_place,omitempty" validate:"required_if=IsOnline true"`
	OfflinePlace string `json:"offline_place,omitempty" validate:"required_if=IsOffline true"`
}

// SearchReq is the body of POST /events/search. Criteria keep their order.
type SearchReq struct {
	Query    string         `json:"q"`
	Lang     string         `json:"lang"`
	Page     int            `json:"page"`
	Size     int            `json:"size"`
	Sort     []string       `json:"sort"`
	Criteria []CriterionReq `json:"criteria" validate:"dive"`
}

type CriterionReq struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}
