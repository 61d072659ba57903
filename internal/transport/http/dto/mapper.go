package dto

import (
	"strconv"
	"strings"

	"github.com/greencity/event-service/internal/application/event"
	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/search"
)

func ToEventResp(e *domain.Event, lang string) EventResp {
	out := EventResp{
		ID:          e.ID,
		AuthorID:    e.AuthorID,
		Title:       e.Title,
		Description: e.Description,
		Type:        string(e.Type),
		Days:        make([]DayResp, 0, len(e.Days)),
		Tags:        make([]TagResp, 0, len(e.Tags)),
		ImageURLs:   e.ImageURLs,
		CreatedAt:   e.CreatedAt,
	}
	for _, d := range e.Days {
		out.Days = append(out.Days, DayResp{
			ID:           d.ID,
			Date:         d.Date.Format(domain.DateLayout),
			StartTime:    clockString(d.StartTime),
			EndTime:      clockString(d.EndTime),
			IsOnline:     d.IsOnline,
			IsOffline:    d.IsOffline,
			OnlinePlace:  d.OnlinePlace,
			OfflinePlace: d.OfflinePlace,
		})
	}
	out.Tags = append(out.Tags, ToTagResps(e.Tags, lang)...)
	return out
}

func clockString(t *domain.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func ToTagResps(tags []domain.Tag, lang string) []TagResp {
	out := make([]TagResp, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagResp{ID: t.ID, Name: t.Name(lang)})
	}
	return out
}

func ToPageResp(p search.Page[*domain.Event], lang string) PageResp[EventResp] {
	items := make([]EventResp, 0, len(p.Content))
	for _, e := range p.Content {
		items = append(items, ToEventResp(e, lang))
	}
	return PageResp[EventResp]{
		Items:      items,
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      p.TotalElements,
		TotalPages: p.TotalPages(),
		HasNext:    p.HasNext(),
	}
}

// ToCreateCmd parses dates and times; the request has already passed validate.Struct.
func ToCreateCmd(req CreateEventReq, actorID string) (event.CreateCmd, error) {
	days := make([]domain.EventDayDetails, 0, len(req.Days))
	for i, d := range req.Days {
		date, err := domain.ParseDate(d.Date)
		if err != nil {
			return event.CreateCmd{}, dayError(i, "date", "must match 2006-01-02")
		}
		start, err := parseClock(d.StartTime)
		if err != nil {
			return event.CreateCmd{}, dayError(i, "start_time", "must be HH:MM or HH:MM:SS")
		}
		end, err := parseClock(d.EndTime)
		if err != nil {
			return event.CreateCmd{}, dayError(i, "end_time", "must be HH:MM or HH:MM:SS")
		}
		days = append(days, domain.EventDayDetails{
			Date:         date,
			StartTime:    start,
			EndTime:      end,
			IsOnline:     d.IsOnline,
			IsOffline:    d.IsOffline,
			OnlinePlace:  d.OnlinePlace,
			OfflinePlace: d.OfflinePlace,
		})
	}
	return event.CreateCmd{
		ActorID:     actorID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Days:        days,
		TagIDs:      req.TagIDs,
		ImageURLs:   req.ImageURLs,
	}, nil
}

func parseClock(s *string) (*domain.TimeOfDay, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := domain.ParseTimeOfDay(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func dayError(i int, field, msg string) error {
	return domain.ErrValidationMeta("invalid request body", map[string]string{
		"days[" + strconv.Itoa(i) + "]." + field: msg,
	})
}

func ToSearchCmd(req SearchReq) event.SearchCmd {
	criteria := make([]search.Criterion, 0, len(req.Criteria))
	for _, c := range req.Criteria {
		criteria = append(criteria, search.Criterion{Key: c.Key, Type: c.Type, Value: c.Value})
	}
	return event.SearchCmd{
		Query:    req.Query,
		Language: req.Lang,
		Criteria: criteria,
		Page:     req.Page,
		Size:     req.Size,
		Sort:     req.Sort,
	}
}
