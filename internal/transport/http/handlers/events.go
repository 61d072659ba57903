package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greencity/event-service/internal/application/event"
	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/search"
	"github.com/greencity/event-service/internal/transport/http/dto"
	"github.com/greencity/event-service/internal/transport/http/middleware"
	"github.com/greencity/event-service/internal/transport/http/response"
	"github.com/greencity/event-service/internal/transport/http/validate"
)

const defaultPageSize = 20

type EventsHandler struct {
	svc         *event.Service
	defaultLang string
}

func NewEventsHandler(svc *event.Service, defaultLang string) *EventsHandler {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &EventsHandler{svc: svc, defaultLang: defaultLang}
}

func (h *EventsHandler) lang(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return h.defaultLang
	}
	return s
}

// Search handles GET /events. Criteria come from fixed query params in the
// order time, line, location, date, type.
func (h *EventsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 0, "page")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	size, err := intParam(q.Get("size"), defaultPageSize, "size")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	cmd := event.SearchCmd{
		Query:    q.Get("q"),
		Language: h.lang(q.Get("lang")),
		Criteria: criteriaFromQuery(q),
		Page:     page,
		Size:     size,
		Sort:     q["sort"],
	}
	h.search(w, r, cmd)
}

// SearchPost handles POST /events/search with criteria in the body.
func (h *EventsHandler) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}
	if req.Size == 0 {
		req.Size = defaultPageSize
	}
	cmd := dto.ToSearchCmd(req)
	cmd.Language = h.lang(cmd.Language)
	h.search(w, r, cmd)
}

func (h *EventsHandler) search(w http.ResponseWriter, r *http.Request, cmd event.SearchCmd) {
	res, err := h.svc.Search(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToPageResp(res, cmd.Language))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"event_id": "must be uuid",
		}))
		return
	}
	ev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, h.lang(r.URL.Query().Get("lang"))))
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Err(w, r, err)
		return
	}
	cmd, err := dto.ToCreateCmd(req, middleware.UserID(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	ev, err := h.svc.Create(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToEventResp(ev, h.lang(r.URL.Query().Get("lang"))))
}

func (h *EventsHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r.URL.Query().Get("lang"))
	tags, err := h.svc.ListTags(r.Context(), lang)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToTagResps(tags, lang))
}

func (h *EventsHandler) Cities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), 0, "limit")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	cities, err := h.svc.CitySuggestions(r.Context(), q.Get("q"), limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	response.Data(w, http.StatusOK, dto.CitiesResp{Items: cities})
}

func intParam(v string, def int, name string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.ErrValidationMeta("invalid query param", map[string]string{
			name: "must be an integer",
		})
	}
	return n, nil
}

func criteriaFromQuery(q map[string][]string) []search.Criterion {
	get := func(k string) (string, bool) {
		vs, ok := q[k]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}

	var out []search.Criterion
	if v, ok := get("time"); ok {
		out = append(out, search.Criterion{Key: "time", Type: "eventTime", Value: v})
	}
	if v, ok := get("line"); ok {
		out = append(out, search.Criterion{Key: "line", Type: "eventLine", Value: v})
	}
	if v, ok := get("location"); ok {
		out = append(out, search.Criterion{Key: "location", Type: "eventLocation", Value: v})
	}
	from, hasFrom := get("from")
	to, hasTo := get("to")
	if hasFrom || hasTo {
		out = append(out, search.Criterion{Key: "date", Type: "eventDate", Value: []any{from, to}})
	}
	if v, ok := get("type"); ok {
		out = append(out, search.Criterion{Key: "type", Type: "eventType", Value: v})
	}
	return out
}
