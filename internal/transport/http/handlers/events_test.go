package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greencity/event-service/internal/application/event"
	"github.com/greencity/event-service/internal/domain"
	"github.com/greencity/event-service/internal/infrastructure/db/memory"
	"github.com/greencity/event-service/internal/transport/http/dto"
	"github.com/greencity/event-service/internal/transport/http/handlers"
	authmw "github.com/greencity/event-service/internal/transport/http/middleware"
	"github.com/greencity/event-service/internal/transport/http/response"
)

// MockClock for stable testing
type mockClock struct{ t time.Time }

func (m mockClock) Now() time.Time { return m.t }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const secret = "test-secret"

func token(t *testing.T, uid string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, authmw.Claims{
		UserID:           uid,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func setup(t *testing.T) http.Handler {
	t.Helper()
	store := memory.New()
	store.PutTag(domain.Tag{ID: 1, Translations: []domain.TagTranslation{
		{LanguageCode: "en", Name: "ocean"},
		{LanguageCode: "ua", Name: "okean"},
	}})
	store.PutTag(domain.Tag{ID: 2, Translations: []domain.TagTranslation{
		{LanguageCode: "en", Name: "forest"},
		{LanguageCode: "ua", Name: "lis"},
	}})

	svc := event.New(store, mockClock{t: now}, nil, nil, 0, 0, event.SearchSettings{MaxPageSize: 50})
	h := handlers.NewEventsHandler(svc, "en")
	auth := authmw.NewAuth(secret, "")

	r := chi.NewRouter()
	r.Get("/events", h.Search)
	r.Post("/events/search", h.SearchPost)
	r.Get("/events/{event_id}", h.Get)
	r.Get("/tags", h.ListTags)
	r.Get("/cities", h.Cities)
	r.With(auth.Require).Post("/events", h.Create)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env.Data
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body.Error.Code
}

const beachBody = `{
	"title": "Beach Cleanup",
	"description": "Collect plastic",
	"type": "OPEN",
	"days": [{"date": "2025-06-16", "start_time": "09:00", "is_online": true, "online_place": "https://meet.example/a"}],
	"tag_ids": [1]
}`

const treeBody = `{
	"title": "Tree Planting",
	"description": "Plant oaks",
	"type": "CLOSED",
	"days": [{"date": "2025-06-14", "is_offline": true, "offline_place": "Lviv"}],
	"tag_ids": [2]
}`

func seed(t *testing.T, r http.Handler) (beach, tree dto.EventResp) {
	t.Helper()
	tok := token(t, "user-1")

	rr := do(t, r, "POST", "/events", beachBody, tok)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	beach = decode[dto.EventResp](t, rr)

	rr = do(t, r, "POST", "/events", treeBody, tok)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tree = decode[dto.EventResp](t, rr)
	return beach, tree
}

func titles(p dto.PageResp[dto.EventResp]) []string {
	out := []string{}
	for _, e := range p.Items {
		out = append(out, e.Title)
	}
	return out
}

func TestEventsHandler_Create(t *testing.T) {
	r := setup(t)

	t.Run("creates_event", func(t *testing.T) {
		rr := do(t, r, "POST", "/events", beachBody, token(t, "user-1"))

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		ev := decode[dto.EventResp](t, rr)
		assert.Equal(t, "user-1", ev.AuthorID)
		assert.Equal(t, "09:00:00", *ev.Days[0].StartTime)
		assert.Equal(t, "ocean", ev.Tags[0].Name)
	})

	t.Run("return_401_without_token", func(t *testing.T) {
		rr := do(t, r, "POST", "/events", beachBody, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("return_400_on_unknown_field", func(t *testing.T) {
		rr := do(t, r, "POST", "/events", `{"title":"x","capacity":3}`, token(t, "user-1"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", errorCode(t, rr))
	})

	t.Run("return_400_on_struct_validation", func(t *testing.T) {
		body := `{"title":"x","description":"y","type":"PRIVATE","days":[{"date":"2025-06-16","is_online":true}]}`
		rr := do(t, r, "POST", "/events", body, token(t, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var eb response.ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &eb))
		assert.Contains(t, eb.Error.Meta, "type")
		assert.Contains(t, eb.Error.Meta, "days[0].online_place")
	})

	t.Run("return_400_on_end_before_start", func(t *testing.T) {
		body := `{"title":"x","description":"y","type":"OPEN","days":[{"date":"2025-06-16","start_time":"10:00","end_time":"09:00","is_online":true,"online_place":"u"}]}`
		rr := do(t, r, "POST", "/events", body, token(t, "user-1"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEventsHandler_Get(t *testing.T) {
	r := setup(t)
	beach, _ := seed(t, r)

	t.Run("returns_event_with_tag_names_in_lang", func(t *testing.T) {
		rr := do(t, r, "GET", "/events/"+beach.ID+"?lang=ua", "", "")

		require.Equal(t, http.StatusOK, rr.Code)
		ev := decode[dto.EventResp](t, rr)
		assert.Equal(t, "okean", ev.Tags[0].Name)
	})

	t.Run("return_400_on_invalid_uuid", func(t *testing.T) {
		rr := do(t, r, "GET", "/events/invalid-uuid", "", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "validation_error")
	})

	t.Run("return_404_when_missing", func(t *testing.T) {
		rr := do(t, r, "GET", "/events/550e8400-e29b-41d4-a716-446655440000", "", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestEventsHandler_Search(t *testing.T) {
	r := setup(t)
	seed(t, r)

	cases := []struct {
		name string
		path string
		want []string
	}{
		{"no_filters_sorted_by_title", "/events?sort=title", []string{"Beach Cleanup", "Tree Planting"}},
		{"free_text_over_title", "/events?q=tree", []string{"Tree Planting"}},
		{"free_text_over_tags_in_lang", "/events?q=lis&lang=ua", []string{"Tree Planting"}},
		{"line_online", "/events?line=online", []string{"Beach Cleanup"}},
		{"location_case_insensitive", "/events?location=LVIV", []string{"Tree Planting"}},
		{"time_future", "/events?time=future", []string{"Beach Cleanup"}},
		{"time_past", "/events?time=PAST", []string{"Tree Planting"}},
		{"date_range", "/events?from=2025-06-15&to=2025-06-30", []string{"Beach Cleanup"}},
		{"open_date_range", "/events?to=2025-06-14", []string{"Tree Planting"}},
		{"type", "/events?type=closed", []string{"Tree Planting"}},
		{"sort_desc", "/events?sort=date,desc", []string{"Beach Cleanup", "Tree Planting"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, r, "GET", tc.path, "", "")

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.Equal(t, tc.want, titles(decode[dto.PageResp[dto.EventResp]](t, rr)))
		})
	}

	t.Run("paging", func(t *testing.T) {
		rr := do(t, r, "GET", "/events?sort=title&size=1&page=1", "", "")

		page := decode[dto.PageResp[dto.EventResp]](t, rr)
		assert.Equal(t, []string{"Tree Planting"}, titles(page))
		assert.Equal(t, int64(2), page.Total)
		assert.Equal(t, 2, page.TotalPages)
		assert.False(t, page.HasNext)
	})

	errCases := []struct {
		name string
		path string
		code string
	}{
		{"bad_page_param", "/events?page=x", "validation_error"},
		{"negative_page", "/events?page=-1", "invalid_page_request"},
		{"zero_size", "/events?size=0", "invalid_page_request"},
		{"bad_sort", "/events?sort=rank", "invalid_page_request"},
		{"bad_line", "/events?line=sometimes", "invalid_criterion_value"},
		{"bad_date", "/events?from=15.06.2025", "invalid_criterion_value"},
		{"malformed_text", "/events?q=%00", "invalid_query"},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, r, "GET", tc.path, "", "")

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.code, errorCode(t, rr))
		})
	}
}

func TestEventsHandler_SearchPost(t *testing.T) {
	r := setup(t)
	seed(t, r)

	t.Run("criteria_from_body", func(t *testing.T) {
		body := `{"criteria":[{"key":"w","type":"eventLocation","value":"lviv"},{"key":"x","type":"eventTime","value":"PAST"}]}`
		rr := do(t, r, "POST", "/events/search", body, "")

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, []string{"Tree Planting"}, titles(decode[dto.PageResp[dto.EventResp]](t, rr)))
	})

	t.Run("unknown_criterion_is_ignored", func(t *testing.T) {
		body := `{"sort":["title"],"criteria":[{"key":"k","type":"eventMood","value":"happy"}]}`
		rr := do(t, r, "POST", "/events/search", body, "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"Beach Cleanup", "Tree Planting"}, titles(decode[dto.PageResp[dto.EventResp]](t, rr)))
	})

	t.Run("date_range_array", func(t *testing.T) {
		body := `{"criteria":[{"key":"d","type":"eventDate","value":["2025-06-16",null]}]}`
		rr := do(t, r, "POST", "/events/search", body, "")

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, []string{"Beach Cleanup"}, titles(decode[dto.PageResp[dto.EventResp]](t, rr)))
	})

	t.Run("missing_criterion_type_is_ignored", func(t *testing.T) {
		rr := do(t, r, "POST", "/events/search", `{"sort":["title"],"criteria":[{"key":"k","value":"x"}]}`, "")

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, []string{"Beach Cleanup", "Tree Planting"}, titles(decode[dto.PageResp[dto.EventResp]](t, rr)))
	})

	t.Run("negative_page_or_size", func(t *testing.T) {
		for _, body := range []string{`{"page":-1}`, `{"size":-5}`} {
			rr := do(t, r, "POST", "/events/search", body, "")

			assert.Equal(t, http.StatusBadRequest, rr.Code, body)
			assert.Equal(t, "invalid_page_request", errorCode(t, rr), body)
		}
	})

	t.Run("malformed_body", func(t *testing.T) {
		rr := do(t, r, "POST", "/events/search", `{"q":`, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEventsHandler_Catalog(t *testing.T) {
	r := setup(t)
	seed(t, r)

	t.Run("tags_in_lang", func(t *testing.T) {
		rr := do(t, r, "GET", "/tags?lang=ua", "", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []dto.TagResp{{ID: 1, Name: "okean"}, {ID: 2, Name: "lis"}}, decode[[]dto.TagResp](t, rr))
	})

	t.Run("cities", func(t *testing.T) {
		rr := do(t, r, "GET", "/cities?q=lv", "", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"Lviv"}, decode[dto.CitiesResp](t, rr).Items)
	})

	t.Run("cities_empty", func(t *testing.T) {
		rr := do(t, r, "GET", "/cities?q=kyiv", "", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"items":[]`)
	})

	t.Run("bad_limit", func(t *testing.T) {
		rr := do(t, r, "GET", "/cities?limit=ten", "", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handlers.NewHealthHandler(nil).Healthz(rr, httptest.NewRequest("GET", "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("readyz_reports_failed_checks", func(t *testing.T) {
		h := handlers.NewHealthHandler(map[string]handlers.Check{
			"db":    func(context.Context) error { return nil },
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		rr := httptest.NewRecorder()
		h.Readyz(rr, httptest.NewRequest("GET", "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "redis")
		assert.NotContains(t, rr.Body.String(), `"db"`)
	})
}
