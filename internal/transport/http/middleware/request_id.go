package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/greencity/event-service/internal/application/event"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID keeps the caller's X-Request-Id or generates one, echoes it in the
// response and makes it the trace id of domain events emitted by the request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get(HeaderXRequestID))
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		r.Header.Set(HeaderXRequestID, reqID)
		w.Header().Set(HeaderXRequestID, reqID)

		ctx := event.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
