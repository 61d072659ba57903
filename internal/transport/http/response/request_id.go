package response

import (
	"net/http"

	"github.com/greencity/event-service/internal/application/event"
)

// RequestIDFromRequest returns the id set by middleware.RequestID, falling
// back to the raw header for handlers mounted outside that middleware.
func RequestIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if id := event.TraceIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-Id")
}
