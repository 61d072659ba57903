package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/greencity/event-service/internal/metrics"
)

// Metrics records HTTP RED metrics labelled by chi route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		done := metrics.HTTPInFlight()
		defer done()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		metrics.RecordHTTP(r.Method, routeLabel(r), strconv.Itoa(sw.code()), time.Since(start))
	})
}
