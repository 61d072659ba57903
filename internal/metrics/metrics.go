package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "event_service"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Search metrics
	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of event searches",
		},
		[]string{"status"}, // ok, invalid, error
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Event search duration in seconds, including the count query",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	searchResultsTotal = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_total_elements",
			Help:      "Total elements matched by a search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	skippedCriteriaTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_skipped_criteria_total",
			Help:      "Criteria ignored because their type is unknown",
		},
	)

	searchCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_total",
			Help:      "First-page search cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	// Messaging metrics
	outboxPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox messages handed to the broker",
		},
		[]string{"status"}, // sent, retry, dead
	)

	messagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Messages consumed from RabbitMQ",
		},
		[]string{"routing_key", "status"},
	)
)

func RecordHTTP(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// HTTPInFlight marks a request as started; call the returned func when it ends.
func HTTPInFlight() func() {
	httpRequestsInFlight.Inc()
	return httpRequestsInFlight.Dec
}

// RecordSearch records a finished search.
func RecordSearch(status string, totalElements int64, duration time.Duration) {
	searchRequestsTotal.WithLabelValues(status).Inc()
	searchDuration.Observe(duration.Seconds())
	if status == "ok" {
		searchResultsTotal.Observe(float64(totalElements))
	}
}

func RecordSkippedCriterion() {
	skippedCriteriaTotal.Inc()
}

func RecordSearchCache(hit bool) {
	if hit {
		searchCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	searchCacheTotal.WithLabelValues("miss").Inc()
}

func RecordOutbox(status string) {
	outboxPublishedTotal.WithLabelValues(status).Inc()
}

func RecordMessageConsumed(routingKey, status string) {
	messagesConsumedTotal.WithLabelValues(routingKey, status).Inc()
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
