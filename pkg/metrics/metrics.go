package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	matchPairsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_pairs_evaluated_total",
			Help: "Total number of lead/property pairs evaluated by the matching engine",
		},
		[]string{"trigger"},
	)

	matchesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_found_total",
			Help: "Total number of matches, by classification",
		},
		[]string{"classification"},
	)

	notificationsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Total number of notifications suppressed by the dedup window",
		},
	)

	candidateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_candidate_failures_total",
			Help: "Total number of per-candidate failures isolated during matching passes",
		},
		[]string{"trigger"},
	)
)

// HTTPMiddleware records request counts and latencies per route
func HTTPMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := strconv.Itoa(c.Response().Status)

			httpRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler exposes the Prometheus scrape endpoint
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

func RecordPairEvaluated(trigger string) {
	matchPairsEvaluated.WithLabelValues(trigger).Inc()
}

func RecordMatch(classification string) {
	matchesFound.WithLabelValues(classification).Inc()
}

func RecordSuppressedNotification() {
	notificationsSuppressed.Inc()
}

func RecordCandidateFailure(trigger string) {
	candidateFailures.WithLabelValues(trigger).Inc()
}
