package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AssetsByCustodyState is the number of active assets per custody state,
	// refreshed by the scheduler.
	AssetsByCustodyState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assets_by_custody_state",
			Help: "Number of active assets per custody state",
		},
		[]string{"custody_state"},
	)

	// AssetsRetired is the number of retired asset records.
	AssetsRetired = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assets_retired",
			Help: "Number of retired asset records",
		},
	)

	// AuditEventsTotal is the total number of rows in the audit trail,
	// refreshed by the scheduler.
	AuditEventsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_events_total",
			Help: "Total number of audit events recorded",
		},
	)
)

var (
	tagPathSegment = regexp.MustCompile(`/assets/[^/]+`)
	initOnce       sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AssetsByCustodyState, AssetsRetired, AuditEventsTotal)
	})
}

// NormalizePath reduces cardinality by replacing the asset tag path segment
// with {tag}. E.g. /assets/AT-1001/events -> /assets/{tag}/events.
func NormalizePath(path string) string {
	return tagPathSegment.ReplaceAllString(path, "/assets/{tag}")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// SetCustodyStateCount sets the gauge for one custody state.
func SetCustodyStateCount(state string, n float64) {
	AssetsByCustodyState.WithLabelValues(state).Set(n)
}

// SetRetiredCount sets the retired assets gauge.
func SetRetiredCount(n float64) {
	AssetsRetired.Set(n)
}

// SetAuditEventCount sets the audit trail size gauge.
func SetAuditEventCount(n float64) {
	AuditEventsTotal.Set(n)
}
