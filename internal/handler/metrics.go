package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuniguard_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tuniguard_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuniguard_scans_total",
		Help: "Committed scans by verdict.",
	}, []string{"verdict"})

	conflictRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuniguard_scan_conflict_retries_total",
		Help: "Scan transactions retried after an aggregation conflict.",
	})

	escalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuniguard_intel_escalations_total",
		Help: "Intel records raised to a higher escalation level, by new level.",
	}, []string{"level"})

	healthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuniguard_health_checks_total",
		Help: "Dependency health probes by dependency and result.",
	}, []string{"dependency", "result"})

	webhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuniguard_webhook_deliveries_total",
		Help: "Total webhook delivery attempts by success status.",
	}, []string{"status"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ScanMetrics records scan pipeline outcomes. It satisfies
// scan.MetricsRecorder.
type ScanMetrics struct{}

// RecordScan counts a committed scan.
func (ScanMetrics) RecordScan(verdict string) {
	scansTotal.WithLabelValues(verdict).Inc()
}

// RecordConflictRetry counts a retried transaction.
func (ScanMetrics) RecordConflictRetry() {
	conflictRetriesTotal.Inc()
}

// RecordEscalation counts an escalation to level.
func (ScanMetrics) RecordEscalation(level string) {
	escalationsTotal.WithLabelValues(level).Inc()
}

// RecordHealthCheck records a dependency probe result.
func RecordHealthCheck(dependency string, success bool) {
	healthChecksTotal.WithLabelValues(dependency, result(success)).Inc()
}

// RecordWebhookDelivery records a webhook delivery attempt.
func RecordWebhookDelivery(success bool) {
	webhookDeliveriesTotal.WithLabelValues(result(success)).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
