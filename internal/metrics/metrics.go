// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package metrics holds Folio's Prometheus collectors. They register with the
// default registry and are served at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Like counter
	LikesPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_likes_pending",
			Help: "Like increments accepted but not yet written to the database",
		},
	)

	LikesFlushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_likes_flushed_total",
			Help: "Total like increments written to the database",
		},
	)

	LikesFlushErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_likes_flush_errors_total",
			Help: "Total failed like flushes (increments are retried)",
		},
	)

	LikesFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_likes_flush_duration_seconds",
			Help:    "Duration of like flush transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Audience
	Subscriptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_subscriptions_total",
			Help: "Newsletter signups by result",
		},
		[]string{"result"}, // created, existing
	)

	ContactSubmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_contact_submissions_total",
			Help: "Stored contact form submissions",
		},
	)

	// Security
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_login_attempts_total",
			Help: "Admin login attempts by result",
		},
		[]string{"result"}, // success, invalid, locked, captcha
	)

	CaptchaVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_captcha_verifications_total",
			Help: "Turnstile verifications by result",
		},
		[]string{"result"}, // success, failed, unavailable, skipped
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_active_sessions",
			Help: "Admin sessions created minus sessions ended",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Read cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_cache_hits_total",
			Help: "Public read cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_cache_misses_total",
			Help: "Public read cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_cache_evictions_total",
			Help: "Public read cache entries removed by expiry or invalidation",
		},
	)

	// Audit trail
	AuditEventsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_audit_events_written_total",
			Help: "Audit events persisted",
		},
	)

	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full or the write failed",
		},
	)

	// Backups
	Backups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_backups_total",
			Help: "Database backups by result",
		},
		[]string{"result"}, // success, failure
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_backup_duration_seconds",
			Help:    "Time to export and archive the database",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordLikeFlush records one flush of n increments.
func RecordLikeFlush(n int64, duration time.Duration, err error) {
	LikesFlushDuration.Observe(duration.Seconds())
	if err != nil {
		LikesFlushErrors.Inc()
		return
	}
	LikesFlushed.Add(float64(n))
}

// RecordSubscription records a signup as created or existing.
func RecordSubscription(created bool) {
	if created {
		Subscriptions.WithLabelValues("created").Inc()
		return
	}
	Subscriptions.WithLabelValues("existing").Inc()
}

// RecordBackup records one backup run.
func RecordBackup(duration time.Duration, err error) {
	BackupDuration.Observe(duration.Seconds())
	if err != nil {
		Backups.WithLabelValues("failure").Inc()
		return
	}
	Backups.WithLabelValues("success").Inc()
}
