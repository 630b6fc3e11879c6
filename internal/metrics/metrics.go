// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package metrics provides Prometheus collectors for observability.
//
// Metrics are exposed at the /metrics endpoint in Prometheus text format.
//
// Security log metrics:
//   - security_events_logged_total: entries written (counter)
//     Labels: severity
//   - security_logging_failures_total: failed write attempts (counter)
//   - security_retention_trim_failures_total: failed retention passes (counter)
//
// Analyzer metrics:
//   - analyzer_runs_total: detector invocations (counter)
//     Labels: detector
//   - analyzer_findings_total: findings emitted (counter)
//     Labels: detector
//
// HTTP metrics:
//   - api_requests_total: requests served (counter)
//     Labels: method, endpoint, status_code
//   - api_request_duration_seconds: request latency (histogram)
//     Labels: method, endpoint
//   - api_rate_limit_hits_total: rate limit rejections (counter)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Security log metrics
	SecurityEventsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_events_logged_total",
			Help: "Total number of security events written to the log",
		},
		[]string{"severity"},
	)

	SecurityLoggingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_logging_failures_total",
			Help: "Total number of failed security event writes",
		},
	)

	RetentionTrimFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_retention_trim_failures_total",
			Help: "Total number of failed retention trim passes",
		},
	)

	// Analyzer metrics
	AnalyzerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_runs_total",
			Help: "Total number of analyzer detector invocations",
		},
		[]string{"detector"},
	)

	AnalyzerFindings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_findings_total",
			Help: "Total number of findings emitted by analyzer detectors",
		},
		[]string{"detector"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
	)
)
