// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package analyzer scans bounded windows of the security event log for
// multi-event anomalies and produces aggregate risk insights. It only ever
// reads the log; detection results are computed fresh per call and never
// persisted.
package analyzer

import (
	"time"

	"github.com/tomtom215/vigil/internal/seclog"
)

// Detection result type tags.
const (
	ResultExcessiveLoginsIP   = "excessive_login_attempts_ip"
	ResultExcessiveLoginsUser = "excessive_login_attempts_user"
	ResultHighPaymentFreq     = "high_payment_frequency_user"
	ResultSuspiciousCluster   = "multiple_suspicious_transactions"
	ResultRepeatedRateLimit   = "repeated_rate_limit_violations"
)

// DetectionResult is one finding from a detector pass.
type DetectionResult struct {
	// Type is the detector-specific tag identifying the anomaly.
	Type string `json:"type"`

	// Metadata carries detector-specific aggregate fields (counts,
	// totals, the offending IP or user).
	Metadata map[string]any `json:"metadata"`
}

// Thresholds are the tunable constants of the detectors. The defaults mirror
// long-standing operational practice but carry no business meaning; operators
// adjust them per deployment.
type Thresholds struct {
	// LoginFailuresPerIP triggers the per-IP login detector.
	LoginFailuresPerIP int `json:"login_failures_per_ip" koanf:"login_failures_per_ip"`

	// LoginFailuresPerUser triggers the per-user login detector, guarding
	// against credential stuffing spread across source addresses.
	LoginFailuresPerUser int `json:"login_failures_per_user" koanf:"login_failures_per_user"`

	// DistinctIPsPerUser is the minimum distinct source addresses required
	// for the per-user detector; one IP hammering one user is the per-IP
	// detector's case.
	DistinctIPsPerUser int `json:"distinct_ips_per_user" koanf:"distinct_ips_per_user"`

	// PaymentsPerUser triggers the payment frequency detector.
	PaymentsPerUser int `json:"payments_per_user" koanf:"payments_per_user"`

	// SuspiciousTransactions triggers the suspicious cluster detector.
	SuspiciousTransactions int `json:"suspicious_transactions" koanf:"suspicious_transactions"`

	// RateLimitViolationsPerIP triggers the rate limit detector.
	RateLimitViolationsPerIP int `json:"rate_limit_violations_per_ip" koanf:"rate_limit_violations_per_ip"`
}

// DefaultThresholds returns the standard detector constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LoginFailuresPerIP:       5,
		LoginFailuresPerUser:     3,
		DistinctIPsPerUser:       2,
		PaymentsPerUser:          3,
		SuspiciousTransactions:   2,
		RateLimitViolationsPerIP: 3,
	}
}

// Config configures the analyzer.
type Config struct {
	// DetectorWindow is the default lookback for detector passes.
	DetectorWindow time.Duration `json:"detector_window" koanf:"detector_window"`

	// InsightsWindow is the default lookback for the insight report.
	InsightsWindow time.Duration `json:"insights_window" koanf:"insights_window"`

	// TopN bounds the top-event-type/IP/user lists in insights.
	TopN int `json:"top_n" koanf:"top_n"`

	// SweepInterval is how often the background sweeper re-runs the
	// detectors. Zero disables the sweeper.
	SweepInterval time.Duration `json:"sweep_interval" koanf:"sweep_interval"`

	Thresholds Thresholds `json:"thresholds" koanf:"thresholds"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DetectorWindow: 24 * time.Hour,
		InsightsWindow: 7 * 24 * time.Hour,
		TopN:           5,
		SweepInterval:  15 * time.Minute,
		Thresholds:     DefaultThresholds(),
	}
}

// KeyCount is a frequency-ranked value in an insight report.
type KeyCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Insights is the aggregate report over one analysis window. Purely derived;
// recomputed per call.
type Insights struct {
	// WindowStart and WindowEnd bound the analyzed range, in ms since epoch.
	WindowStart int64 `json:"windowStart"`
	WindowEnd   int64 `json:"windowEnd"`

	// TotalEvents is the number of entries in the window.
	TotalEvents int `json:"totalEvents"`

	// SeverityDistribution counts entries per severity; the counts sum to
	// TotalEvents.
	SeverityDistribution map[seclog.Severity]int `json:"severityDistribution"`

	// TopEventTypes, TopIPs and TopUsers rank by frequency, most frequent
	// first, ties broken by first appearance in the window.
	TopEventTypes []KeyCount `json:"topEventTypes"`
	TopIPs        []KeyCount `json:"topIPs"`
	TopUsers      []KeyCount `json:"topUsers"`

	// RiskFactors are human-readable findings derived from threshold
	// breaches in the window.
	RiskFactors []string `json:"riskFactors"`

	// HourlyPattern counts events per UTC hour of day; WeekdayPattern per
	// UTC day of week (Sunday = 0). For anomaly eyeballing, not alerting.
	HourlyPattern  [24]int `json:"hourlyPattern"`
	WeekdayPattern [7]int  `json:"weekdayPattern"`
}
