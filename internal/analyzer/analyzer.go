// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/seclog"
)

// LogReader is the read surface the analyzer needs from the security log.
// *seclog.Logger satisfies it.
type LogReader interface {
	LogsByTimeRange(ctx context.Context, start, end int64) ([]seclog.Entry, error)
}

// Analyzer runs single-pass detectors over bounded windows of the security
// log. All detectors are O(window size) map-accumulation scans; windows are
// time-bounded and the log is retention-trimmed, so linear passes suffice.
type Analyzer struct {
	logs LogReader
	cfg  Config

	// now is the clock; replaced in tests.
	now func() time.Time
}

// New creates an analyzer reading from the given log.
func New(logs LogReader, cfg Config) *Analyzer {
	if cfg.DetectorWindow <= 0 {
		cfg.DetectorWindow = DefaultConfig().DetectorWindow
	}
	if cfg.InsightsWindow <= 0 {
		cfg.InsightsWindow = DefaultConfig().InsightsWindow
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}

	return &Analyzer{
		logs: logs,
		cfg:  cfg,
		now:  time.Now,
	}
}

// window fetches the entries of the trailing window. Read failures propagate
// the log's ErrQueryFailed unchanged so every detector surfaces one error
// vocabulary.
func (a *Analyzer) window(ctx context.Context, window, fallback time.Duration) ([]seclog.Entry, error) {
	if window <= 0 {
		window = fallback
	}
	end := a.now().UnixMilli()
	start := end - window.Milliseconds()
	return a.logs.LogsByTimeRange(ctx, start, end)
}

// counter accumulates counts per key while preserving first-seen order, so
// detector output is deterministic for a given window.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if key == "" {
		return
	}
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// AnalyzeLoginAttempts detects excessive login failures: per source IP, and
// per user when the failures spread across several source addresses.
// IP-grouped results precede user-grouped results; within each group,
// results follow first appearance in the window.
func (a *Analyzer) AnalyzeLoginAttempts(ctx context.Context, window time.Duration) ([]DetectionResult, error) {
	metrics.AnalyzerRuns.WithLabelValues(ResultExcessiveLoginsIP).Inc()

	entries, err := a.window(ctx, window, a.cfg.DetectorWindow)
	if err != nil {
		return nil, err
	}

	byIP := newCounter()
	byUser := newCounter()
	userIPs := make(map[string]map[string]struct{})

	for i := range entries {
		entry := &entries[i]
		if entry.EventType != seclog.EventLoginFailure {
			continue
		}
		byIP.add(entry.Metadata.IP)

		user := entry.Metadata.UserID
		if user == "" {
			continue
		}
		byUser.add(user)
		if entry.Metadata.IP != "" {
			if userIPs[user] == nil {
				userIPs[user] = make(map[string]struct{})
			}
			userIPs[user][entry.Metadata.IP] = struct{}{}
		}
	}

	var results []DetectionResult
	for _, ip := range byIP.order {
		if count := byIP.counts[ip]; count >= a.cfg.Thresholds.LoginFailuresPerIP {
			results = append(results, DetectionResult{
				Type: ResultExcessiveLoginsIP,
				Metadata: map[string]any{
					"ip":           ip,
					"attemptCount": count,
				},
			})
		}
	}
	for _, user := range byUser.order {
		count := byUser.counts[user]
		if count < a.cfg.Thresholds.LoginFailuresPerUser {
			continue
		}
		if len(userIPs[user]) < a.cfg.Thresholds.DistinctIPsPerUser {
			continue
		}
		results = append(results, DetectionResult{
			Type: ResultExcessiveLoginsUser,
			Metadata: map[string]any{
				"userId":       user,
				"attemptCount": count,
				"uniqueIPs":    len(userIPs[user]),
			},
		})
	}

	metrics.AnalyzerFindings.WithLabelValues(ResultExcessiveLoginsIP).Add(float64(len(results)))
	return results, nil
}

// AnalyzePaymentPatterns detects abnormal payment frequency per user and
// clusters of suspicious transactions.
func (a *Analyzer) AnalyzePaymentPatterns(ctx context.Context, window time.Duration) ([]DetectionResult, error) {
	metrics.AnalyzerRuns.WithLabelValues(ResultHighPaymentFreq).Inc()

	entries, err := a.window(ctx, window, a.cfg.DetectorWindow)
	if err != nil {
		return nil, err
	}

	byUser := newCounter()
	suspiciousCount := 0
	var suspiciousTotal float64

	for i := range entries {
		entry := &entries[i]
		switch entry.EventType {
		case seclog.EventPaymentSuccess:
			byUser.add(entry.Metadata.UserID)
		case seclog.EventSuspiciousTransaction:
			suspiciousCount++
			// Missing amounts count as zero.
			if amount, ok := entry.Metadata.Float("amount"); ok {
				suspiciousTotal += amount
			}
		}
	}

	var results []DetectionResult
	for _, user := range byUser.order {
		if count := byUser.counts[user]; count >= a.cfg.Thresholds.PaymentsPerUser {
			results = append(results, DetectionResult{
				Type: ResultHighPaymentFreq,
				Metadata: map[string]any{
					"userId":       user,
					"paymentCount": count,
				},
			})
		}
	}
	if suspiciousCount >= a.cfg.Thresholds.SuspiciousTransactions {
		results = append(results, DetectionResult{
			Type: ResultSuspiciousCluster,
			Metadata: map[string]any{
				"suspiciousCount": suspiciousCount,
				"totalAmount":     suspiciousTotal,
			},
		})
	}

	metrics.AnalyzerFindings.WithLabelValues(ResultHighPaymentFreq).Add(float64(len(results)))
	return results, nil
}

// AnalyzeRateLimiting detects source addresses that keep tripping the rate
// limiter.
func (a *Analyzer) AnalyzeRateLimiting(ctx context.Context, window time.Duration) ([]DetectionResult, error) {
	metrics.AnalyzerRuns.WithLabelValues(ResultRepeatedRateLimit).Inc()

	entries, err := a.window(ctx, window, a.cfg.DetectorWindow)
	if err != nil {
		return nil, err
	}

	byIP := newCounter()
	for i := range entries {
		if entries[i].EventType == seclog.EventRateLimitExceeded {
			byIP.add(entries[i].Metadata.IP)
		}
	}

	var results []DetectionResult
	for _, ip := range byIP.order {
		if count := byIP.counts[ip]; count >= a.cfg.Thresholds.RateLimitViolationsPerIP {
			results = append(results, DetectionResult{
				Type: ResultRepeatedRateLimit,
				Metadata: map[string]any{
					"ip":            ip,
					"exceededCount": count,
				},
			})
		}
	}

	metrics.AnalyzerFindings.WithLabelValues(ResultRepeatedRateLimit).Add(float64(len(results)))
	return results, nil
}

// Risk factor thresholds. Fractions of the window's total events unless
// stated otherwise.
const (
	riskCriticalRatio   = 0.05
	riskLoginFailures   = 10
	riskRateLimitEvents = 10
	riskErrorRatio      = 0.25
)

// SecurityInsights produces the aggregate report for the trailing window in
// a single pass over its entries.
func (a *Analyzer) SecurityInsights(ctx context.Context, window time.Duration) (*Insights, error) {
	metrics.AnalyzerRuns.WithLabelValues("insights").Inc()

	if window <= 0 {
		window = a.cfg.InsightsWindow
	}
	end := a.now().UnixMilli()
	start := end - window.Milliseconds()

	entries, err := a.logs.LogsByTimeRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	insights := &Insights{
		WindowStart:          start,
		WindowEnd:            end,
		TotalEvents:          len(entries),
		SeverityDistribution: make(map[seclog.Severity]int),
	}

	types := newCounter()
	ips := newCounter()
	users := newCounter()
	loginFailures := 0
	suspicious := 0
	rateLimited := 0

	for i := range entries {
		entry := &entries[i]
		insights.SeverityDistribution[entry.Severity]++
		types.add(string(entry.EventType))
		ips.add(entry.Metadata.IP)
		users.add(entry.Metadata.UserID)

		ts := time.UnixMilli(entry.Timestamp).UTC()
		insights.HourlyPattern[ts.Hour()]++
		insights.WeekdayPattern[int(ts.Weekday())]++

		switch entry.EventType {
		case seclog.EventLoginFailure:
			loginFailures++
		case seclog.EventSuspiciousTransaction:
			suspicious++
		case seclog.EventRateLimitExceeded:
			rateLimited++
		}
	}

	insights.TopEventTypes = topN(types, a.cfg.TopN)
	insights.TopIPs = topN(ips, a.cfg.TopN)
	insights.TopUsers = topN(users, a.cfg.TopN)
	insights.RiskFactors = a.riskFactors(insights, loginFailures, suspicious, rateLimited)
	return insights, nil
}

// riskFactors derives the human-readable findings from window aggregates.
func (a *Analyzer) riskFactors(insights *Insights, loginFailures, suspicious, rateLimited int) []string {
	var factors []string
	total := insights.TotalEvents
	if total == 0 {
		return factors
	}

	critical := insights.SeverityDistribution[seclog.SeverityCritical]
	if critical > 0 && float64(critical)/float64(total) > riskCriticalRatio {
		factors = append(factors, fmt.Sprintf("high critical event rate: %d of %d events", critical, total))
	}

	errors := insights.SeverityDistribution[seclog.SeverityError]
	if float64(errors)/float64(total) > riskErrorRatio {
		factors = append(factors, fmt.Sprintf("elevated error rate: %d of %d events", errors, total))
	}

	if loginFailures >= riskLoginFailures {
		factors = append(factors, fmt.Sprintf("elevated login failure volume: %d failures in window", loginFailures))
	}
	if suspicious >= a.cfg.Thresholds.SuspiciousTransactions {
		factors = append(factors, fmt.Sprintf("suspicious payment activity: %d flagged transactions", suspicious))
	}
	if rateLimited >= riskRateLimitEvents {
		factors = append(factors, fmt.Sprintf("sustained rate limit pressure: %d violations in window", rateLimited))
	}

	return factors
}

// topN ranks a counter's keys by count, most frequent first, ties broken by
// first appearance.
func topN(c *counter, n int) []KeyCount {
	ranked := make([]KeyCount, 0, len(c.order))
	for _, key := range c.order {
		ranked = append(ranked, KeyCount{Value: key, Count: c.counts[key]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
