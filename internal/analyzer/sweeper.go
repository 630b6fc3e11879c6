// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package analyzer

import (
	"context"
	"time"

	"github.com/tomtom215/vigil/internal/logging"
)

// Sweeper re-runs all detectors on a fixed interval and reports findings
// through the diagnostic log. It is meant to run as a supervised background
// service; detector output is never persisted, so a missed sweep costs
// nothing but latency on the next one.
type Sweeper struct {
	analyzer *Analyzer
	interval time.Duration
}

// NewSweeper creates a sweeper over the given analyzer. A non-positive
// interval falls back to the default.
func NewSweeper(an *Analyzer, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultConfig().SweepInterval
	}
	return &Sweeper{
		analyzer: an,
		interval: interval,
	}
}

// Run executes detector sweeps until the context is canceled. One sweep runs
// immediately on start so a restarted sweeper does not wait a full interval
// before noticing anything.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs every detector once over its default window. Individual
// detector failures are logged and the sweep continues; the store being
// briefly unavailable should not kill the whole pass.
func (s *Sweeper) sweep(ctx context.Context) {
	passes := []struct {
		name string
		run  func(context.Context, time.Duration) ([]DetectionResult, error)
	}{
		{"login_attempts", s.analyzer.AnalyzeLoginAttempts},
		{"payment_patterns", s.analyzer.AnalyzePaymentPatterns},
		{"rate_limiting", s.analyzer.AnalyzeRateLimiting},
	}

	for _, pass := range passes {
		results, err := pass.run(ctx, 0)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Str("detector", pass.name).
				Msg("detector sweep failed")
			continue
		}
		for _, result := range results {
			logging.Ctx(ctx).Warn().
				Str("detector", pass.name).
				Str("finding", result.Type).
				Interface("metadata", result.Metadata).
				Msg("security anomaly detected")
		}
	}
}
