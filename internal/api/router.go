// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package api provides the operational HTTP surface of Vigil: event
// ingestion through the emission façade, log queries, analyzer runs, and
// the health and metrics endpoints.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vigil/internal/analyzer"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/seclog"
)

// Router wires HTTP handlers to the security log core.
type Router struct {
	service  *seclog.Service
	analyzer *analyzer.Analyzer
	cfg      *config.Config
}

// NewRouter creates the API router.
func NewRouter(service *seclog.Service, an *analyzer.Analyzer, cfg *config.Config) *Router {
	return &Router{
		service:  service,
		analyzer: an,
		cfg:      cfg,
	}
}

// Handler builds the chi route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.requestID)
	r.Use(rt.requestMetrics)

	if !rt.cfg.RateLimit.Disabled {
		r.Use(httprate.Limit(
			rt.cfg.RateLimit.Requests,
			rt.cfg.RateLimit.Window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rt.rateLimited),
		))
	}

	r.Get("/api/v1/health", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events", rt.handleLogEvent)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", rt.handleLogsByTimeRange)
			r.Get("/severity/{severity}", rt.handleLogsBySeverity)
			r.Get("/critical", rt.handleCriticalEvents)
		})

		r.Route("/analysis", func(r chi.Router) {
			r.Get("/logins", rt.handleAnalyzeLogins)
			r.Get("/payments", rt.handleAnalyzePayments)
			r.Get("/rate-limits", rt.handleAnalyzeRateLimits)
		})

		r.Get("/insights", rt.handleInsights)
	})

	return r
}

// rateLimited records the rejection in the security log before responding
// 429, so the rate-limit detectors see real enforcement events.
func (rt *Router) rateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.APIRateLimitHits.Inc()

	err := rt.service.LogSecurityEvent(r.Context(), seclog.EventRateLimitExceeded,
		"request rate limit exceeded", seclog.Metadata{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
			Extra:     map[string]any{"path": r.URL.Path},
		})
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to record rate limit event")
	}

	respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
}
