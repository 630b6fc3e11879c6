// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/analyzer"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/seclog"
)

// maxEventBodyBytes bounds ingested event payloads.
const maxEventBodyBytes = 64 << 10

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleHealth reports liveness and whether the security log is initialized.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if _, err := rt.service.Logger(); err != nil {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":      status,
		"environment": rt.cfg.Server.Environment,
	})
}

// eventRequest is the ingestion payload. Severity is optional; when absent
// the event type's taxonomy severity applies.
type eventRequest struct {
	EventType string         `json:"eventType"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Metadata  seclog.Metadata `json:"metadata"`
}

// handleLogEvent ingests one security event.
func (rt *Router) handleLogEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	body := http.MaxBytesReader(w, r.Body, maxEventBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.EventType == "" {
		respondError(w, http.StatusBadRequest, "eventType is required")
		return
	}
	if req.Metadata.IP == "" {
		req.Metadata.IP = clientIP(r)
	}
	if req.Metadata.CorrelationID == "" {
		req.Metadata.CorrelationID = logging.CorrelationIDFromContext(r.Context())
	}

	eventType := seclog.EventType(req.EventType)

	var err error
	if req.Severity != "" {
		sev := seclog.Severity(strings.ToUpper(req.Severity))
		if !sev.Valid() {
			respondError(w, http.StatusBadRequest, "unknown severity: "+req.Severity)
			return
		}
		var logger *seclog.Logger
		logger, err = rt.service.Logger()
		if err == nil {
			err = logger.Log(r.Context(), sev, eventType, req.Message, req.Metadata)
		}
	} else {
		err = rt.service.LogSecurityEvent(r.Context(), eventType, req.Message, req.Metadata)
	}

	switch {
	case err == nil:
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "logged"})
	case errors.Is(err, seclog.ErrNotInitialized):
		respondError(w, http.StatusServiceUnavailable, "security log not initialized")
	default:
		respondError(w, http.StatusInternalServerError, "failed to log event")
	}
}

// handleLogsByTimeRange returns entries in [start, end] milliseconds. Without
// parameters the trailing 24 hours apply.
func (rt *Router) handleLogsByTimeRange(w http.ResponseWriter, r *http.Request) {
	logger, err := rt.service.Logger()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "security log not initialized")
		return
	}

	end := time.Now().UnixMilli()
	start := end - (24 * time.Hour).Milliseconds()

	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = strconv.ParseInt(v, 10, 64); err != nil {
			respondError(w, http.StatusBadRequest, "invalid start timestamp")
			return
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = strconv.ParseInt(v, 10, 64); err != nil {
			respondError(w, http.StatusBadRequest, "invalid end timestamp")
			return
		}
	}
	if start > end {
		respondError(w, http.StatusBadRequest, "start must not exceed end")
		return
	}

	entries, err := logger.LogsByTimeRange(r.Context(), start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"start":   start,
		"end":     end,
		"count":   len(entries),
		"entries": entries,
	})
}

// handleLogsBySeverity returns entries of one severity in log order.
func (rt *Router) handleLogsBySeverity(w http.ResponseWriter, r *http.Request) {
	logger, err := rt.service.Logger()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "security log not initialized")
		return
	}

	sev := seclog.Severity(strings.ToUpper(chi.URLParam(r, "severity")))
	if !sev.Valid() {
		respondError(w, http.StatusBadRequest, "unknown severity")
		return
	}

	limit, ok := queryInt(r, "limit", 100)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	entries, err := logger.LogsBySeverity(r.Context(), sev, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"severity": sev,
		"count":    len(entries),
		"entries":  entries,
	})
}

// handleCriticalEvents returns the newest critical entries.
func (rt *Router) handleCriticalEvents(w http.ResponseWriter, r *http.Request) {
	logger, err := rt.service.Logger()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "security log not initialized")
		return
	}

	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	entries, err := logger.CriticalEvents(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query critical events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

// detectorFunc is the shared shape of the analyzer passes.
type detectorFunc func(ctx context.Context, window time.Duration) ([]analyzer.DetectionResult, error)

func (rt *Router) handleAnalyzeLogins(w http.ResponseWriter, r *http.Request) {
	rt.runDetector(w, r, rt.analyzer.AnalyzeLoginAttempts)
}

func (rt *Router) handleAnalyzePayments(w http.ResponseWriter, r *http.Request) {
	rt.runDetector(w, r, rt.analyzer.AnalyzePaymentPatterns)
}

func (rt *Router) handleAnalyzeRateLimits(w http.ResponseWriter, r *http.Request) {
	rt.runDetector(w, r, rt.analyzer.AnalyzeRateLimiting)
}

// runDetector parses the optional window parameter, runs one detector pass
// and writes its findings.
func (rt *Router) runDetector(w http.ResponseWriter, r *http.Request, detect detectorFunc) {
	window, ok := queryWindow(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid window duration")
		return
	}

	results, err := detect(r.Context(), window)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	if results == nil {
		results = []analyzer.DetectionResult{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

// handleInsights returns the aggregate security report for the window.
func (rt *Router) handleInsights(w http.ResponseWriter, r *http.Request) {
	window, ok := queryWindow(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid window duration")
		return
	}

	insights, err := rt.analyzer.SecurityInsights(r.Context(), window)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// queryWindow parses the optional "window" duration parameter ("15m", "24h").
// Zero means the analyzer's configured default.
func queryWindow(r *http.Request) (time.Duration, bool) {
	v := r.URL.Query().Get("window")
	if v == "" {
		return 0, true
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
