// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/vigil/internal/analyzer"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/seclog"
	"github.com/tomtom215/vigil/internal/store"
)

func TestRateLimit_RejectionIsLogged(t *testing.T) {
	cfg := &config.Config{
		Server:      config.ServerConfig{Environment: "test"},
		SecurityLog: seclog.DefaultConfig(),
		Analysis:    analyzer.DefaultConfig(),
		RateLimit: config.RateLimitConfig{
			Requests: 1,
			Window:   time.Minute,
		},
	}

	service := seclog.NewService(cfg.SecurityLog)
	logger, err := service.Initialize(store.NewMemoryStore(), cfg.Server.Environment)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	handler := NewRouter(service, analyzer.New(logger, cfg.Analysis), cfg).Handler()

	// First request passes, second trips the limiter.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.RemoteAddr = "203.0.113.50:1234"
		handler.ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("first request: expected 200, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("second request: expected 429, got %d", rec.Code)
		}
	}

	// The rejection itself lands in the security log.
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	entries, err := logger.LogsBySeverity(ctx, seclog.SeverityInfo, 10)
	if err != nil {
		t.Fatalf("LogsBySeverity failed: %v", err)
	}

	found := false
	for _, entry := range entries {
		if entry.EventType == seclog.EventRateLimitExceeded {
			found = true
			if entry.Metadata.IP != "203.0.113.50" {
				t.Errorf("expected the offending IP, got %q", entry.Metadata.IP)
			}
		}
	}
	if !found {
		t.Error("rate limit rejection was not recorded in the security log")
	}
}
