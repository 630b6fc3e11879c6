// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package seclog

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/vigil/internal/store"
)

func TestService_RequiresInitialize(t *testing.T) {
	svc := NewService(DefaultConfig())

	if _, err := svc.Logger(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	err := svc.LogSecurityEvent(context.Background(), EventDataAccess, "read", Metadata{})
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestService_InitializeNilStore(t *testing.T) {
	svc := NewService(DefaultConfig())
	if _, err := svc.Initialize(nil, "test"); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
}

func TestService_InitializeIdempotent(t *testing.T) {
	svc := NewService(DefaultConfig())
	st := store.NewMemoryStore()

	first, err := svc.Initialize(st, "production")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	second, err := svc.Initialize(st, "production")
	if err != nil {
		t.Fatalf("repeated Initialize failed: %v", err)
	}
	if first != second {
		t.Error("repeated Initialize must return the same logger")
	}
}

func TestService_InitializeConflict(t *testing.T) {
	svc := NewService(DefaultConfig())
	st := store.NewMemoryStore()

	if _, err := svc.Initialize(st, "production"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if _, err := svc.Initialize(store.NewMemoryStore(), "production"); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("different store: expected ErrAlreadyInitialized, got %v", err)
	}
	if _, err := svc.Initialize(st, "staging"); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("different environment: expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestService_LogSecurityEvent(t *testing.T) {
	svc := NewService(DefaultConfig())
	st := store.NewMemoryStore()
	logger, err := svc.Initialize(st, "production")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	ctx := context.Background()
	err = svc.LogSecurityEvent(ctx, EventLoginFailure, "bad password", Metadata{
		UserID: "u1",
		IP:     "203.0.113.4",
	})
	if err != nil {
		t.Fatalf("LogSecurityEvent failed: %v", err)
	}

	entries, err := logger.LogsBySeverity(ctx, SeverityWarning, 10)
	if err != nil {
		t.Fatalf("LogsBySeverity failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	// Taxonomy severity: auth.login.failure is WARNING.
	if entry.Severity != SeverityWarning {
		t.Errorf("expected WARNING, got %s", entry.Severity)
	}
	// The event type is merged into the tags.
	if !entry.Metadata.HasTag(string(EventLoginFailure)) {
		t.Errorf("event type missing from tags: %v", entry.Metadata.Tags)
	}
	// The environment is stamped into Extra.
	if env, _ := entry.Metadata.Extra["environment"].(string); env != "production" {
		t.Errorf("expected environment production, got %v", entry.Metadata.Extra["environment"])
	}
}

func TestService_LogSecurityEventKeepsExistingTag(t *testing.T) {
	svc := NewService(DefaultConfig())
	logger, err := svc.Initialize(store.NewMemoryStore(), "test")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	ctx := context.Background()
	meta := Metadata{Tags: []string{string(EventDataAccess)}}
	if err := svc.LogSecurityEvent(ctx, EventDataAccess, "read", meta); err != nil {
		t.Fatalf("LogSecurityEvent failed: %v", err)
	}

	entries, err := logger.LogsBySeverity(ctx, SeverityInfo, 10)
	if err != nil {
		t.Fatalf("LogsBySeverity failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if n := len(entries[0].Metadata.Tags); n != 1 {
		t.Errorf("tag must not be duplicated, got %v", entries[0].Metadata.Tags)
	}
}

func TestService_LogSecurityEventKeepsCallerEnvironment(t *testing.T) {
	svc := NewService(DefaultConfig())
	logger, err := svc.Initialize(store.NewMemoryStore(), "production")
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	ctx := context.Background()
	meta := Metadata{Extra: map[string]any{"environment": "canary"}}
	if err := svc.LogSecurityEvent(ctx, EventDataAccess, "read", meta); err != nil {
		t.Fatalf("LogSecurityEvent failed: %v", err)
	}

	entries, err := logger.LogsBySeverity(ctx, SeverityInfo, 10)
	if err != nil {
		t.Fatalf("LogsBySeverity failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if env, _ := entries[0].Metadata.Extra["environment"].(string); env != "canary" {
		t.Errorf("caller-provided environment overridden: %v", env)
	}
}
