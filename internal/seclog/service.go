// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package seclog

import (
	"context"
	"sync"

	"github.com/tomtom215/vigil/internal/store"
)

// Service is the emission façade: it owns the one Logger instance the rest
// of the application logs through. It is an explicit dependency, constructed
// at startup and threaded into handlers, rather than package-level state, so
// tests build isolated instances instead of resetting a shared global.
type Service struct {
	mu          sync.Mutex
	cfg         Config
	logger      *Logger
	store       store.EventStore
	environment string
}

// NewService creates an uninitialized service with the given logger
// configuration. Call Initialize before logging through it.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Initialize binds the service to a store and environment, constructing the
// shared Logger. Re-initialization with the same store and environment is
// idempotent and returns the existing Logger; a different store or
// environment is rejected with ErrAlreadyInitialized, since two in-flight
// loggers would duplicate retention and side-list maintenance.
func (s *Service) Initialize(st store.EventStore, environment string) (*Logger, error) {
	if st == nil {
		return nil, ErrNoStore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger != nil {
		if s.store == st && s.environment == environment {
			return s.logger, nil
		}
		return nil, ErrAlreadyInitialized
	}

	logger, err := New(st, s.cfg)
	if err != nil {
		return nil, err
	}

	s.logger = logger
	s.store = st
	s.environment = environment
	return logger, nil
}

// Logger returns the shared Logger, or ErrNotInitialized before Initialize.
func (s *Service) Logger() (*Logger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger == nil {
		return nil, ErrNotInitialized
	}
	return s.logger, nil
}

// LogSecurityEvent logs a named event, resolving its severity from the
// taxonomy. The event type is merged into the metadata tags if absent, and
// the service environment is recorded alongside event-specific fields.
func (s *Service) LogSecurityEvent(ctx context.Context, eventType EventType, message string, meta Metadata) error {
	s.mu.Lock()
	logger := s.logger
	environment := s.environment
	s.mu.Unlock()

	if logger == nil {
		return ErrNotInitialized
	}

	if !meta.HasTag(string(eventType)) {
		meta.Tags = append(meta.Tags, string(eventType))
	}
	if environment != "" {
		if meta.Extra == nil {
			meta.Extra = make(map[string]any)
		}
		if _, ok := meta.Extra["environment"]; !ok {
			meta.Extra["environment"] = environment
		}
	}

	return logger.Log(ctx, DefaultSeverity(eventType), eventType, message, meta)
}
