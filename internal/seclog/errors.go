// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package seclog

import "errors"

// Failure kinds surfaced by the security log. Store-specific causes are
// wrapped, never exposed as the primary error; callers pattern-match with
// errors.Is on these sentinels.
var (
	// ErrNoStore indicates construction without an event store handle.
	ErrNoStore = errors.New("security logger requires an event store")

	// ErrLoggingFailed indicates the write path failed. Callers should
	// treat this as non-fatal to the operation being instrumented.
	ErrLoggingFailed = errors.New("failed to log security event")

	// ErrQueryFailed indicates the read path failed.
	ErrQueryFailed = errors.New("failed to retrieve logs by time range")

	// ErrNotInitialized indicates the event service was used before
	// Initialize.
	ErrNotInitialized = errors.New("security event service not initialized")

	// ErrAlreadyInitialized indicates a conflicting re-initialization with
	// a different store or environment.
	ErrAlreadyInitialized = errors.New("security event service already initialized with different store or environment")
)
