// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package seclog

import "testing"

func TestDefaultSeverity(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      Severity
	}{
		// system.error is the most specific rule and wins despite also
		// being a potential ERROR-class name.
		{EventSystemError, SeverityError},

		// suspicious / review_required classify as WARNING even though
		// the blocked/denied rule would not match them.
		{EventSuspiciousTransaction, SeverityWarning},
		{EventPaymentReviewRequired, SeverityWarning},

		// blocked / denied names are ERROR.
		{EventLoginBlocked, SeverityError},
		{EventAccessDenied, SeverityError},
		{EventRateLimitBlocked, SeverityError},

		// .failure suffix is WARNING.
		{EventLoginFailure, SeverityWarning},
		{EventPaymentFailure, SeverityWarning},

		// Everything else is INFO.
		{EventLoginSuccess, SeverityInfo},
		{EventPaymentSuccess, SeverityInfo},
		{EventSystemStartup, SeverityInfo},
		{EventDataExport, SeverityInfo},
		{EventBookingCreated, SeverityInfo},
		{EventRateLimitExceeded, SeverityInfo},
	}

	for _, tt := range tests {
		if got := DefaultSeverity(tt.eventType); got != tt.want {
			t.Errorf("DefaultSeverity(%s) = %s, want %s", tt.eventType, got, tt.want)
		}
	}
}

func TestDefaultSeverity_UnregisteredTypes(t *testing.T) {
	// The taxonomy is a total function over names: types that follow the
	// naming convention classify without registration.
	tests := []struct {
		eventType EventType
		want      Severity
	}{
		{"inventory.sync.failure", SeverityWarning},
		{"api.key.blocked", SeverityError},
		{"report.suspicious", SeverityWarning},
		{"something.entirely.new", SeverityInfo},
	}

	for _, tt := range tests {
		if got := DefaultSeverity(tt.eventType); got != tt.want {
			t.Errorf("DefaultSeverity(%s) = %s, want %s", tt.eventType, got, tt.want)
		}
	}
}
