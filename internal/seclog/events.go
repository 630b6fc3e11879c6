// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package seclog

import "strings"

// EventType categorizes security events. Types follow a dotted-namespace
// convention grouped by domain; severity is resolved from the name by
// DefaultSeverity, so new types that follow the convention classify
// correctly without registration.
type EventType string

const (
	// Authentication events
	EventLoginSuccess         EventType = "auth.login.success"
	EventLoginFailure         EventType = "auth.login.failure"
	EventLoginBlocked         EventType = "auth.login.blocked"
	EventLogout               EventType = "auth.logout"
	EventTokenRefresh         EventType = "auth.token.refresh"
	EventPasswordResetRequest EventType = "auth.password.reset_request"
	EventPasswordChanged      EventType = "auth.password.changed"

	// Access control events
	EventAccessGranted EventType = "access.granted"
	EventAccessDenied  EventType = "access.denied"
	EventRoleEscalated EventType = "access.role.escalated"

	// Rate limiting events
	EventRateLimitExceeded EventType = "ratelimit.exceeded"
	EventRateLimitBlocked  EventType = "ratelimit.blocked"

	// Payment events
	EventPaymentSuccess        EventType = "payment.success"
	EventPaymentFailure        EventType = "payment.failure"
	EventPaymentRefund         EventType = "payment.refund"
	EventSuspiciousTransaction EventType = "payment.suspicious"
	EventPaymentReviewRequired EventType = "payment.review_required"

	// System events
	EventSystemStartup  EventType = "system.startup"
	EventSystemShutdown EventType = "system.shutdown"
	EventSystemError    EventType = "system.error"
	EventConfigChanged  EventType = "system.config.changed"

	// Data access events
	EventDataExport   EventType = "data.export"
	EventDataAccess   EventType = "data.access"
	EventDataDeletion EventType = "data.deletion"

	// User management events
	EventUserCreated    EventType = "user.created"
	EventUserModified   EventType = "user.modified"
	EventUserDeleted    EventType = "user.deleted"
	EventUserRoleChange EventType = "user.role.change"

	// Booking events
	EventBookingCreated   EventType = "booking.created"
	EventBookingModified  EventType = "booking.modified"
	EventBookingCancelled EventType = "booking.cancelled"
)

// severityRule pairs a name predicate with the severity it implies.
type severityRule struct {
	matches  func(string) bool
	severity Severity
}

// severityRules classify an event type by name. Evaluated in order, first
// match wins; ambiguous names resolve to the earliest matching rule.
var severityRules = []severityRule{
	{func(t string) bool { return strings.HasPrefix(t, "system.error") }, SeverityError},
	{func(t string) bool {
		return strings.Contains(t, ".suspicious") || strings.Contains(t, ".review_required")
	}, SeverityWarning},
	{func(t string) bool {
		return strings.Contains(t, ".blocked") || strings.Contains(t, ".denied")
	}, SeverityError},
	{func(t string) bool { return strings.HasSuffix(t, ".failure") }, SeverityWarning},
}

// DefaultSeverity resolves the implied severity of an event type. It is a
// total function over the type namespace: unmatched names are INFO.
func DefaultSeverity(eventType EventType) Severity {
	name := string(eventType)
	for _, rule := range severityRules {
		if rule.matches(name) {
			return rule.severity
		}
	}
	return SeverityInfo
}
