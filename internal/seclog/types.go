// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package seclog provides the append-only security event log: a severity
// tiered, retention-trimmed record of security-relevant events written to an
// ordered key-value store, plus the taxonomy that classifies them.
package seclog

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Severity is the escalation tier of a log entry.
// INFO < WARNING < ERROR < CRITICAL.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// severityRank orders severities for comparisons. Unknown severities rank
// below INFO.
var severityRank = map[Severity]int{
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityError:    3,
	SeverityCritical: 4,
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is at or above min in escalation order.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// Metadata carries the contextual fields of a log entry. The well-known
// fields are statically typed; everything else rides in Extra and is
// flattened into the same JSON object on the wire, so the serialized shape
// stays an open mapping.
type Metadata struct {
	UserID        string
	IP            string
	UserAgent     string
	CorrelationID string
	Tags          []string

	// Extra holds event-specific fields (amount, attemptCount, ...).
	// Readers must access these defensively; unknown keys are preserved
	// across a round trip but never interpreted.
	Extra map[string]any
}

// Wire names of the well-known metadata fields.
const (
	metaUserID        = "userId"
	metaIP            = "ip"
	metaUserAgent     = "userAgent"
	metaCorrelationID = "correlationId"
	metaTags          = "tags"
)

// MarshalJSON flattens known fields and Extra into one object. Known fields
// win over identically named Extra keys.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+5)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.UserID != "" {
		out[metaUserID] = m.UserID
	}
	if m.IP != "" {
		out[metaIP] = m.IP
	}
	if m.UserAgent != "" {
		out[metaUserAgent] = m.UserAgent
	}
	if m.CorrelationID != "" {
		out[metaCorrelationID] = m.CorrelationID
	}
	if len(m.Tags) > 0 {
		out[metaTags] = m.Tags
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the flat object back into known fields and Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata{}
	for k, v := range raw {
		switch k {
		case metaUserID:
			m.UserID, _ = v.(string)
		case metaIP:
			m.IP, _ = v.(string)
		case metaUserAgent:
			m.UserAgent, _ = v.(string)
		case metaCorrelationID:
			m.CorrelationID, _ = v.(string)
		case metaTags:
			m.Tags = toStringSlice(v)
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[k] = v
		}
	}
	return nil
}

// toStringSlice converts a decoded JSON array to []string, dropping
// non-string elements.
func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// HasTag reports whether tag is present in Tags.
func (m *Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Float returns the Extra field under key as a float64. JSON numbers decode
// as float64; integer-typed values set programmatically are converted.
func (m *Metadata) Float(key string) (float64, bool) {
	v, ok := m.Extra[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Entry is the atomic unit of the security log. Entries are immutable once
// written; correction means appending a new entry, never editing history.
type Entry struct {
	// Timestamp is milliseconds since epoch and doubles as the sort key.
	Timestamp int64 `json:"timestamp"`

	// Severity is the escalation tier.
	Severity Severity `json:"severity"`

	// EventType is a dotted-namespace type from the event taxonomy.
	EventType EventType `json:"eventType"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// Metadata carries contextual fields.
	Metadata Metadata `json:"metadata"`
}

// Encode serializes the entry to its wire form.
func (e *Entry) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return data, nil
}

// DecodeEntry parses a serialized entry.
func DecodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	return e, nil
}
