// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package seclog

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/store"
)

// Config holds configuration for the security logger.
type Config struct {
	// LogKey is the store key of the main event log.
	LogKey string `json:"log_key" koanf:"log_key"`

	// CriticalKey is the store key of the critical side-list.
	CriticalKey string `json:"critical_key" koanf:"critical_key"`

	// RetentionDays is how long main-log entries are kept. The critical
	// side-list is size-bounded only and never time-trimmed.
	RetentionDays int `json:"retention_days" koanf:"retention_days"`

	// CriticalMaxLen bounds the critical side-list.
	CriticalMaxLen int `json:"critical_max_len" koanf:"critical_max_len"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogKey:         "security:events",
		CriticalKey:    "security:critical",
		RetentionDays:  90,
		CriticalMaxLen: 1000,
	}
}

// defaultCriticalLimit is the CriticalEvents limit when none is given.
const defaultCriticalLimit = 100

// Logger owns write access to the security event log. It appends entries
// keyed by timestamp, mirrors CRITICAL entries onto a bounded side-list,
// and trims entries past the retention horizon on every write.
//
// A Logger is safe for concurrent use. Correlation ids are carried by
// immutable per-request views (WithCorrelationID), not mutable state.
type Logger struct {
	store         store.EventStore
	cfg           Config
	correlationID string

	// now is the clock; replaced in tests.
	now func() time.Time
}

// New creates a security logger over the given store. The store handle is
// mandatory; construction fails fast without one.
func New(st store.EventStore, cfg Config) (*Logger, error) {
	if st == nil {
		return nil, ErrNoStore
	}
	if cfg.LogKey == "" {
		cfg.LogKey = DefaultConfig().LogKey
	}
	if cfg.CriticalKey == "" {
		cfg.CriticalKey = DefaultConfig().CriticalKey
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultConfig().RetentionDays
	}
	if cfg.CriticalMaxLen <= 0 {
		cfg.CriticalMaxLen = DefaultConfig().CriticalMaxLen
	}

	return &Logger{
		store: st,
		cfg:   cfg,
		now:   time.Now,
	}, nil
}

// WithCorrelationID returns a view of this logger that stamps the given
// correlation id on every entry it writes. The view shares the underlying
// log; the receiver is not modified, so concurrent request contexts never
// leak ids onto each other's entries.
func (l *Logger) WithCorrelationID(id string) *Logger {
	view := *l
	view.correlationID = id
	return &view
}

// Log appends one entry to the security log. The entry is timestamped at
// call time. A store failure on the insert or the critical side-list
// surfaces as ErrLoggingFailed wrapping the cause; retention trimming is
// best-effort and never fails a successful write.
func (l *Logger) Log(ctx context.Context, severity Severity, eventType EventType, message string, meta Metadata) error {
	if !severity.Valid() {
		severity = SeverityInfo
	}
	if meta.CorrelationID == "" && l.correlationID != "" {
		meta.CorrelationID = l.correlationID
	}

	nowMs := l.now().UnixMilli()
	entry := Entry{
		Timestamp: nowMs,
		Severity:  severity,
		EventType: eventType,
		Message:   message,
		Metadata:  meta,
	}

	data, err := entry.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoggingFailed, err)
	}

	if err := l.store.SortedSetInsert(ctx, l.cfg.LogKey, nowMs, data); err != nil {
		metrics.SecurityLoggingFailures.Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("event_type", string(eventType)).
			Msg("security log write failed")
		return fmt.Errorf("%w: %v", ErrLoggingFailed, err)
	}

	if severity == SeverityCritical {
		if err := l.appendCritical(ctx, data); err != nil {
			metrics.SecurityLoggingFailures.Inc()
			logging.Ctx(ctx).Error().Err(err).
				Str("event_type", string(eventType)).
				Msg("critical side-list update failed")
			return fmt.Errorf("%w: %v", ErrLoggingFailed, err)
		}
	}

	metrics.SecurityEventsLogged.WithLabelValues(string(severity)).Inc()

	// Retention races with writes landing just inside the horizon; a blind
	// range delete is accepted as lossy at the boundary.
	l.trimRetention(ctx, nowMs)

	return nil
}

// Info logs an INFO entry.
func (l *Logger) Info(ctx context.Context, eventType EventType, message string, meta Metadata) error {
	return l.Log(ctx, SeverityInfo, eventType, message, meta)
}

// Warning logs a WARNING entry.
func (l *Logger) Warning(ctx context.Context, eventType EventType, message string, meta Metadata) error {
	return l.Log(ctx, SeverityWarning, eventType, message, meta)
}

// Error logs an ERROR entry.
func (l *Logger) Error(ctx context.Context, eventType EventType, message string, meta Metadata) error {
	return l.Log(ctx, SeverityError, eventType, message, meta)
}

// Critical logs a CRITICAL entry, which is also mirrored onto the critical
// side-list.
func (l *Logger) Critical(ctx context.Context, eventType EventType, message string, meta Metadata) error {
	return l.Log(ctx, SeverityCritical, eventType, message, meta)
}

// appendCritical pushes a serialized entry onto the head of the side-list
// and trims it to the configured bound.
func (l *Logger) appendCritical(ctx context.Context, data []byte) error {
	if err := l.store.ListPushFront(ctx, l.cfg.CriticalKey, data); err != nil {
		return fmt.Errorf("push critical entry: %w", err)
	}
	if err := l.store.ListTrim(ctx, l.cfg.CriticalKey, 0, int64(l.cfg.CriticalMaxLen)-1); err != nil {
		return fmt.Errorf("trim critical list: %w", err)
	}
	return nil
}

// trimRetention deletes entries older than the retention horizon. Entries
// exactly at the horizon are retained. Failures are reported, not escalated:
// losing a cleanup pass is preferable to failing the write that triggered it.
func (l *Logger) trimRetention(ctx context.Context, nowMs int64) {
	horizon := nowMs - int64(l.cfg.RetentionDays)*24*int64(time.Hour/time.Millisecond)
	if err := l.store.SortedSetDeleteRangeByScore(ctx, l.cfg.LogKey, 0, horizon-1); err != nil {
		metrics.RetentionTrimFailures.Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("retention trim failed")
	}
}

// LogsByTimeRange returns entries with timestamp in [start, end] (both in
// milliseconds since epoch), ascending. Store failures surface as
// ErrQueryFailed.
func (l *Logger) LogsByTimeRange(ctx context.Context, start, end int64) ([]Entry, error) {
	raw, err := l.store.SortedSetRangeByScore(ctx, l.cfg.LogKey, start, end)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("security log range query failed")
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return decodeEntries(ctx, raw), nil
}

// LogsBySeverity scans the entire log and returns at most limit entries of
// the given severity in log order. Cost is linear in total log size; prefer
// LogsByTimeRange with a narrow window when bounded cost matters.
func (l *Logger) LogsBySeverity(ctx context.Context, severity Severity, limit int) ([]Entry, error) {
	raw, err := l.store.SortedSetRangeByScore(ctx, l.cfg.LogKey, 0, math.MaxInt64)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("security log severity scan failed")
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	var results []Entry
	for _, entry := range decodeEntries(ctx, raw) {
		if entry.Severity != severity {
			continue
		}
		results = append(results, entry)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// CriticalEvents returns up to limit entries from the head of the critical
// side-list, newest first. A non-positive limit defaults to 100.
//
// The side-list is a view over the main log: retention trims only the main
// log, so old critical entries may outlive their main-log counterparts.
func (l *Logger) CriticalEvents(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultCriticalLimit
	}
	raw, err := l.store.ListRange(ctx, l.cfg.CriticalKey, 0, int64(limit)-1)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("critical events query failed")
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return decodeEntries(ctx, raw), nil
}

// decodeEntries parses serialized entries, skipping any that fail to decode.
// A corrupt record is reported and dropped rather than failing the query.
func decodeEntries(ctx context.Context, raw [][]byte) []Entry {
	entries := make([]Entry, 0, len(raw))
	for _, data := range raw {
		entry, err := DecodeEntry(data)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("skipping undecodable log entry")
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
