// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package store defines the ordered key-value contract the security event
// log is written against, with a durable BadgerDB backend for production
// and an in-memory backend for development and tests.
package store

import "context"

// EventStore is the minimal ordered key-value surface required by the
// security log: a score-ordered set for the main log (scored by timestamp)
// and a head-trimmed list for the critical side-list.
//
// Range bounds are inclusive on both sides. SortedSetRangeByScore returns
// members in ascending score order. List indices follow Redis conventions:
// zero-based from the head, with stop == -1 addressing the last element.
type EventStore interface {
	// SortedSetInsert inserts a scored member. Members with equal scores
	// are kept distinct; the store never deduplicates by value.
	SortedSetInsert(ctx context.Context, key string, score int64, member []byte) error

	// SortedSetRangeByScore returns all members with score in [min, max],
	// ascending by score.
	SortedSetRangeByScore(ctx context.Context, key string, min, max int64) ([][]byte, error)

	// SortedSetDeleteRangeByScore removes all members with score in [min, max].
	SortedSetDeleteRangeByScore(ctx context.Context, key string, min, max int64) error

	// ListPushFront prepends a member to the list.
	ListPushFront(ctx context.Context, key string, member []byte) error

	// ListTrim keeps only the elements with index in [start, stop].
	ListTrim(ctx context.Context, key string, start, stop int64) error

	// ListRange returns the elements with index in [start, stop].
	ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}
