// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package store

import (
	"context"
	"sort"
	"sync"
)

// scoredMember pairs a serialized member with its sort score.
type scoredMember struct {
	score  int64
	member []byte
}

// MemoryStore implements EventStore with in-process storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	sets  map[string][]scoredMember
	lists map[string][][]byte
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:  make(map[string][]scoredMember),
		lists: make(map[string][][]byte),
	}
}

// SortedSetInsert inserts a scored member, keeping the set ordered by score.
// Insertion among equal scores is stable (arrival order).
func (s *MemoryStore) SortedSetInsert(ctx context.Context, key string, score int64, member []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	// First index with score strictly greater, so equal scores stay in
	// arrival order.
	idx := sort.Search(len(set), func(i int) bool { return set[i].score > score })

	entry := scoredMember{score: score, member: append([]byte(nil), member...)}
	set = append(set, scoredMember{})
	copy(set[idx+1:], set[idx:])
	set[idx] = entry
	s.sets[key] = set
	return nil
}

// SortedSetRangeByScore returns members with score in [min, max], ascending.
func (s *MemoryStore) SortedSetRangeByScore(ctx context.Context, key string, min, max int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results [][]byte
	for _, sm := range s.sets[key] {
		if sm.score < min {
			continue
		}
		if sm.score > max {
			break
		}
		results = append(results, append([]byte(nil), sm.member...))
	}
	return results, nil
}

// SortedSetDeleteRangeByScore removes members with score in [min, max].
func (s *MemoryStore) SortedSetDeleteRangeByScore(ctx context.Context, key string, min, max int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	kept := set[:0]
	for _, sm := range set {
		if sm.score >= min && sm.score <= max {
			continue
		}
		kept = append(kept, sm)
	}
	s.sets[key] = kept
	return nil
}

// ListPushFront prepends a member to the list.
func (s *MemoryStore) ListPushFront(ctx context.Context, key string, member []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	list = append([][]byte{append([]byte(nil), member...)}, list...)
	s.lists[key] = list
	return nil
}

// ListTrim keeps only the elements with index in [start, stop].
func (s *MemoryStore) ListTrim(ctx context.Context, key string, start, stop int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	lo, hi := clampRange(start, stop, int64(len(list)))
	if lo >= hi {
		delete(s.lists, key)
		return nil
	}
	s.lists[key] = list[lo:hi]
	return nil
}

// ListRange returns elements with index in [start, stop].
func (s *MemoryStore) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[key]
	lo, hi := clampRange(start, stop, int64(len(list)))
	if lo >= hi {
		return nil, nil
	}

	results := make([][]byte, 0, hi-lo)
	for _, m := range list[lo:hi] {
		results = append(results, append([]byte(nil), m...))
	}
	return results, nil
}

// SortedSetLen returns the number of members under key (for tests).
func (s *MemoryStore) SortedSetLen(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets[key])
}

// ListLen returns the number of list elements under key (for tests).
func (s *MemoryStore) ListLen(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists[key])
}

// clampRange resolves Redis-style [start, stop] bounds (stop inclusive,
// negative indices counted from the tail) to a half-open [lo, hi) slice range.
func clampRange(start, stop, length int64) (lo, hi int64) {
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop {
		return 0, 0
	}
	return start, stop + 1
}
