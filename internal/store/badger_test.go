// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package store

import (
	"context"
	"fmt"
	"testing"
)

// openTestBadger opens an in-memory BadgerDB store scoped to the test.
func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	st, err := OpenBadger("", true)
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return st
}

func TestBadgerStore_SortedSetOrdering(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	for _, score := range []int64{300, 100, 200} {
		member := []byte(fmt.Sprintf("m%d", score))
		if err := st.SortedSetInsert(ctx, "k", score, member); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	got, err := st.SortedSetRangeByScore(ctx, "k", 0, 1000)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	want := []string{"m100", "m200", "m300"}
	if len(got) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(got))
	}
	for i, w := range want {
		if string(got[i]) != w {
			t.Errorf("position %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestBadgerStore_SortedSetRangeInclusive(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	for _, score := range []int64{1, 2, 3, 4, 5} {
		if err := st.SortedSetInsert(ctx, "k", score, []byte(fmt.Sprintf("m%d", score))); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	got, err := st.SortedSetRangeByScore(ctx, "k", 2, 4)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("[2,4] should include both endpoints, got %d members", len(got))
	}
	if string(got[0]) != "m2" || string(got[2]) != "m4" {
		t.Errorf("wrong endpoints: %s, %s", got[0], got[2])
	}
}

func TestBadgerStore_SortedSetEqualScores(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	// Distinct members on the same score must both survive; the member
	// hash in the key keeps them apart.
	if err := st.SortedSetInsert(ctx, "k", 7, []byte("first")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := st.SortedSetInsert(ctx, "k", 7, []byte("second")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := st.SortedSetRangeByScore(ctx, "k", 7, 7)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("equal scores must not collapse, got %d members", len(got))
	}
}

func TestBadgerStore_SortedSetDeleteRange(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	for _, score := range []int64{1, 2, 3, 4, 5} {
		if err := st.SortedSetInsert(ctx, "k", score, []byte(fmt.Sprintf("m%d", score))); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	if err := st.SortedSetDeleteRangeByScore(ctx, "k", 0, 3); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := st.SortedSetRangeByScore(ctx, "k", 0, 100)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "m4" {
		t.Errorf("delete [0,3] should leave m4 and m5, got %d members", len(got))
	}
}

func TestBadgerStore_KeysAreIsolated(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	if err := st.SortedSetInsert(ctx, "a", 1, []byte("in-a")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := st.SortedSetInsert(ctx, "b", 1, []byte("in-b")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := st.SortedSetRangeByScore(ctx, "a", 0, 10)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 1 || string(got[0]) != "in-a" {
		t.Errorf("key a leaked members from key b: %v", got)
	}
}

func TestBadgerStore_ListNewestFirst(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	for _, m := range []string{"a", "b", "c"} {
		if err := st.ListPushFront(ctx, "l", []byte(m)); err != nil {
			t.Fatalf("push failed: %v", err)
		}
	}

	got, err := st.ListRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
	for i, w := range want {
		if string(got[i]) != w {
			t.Errorf("position %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestBadgerStore_ListTrim(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	for i := 9; i >= 0; i-- {
		if err := st.ListPushFront(ctx, "l", []byte(fmt.Sprintf("e%d", i))); err != nil {
			t.Fatalf("push failed: %v", err)
		}
	}

	if err := st.ListTrim(ctx, "l", 0, 4); err != nil {
		t.Fatalf("trim failed: %v", err)
	}

	got, err := st.ListRange(ctx, "l", 0, -1)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 elements after trim, got %d", len(got))
	}
	if string(got[0]) != "e0" || string(got[4]) != "e4" {
		t.Errorf("trim kept the wrong elements: %s .. %s", got[0], got[4])
	}

	// Pushing after a trim keeps head order.
	if err := st.ListPushFront(ctx, "l", []byte("newest")); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	got, err = st.ListRange(ctx, "l", 0, 0)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 1 || string(got[0]) != "newest" {
		t.Errorf("expected newest at the head, got %v", got)
	}
}

func TestBadgerStore_ListRangeNegativeIndices(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	for i := 4; i >= 0; i-- {
		if err := st.ListPushFront(ctx, "l", []byte(fmt.Sprintf("e%d", i))); err != nil {
			t.Fatalf("push failed: %v", err)
		}
	}

	got, err := st.ListRange(ctx, "l", -2, -1)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "e3" || string(got[1]) != "e4" {
		t.Errorf("negative indices resolved wrong: %v", got)
	}
}

func TestBadgerStore_EmptyKeys(t *testing.T) {
	st := openTestBadger(t)
	ctx := context.Background()

	got, err := st.SortedSetRangeByScore(ctx, "missing", 0, 100)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no members, got %d", len(got))
	}

	if err := st.SortedSetDeleteRangeByScore(ctx, "missing", 0, 100); err != nil {
		t.Errorf("delete on missing key failed: %v", err)
	}

	list, err := st.ListRange(ctx, "missing", 0, -1)
	if err != nil {
		t.Fatalf("list range failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no elements, got %d", len(list))
	}
}
