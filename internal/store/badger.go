// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/vigil/internal/logging"
)

// Key layout in BadgerDB:
//
//	zset:<key>:<8B score><8B member hash> -> member
//	list:<key>:head                       -> next front sequence (8B)
//	list:<key>:item:<8B seq>              -> member
//
// Scores are encoded sign-flipped big-endian so lexicographic key order
// matches signed score order. The member hash suffix keeps entries with
// identical scores distinct, so the set never collapses concurrent writes
// that land on the same millisecond.
const (
	zsetPrefix = "zset:"
	listPrefix = "list:"

	// listSeqStart leaves room for 2^62 pushes in either direction.
	listSeqStart = uint64(1) << 62
)

// BadgerStore implements EventStore on BadgerDB for durable storage.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open BadgerDB handle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens (or creates) the database at path. With inMemory set the
// path is ignored and nothing touches disk; tests and ephemeral deployments
// use this mode.
func OpenBadger(path string, inMemory bool) (*BadgerStore, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", path).
		Bool("in_memory", inMemory).
		Msg("event store opened")
	return NewBadgerStore(db), nil
}

// Close closes the underlying database. Writes issued after Close fail.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// encodeScore flips the sign bit so byte order equals signed int64 order.
func encodeScore(score int64) [8]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(score)^(1<<63))
	return buf
}

// zsetMemberKey builds the full key for one scored member.
func zsetMemberKey(key string, score int64, member []byte) []byte {
	sc := encodeScore(score)
	h := fnv.New64a()
	h.Write(member) //nolint:errcheck // fnv never fails

	var hash [8]byte
	binary.BigEndian.PutUint64(hash[:], h.Sum64())

	k := make([]byte, 0, len(zsetPrefix)+len(key)+1+16)
	k = append(k, zsetPrefix...)
	k = append(k, key...)
	k = append(k, ':')
	k = append(k, sc[:]...)
	k = append(k, hash[:]...)
	return k
}

// zsetKeyPrefix is the shared prefix of all members under key.
func zsetKeyPrefix(key string) []byte {
	return []byte(zsetPrefix + key + ":")
}

// SortedSetInsert inserts a scored member.
func (s *BadgerStore) SortedSetInsert(ctx context.Context, key string, score int64, member []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(zsetMemberKey(key, score, member), member)
	})
}

// SortedSetRangeByScore returns members with score in [min, max], ascending.
func (s *BadgerStore) SortedSetRangeByScore(ctx context.Context, key string, min, max int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if min > max {
		return nil, nil
	}

	var results [][]byte
	prefix := zsetKeyPrefix(key)
	maxScore := encodeScore(max)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		minScore := encodeScore(min)
		seek := append(append([]byte(nil), prefix...), minScore[:]...)

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			scoreBytes := item.Key()[len(prefix) : len(prefix)+8]
			if greaterThan(scoreBytes, maxScore[:]) {
				break
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read member: %w", err)
			}
			results = append(results, val)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SortedSetDeleteRangeByScore removes members with score in [min, max].
func (s *BadgerStore) SortedSetDeleteRangeByScore(ctx context.Context, key string, min, max int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if min > max {
		return nil
	}

	prefix := zsetKeyPrefix(key)
	maxScore := encodeScore(max)

	// Collect matching keys first; deleting while iterating the same
	// transaction invalidates the iterator.
	var doomed [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		minScore := encodeScore(min)
		seek := append(append([]byte(nil), prefix...), minScore[:]...)

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			k := it.Item().KeyCopy(nil)
			if greaterThan(k[len(prefix):len(prefix)+8], maxScore[:]) {
				break
			}
			doomed = append(doomed, k)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan range: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range doomed {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
	}
	return wb.Flush()
}

// listHeadKey is the metadata key holding the next front sequence.
func listHeadKey(key string) []byte {
	return []byte(listPrefix + key + ":head")
}

// listItemPrefix is the shared prefix of all list elements under key.
func listItemPrefix(key string) []byte {
	return []byte(listPrefix + key + ":item:")
}

// ListPushFront prepends a member. Sequences decrease toward the front, so
// ascending key iteration yields head-to-tail order.
func (s *BadgerStore) ListPushFront(ctx context.Context, key string, member []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		seq := listSeqStart
		item, err := txn.Get(listHeadKey(key))
		switch {
		case err == nil:
			err = item.Value(func(val []byte) error {
				seq = binary.BigEndian.Uint64(val)
				return nil
			})
			if err != nil {
				return fmt.Errorf("read head sequence: %w", err)
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("get head sequence: %w", err)
		}

		var seqBytes [8]byte
		binary.BigEndian.PutUint64(seqBytes[:], seq)

		itemKey := append(listItemPrefix(key), seqBytes[:]...)
		if err := txn.Set(itemKey, member); err != nil {
			return fmt.Errorf("set element: %w", err)
		}

		var next [8]byte
		binary.BigEndian.PutUint64(next[:], seq-1)
		return txn.Set(listHeadKey(key), next[:])
	})
}

// listKeys returns all element keys under key in head-to-tail order.
func (s *BadgerStore) listKeys(key string) ([][]byte, error) {
	var keys [][]byte
	prefix := listItemPrefix(key)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// ListTrim keeps only elements with index in [start, stop].
func (s *BadgerStore) ListTrim(ctx context.Context, key string, start, stop int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	keys, err := s.listKeys(key)
	if err != nil {
		return fmt.Errorf("scan list: %w", err)
	}

	lo, hi := clampRange(start, stop, int64(len(keys)))

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for i, k := range keys {
		if int64(i) >= lo && int64(i) < hi {
			continue
		}
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("delete element: %w", err)
		}
	}
	return wb.Flush()
}

// ListRange returns elements with index in [start, stop].
func (s *BadgerStore) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := s.listKeys(key)
	if err != nil {
		return nil, fmt.Errorf("scan list: %w", err)
	}

	lo, hi := clampRange(start, stop, int64(len(keys)))
	if lo >= hi {
		return nil, nil
	}

	var results [][]byte
	err = s.db.View(func(txn *badger.Txn) error {
		for _, k := range keys[lo:hi] {
			item, err := txn.Get(k)
			if err != nil {
				return fmt.Errorf("get element: %w", err)
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read element: %w", err)
			}
			results = append(results, val)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// greaterThan compares two 8-byte encoded scores.
func greaterThan(a, b []byte) bool {
	for i := 0; i < 8; i++ {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}
