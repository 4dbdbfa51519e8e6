// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package state

import (
	"encoding/binary"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/streamrec/streamrec/internal/metrics"
)

var (
	changelogPrefix = []byte("cl/")
	snapshotPrefix  = []byte("snap/")
)

// Changelog is the durable log behind the profile store. Every committed
// profile update is appended under a monotonically increasing sequence;
// periodic snapshots compact the log so recovery replays only the tail.
type Changelog struct {
	db *badger.DB

	mu  sync.Mutex
	seq uint64
}

// OpenChangelog opens (or creates) the changelog database at path and
// restores the last used sequence number.
func OpenChangelog(path string) (*Changelog, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening changelog db: %w", err)
	}

	cl := &Changelog{db: db}
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Reverse: true, Prefix: changelogPrefix})
		defer it.Close()
		// Seek past the last changelog key; 0xff sorts after any sequence.
		it.Seek(append(append([]byte{}, changelogPrefix...), 0xff))
		if it.ValidForPrefix(changelogPrefix) {
			key := it.Item().Key()
			cl.seq = binary.BigEndian.Uint64(key[len(changelogPrefix):])
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restoring changelog sequence: %w", err)
	}
	return cl, nil
}

func changelogKey(seq uint64) []byte {
	key := make([]byte, len(changelogPrefix)+8)
	copy(key, changelogPrefix)
	binary.BigEndian.PutUint64(key[len(changelogPrefix):], seq)
	return key
}

// Append durably records a profile update. The payload is an encoded
// profile; it is replayed verbatim during recovery.
func (c *Changelog) Append(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(changelogKey(c.seq), payload)
	})
	if err != nil {
		c.seq--
		return fmt.Errorf("appending changelog entry: %w", err)
	}
	metrics.ChangelogWrites.Inc()
	return nil
}

// Seq returns the sequence of the last appended entry.
func (c *Changelog) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Snapshot persists the full profile set keyed by user ID and truncates
// every changelog entry with a sequence at or below upTo. The caller must
// capture upTo while holding the lock that orders its appends against its
// state reads, so no append newer than the snapshotted state is truncated.
func (c *Changelog) Snapshot(profiles map[string][]byte, upTo uint64) error {
	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for userID, payload := range profiles {
		key := append(append([]byte{}, snapshotPrefix...), userID...)
		if err := wb.Set(key, payload); err != nil {
			return fmt.Errorf("writing snapshot entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	// Truncate the compacted tail.
	return c.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: changelogPrefix})
		defer it.Close()
		var stale [][]byte
		for it.Rewind(); it.ValidForPrefix(changelogPrefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if binary.BigEndian.Uint64(key[len(changelogPrefix):]) <= upTo {
				stale = append(stale, key)
			}
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("truncating changelog entry: %w", err)
			}
		}
		return nil
	})
}

// Replay invokes fn for every snapshot entry and then for every changelog
// entry in sequence order. Later entries supersede earlier ones.
func (c *Changelog) Replay(fn func(payload []byte) error) error {
	return c.db.View(func(txn *badger.Txn) error {
		for _, prefix := range [][]byte{snapshotPrefix, changelogPrefix} {
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
			for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
				payload, err := it.Item().ValueCopy(nil)
				if err != nil {
					it.Close()
					return fmt.Errorf("reading changelog entry: %w", err)
				}
				if err := fn(payload); err != nil {
					it.Close()
					return err
				}
			}
			it.Close()
		}
		return nil
	})
}

// Close releases the underlying database.
func (c *Changelog) Close() error {
	return c.db.Close()
}
