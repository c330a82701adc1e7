// Package snapshot persists a stratum store image to disk and loads it
// back. It is the external persistence collaborator: the core store
// performs no I/O, and this package only ever sees the serializable
// State image, never the live tier maps.
//
// Layout: one Badger database per snapshot directory, one record per
// tier plus one for the diff history. Every record value is a 32-byte
// BLAKE2b-256 digest followed by the JSON payload; a digest mismatch on
// load fails with graph.ErrCorrupted rather than importing a damaged
// image.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/vellumlabs/stratum/pkg/graph"
	"github.com/vellumlabs/stratum/pkg/storage"
	"github.com/vellumlabs/stratum/pkg/stratum"
)

const historyKey = "history"

// Store is a handle on one on-disk snapshot database.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the snapshot database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func tierKey(t storage.Tier) []byte {
	return []byte("tier/" + string(t))
}

// seal prefixes the payload with its BLAKE2b-256 digest.
func seal(payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	out := make([]byte, 0, len(sum)+len(payload))
	out = append(out, sum[:]...)
	return append(out, payload...)
}

// unseal verifies and strips the digest prefix.
func unseal(record []byte) ([]byte, error) {
	if len(record) < blake2b.Size256 {
		return nil, fmt.Errorf("snapshot: record too short: %w", graph.ErrCorrupted)
	}
	payload := record[blake2b.Size256:]
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], record[:blake2b.Size256]) {
		return nil, fmt.Errorf("snapshot: checksum mismatch: %w", graph.ErrCorrupted)
	}
	return payload, nil
}

// Save captures the store's current state and writes it as one
// snapshot, replacing any previous one in this database. The four
// records (three tiers plus history) are serialized in parallel; the
// write itself is a single Badger transaction, so a snapshot on disk is
// always complete or absent.
func (s *Store) Save(kb *stratum.KB) error {
	st, err := kb.ExportState()
	if err != nil {
		return fmt.Errorf("snapshot: export: %w", err)
	}

	var (
		mu     sync.Mutex
		sealed = make(map[string][]byte, 4)
		g      errgroup.Group
	)
	put := func(key string, value []byte) {
		mu.Lock()
		sealed[key] = value
		mu.Unlock()
	}
	for _, tier := range storage.Tiers() {
		tier := tier
		g.Go(func() error {
			payload, err := json.Marshal(st.Tiers[tier])
			if err != nil {
				return fmt.Errorf("snapshot: marshal tier %s: %w", tier, err)
			}
			put(string(tierKey(tier)), seal(payload))
			return nil
		})
	}
	g.Go(func() error {
		payload, err := json.Marshal(st.History)
		if err != nil {
			return fmt.Errorf("snapshot: marshal history: %w", err)
		}
		put(historyKey, seal(payload))
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for key, value := range sealed {
			if err := txn.Set([]byte(key), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("snapshot: write: %w", err)
	}
	return nil
}

// Load reads the snapshot, verifies every record's checksum, and
// replaces kb's content with the loaded image. A database with no
// snapshot returns graph.ErrNotFound.
func (s *Store) Load(kb *stratum.KB) error {
	st := &stratum.State{
		Tiers: make(map[storage.Tier]stratum.TierDump, 3),
	}

	err := s.db.View(func(txn *badger.Txn) error {
		for _, tier := range storage.Tiers() {
			item, err := txn.Get(tierKey(tier))
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("snapshot: no image for tier %s: %w", tier, graph.ErrNotFound)
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(record []byte) error {
				payload, err := unseal(record)
				if err != nil {
					return err
				}
				var dump stratum.TierDump
				if err := json.Unmarshal(payload, &dump); err != nil {
					return fmt.Errorf("snapshot: decode tier %s: %w", tier, err)
				}
				st.Tiers[tier] = dump
				return nil
			}); err != nil {
				return err
			}
		}

		item, err := txn.Get([]byte(historyKey))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("snapshot: no history record: %w", graph.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(record []byte) error {
			payload, err := unseal(record)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(payload, &st.History); err != nil {
				return fmt.Errorf("snapshot: decode history: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	return kb.ImportState(st)
}
