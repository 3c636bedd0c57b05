// Package store is the embedded persistence layer. A single bolt database
// holds accounts, ledger transactions, category assignments, rules, and
// import batches. Transactions are kept in one nested bucket per account,
// keyed by fingerprint, which makes the dedup check an atomic
// insert-if-not-exists inside a write transaction.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an optimistic state check fails, e.g.
	// claiming an import batch that is already processing.
	ErrConflict = errors.New("conflicting state")
)

var (
	bucketAccounts    = []byte("accounts")
	bucketTxns        = []byte("transactions") // nested: accountID -> fingerprint -> row
	bucketTxnIndex    = []byte("txn_index")    // txID -> accountID/fingerprint
	bucketAssignments = []byte("assignments")
	bucketRules       = []byte("rules")
	bucketImports     = []byte("imports")
	bucketCategories  = []byte("categories")
)

// Store wraps the bolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketAccounts, bucketTxns, bucketTxnIndex, bucketAssignments, bucketRules, bucketImports, bucketCategories} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func put(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %q: %w", key, err)
	}
	return b.Put([]byte(key), data)
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling record: %w", err)
	}
	return nil
}

func get(b *bolt.Bucket, key string, v any) error {
	data := b.Get([]byte(key))
	if data == nil {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling %q: %w", key, err)
	}
	return nil
}
