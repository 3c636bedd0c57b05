package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/boltdb/bolt"

	"github.com/moneta-dev/moneta/internal/model"
)

// InsertDeduped inserts the given rows, skipping any whose fingerprint is
// already present for their account. The whole batch runs in one write
// transaction, so concurrent imports against the same account cannot race on
// the dedup check. Rows are keyed by fingerprint; a secondary index maps
// transaction ID back to its row.
func (s *Store) InsertDeduped(txns []model.LedgerTransaction) (inserted, skipped int, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketTxnIndex)
		for _, t := range txns {
			ab, err := tx.Bucket(bucketTxns).CreateBucketIfNotExists([]byte(t.AccountID))
			if err != nil {
				return fmt.Errorf("account bucket %s: %w", t.AccountID, err)
			}
			if ab.Get([]byte(t.Fingerprint)) != nil {
				skipped++
				continue
			}
			if err := put(ab, t.Fingerprint, t); err != nil {
				return err
			}
			if err := idx.Put([]byte(t.ID), []byte(t.AccountID+"/"+t.Fingerprint)); err != nil {
				return fmt.Errorf("indexing %s: %w", t.ID, err)
			}
			inserted++
		}
		return nil
	})
	return inserted, skipped, err
}

// TransactionsByAccount returns all ledger rows for one account.
func (s *Store) TransactionsByAccount(accountID string) ([]model.LedgerTransaction, error) {
	var out []model.LedgerTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		ab := tx.Bucket(bucketTxns).Bucket([]byte(accountID))
		if ab == nil {
			return nil
		}
		c := ab.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var t model.LedgerTransaction
			if err := unmarshal(v, &t); err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	return out, err
}

// TransactionByID looks a ledger row up through the ID index.
func (s *Store) TransactionByID(id string) (model.LedgerTransaction, error) {
	var t model.LedgerTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		ref := tx.Bucket(bucketTxnIndex).Get([]byte(id))
		if ref == nil {
			return ErrNotFound
		}
		accountID, fingerprint, ok := strings.Cut(string(ref), "/")
		if !ok {
			return fmt.Errorf("malformed index entry for %s", id)
		}
		ab := tx.Bucket(bucketTxns).Bucket([]byte(accountID))
		if ab == nil {
			return ErrNotFound
		}
		return get(ab, fingerprint, &t)
	})
	return t, err
}

// CountByDateRange counts an account's rows with from <= date <= to.
func (s *Store) CountByDateRange(accountID string, from, to time.Time) (int, error) {
	txns, err := s.TransactionsByAccount(accountID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, t := range txns {
		if inRange(t.Date, from, to) {
			count++
		}
	}
	return count, nil
}

// DeleteByDateRange removes an account's rows with from <= date <= to,
// together with their index entries and category assignments. Used by
// reprocess only.
func (s *Store) DeleteByDateRange(accountID string, from, to time.Time) (deleted int, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		ab := tx.Bucket(bucketTxns).Bucket([]byte(accountID))
		if ab == nil {
			return nil
		}
		idx := tx.Bucket(bucketTxnIndex)
		assignments := tx.Bucket(bucketAssignments)

		var doomed []model.LedgerTransaction
		c := ab.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var t model.LedgerTransaction
			if err := unmarshal(v, &t); err != nil {
				return err
			}
			if inRange(t.Date, from, to) {
				doomed = append(doomed, t)
			}
		}
		for _, t := range doomed {
			if err := ab.Delete([]byte(t.Fingerprint)); err != nil {
				return err
			}
			if err := idx.Delete([]byte(t.ID)); err != nil {
				return err
			}
			if err := assignments.Delete([]byte(t.ID)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}
