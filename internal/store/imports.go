package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"

	"github.com/moneta-dev/moneta/internal/model"
)

// PutImport creates or replaces an import batch record.
func (s *Store) PutImport(b model.ImportBatch) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(bucketImports), b.ID, b)
	})
}

// GetImport returns an import batch by ID.
func (s *Store) GetImport(id string) (model.ImportBatch, error) {
	var b model.ImportBatch
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketImports), id, &b)
	})
	return b, err
}

// Imports returns all import batches, newest first.
func (s *Store) Imports() ([]model.ImportBatch, error) {
	var out []model.ImportBatch
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketImports).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var b model.ImportBatch
			if err := unmarshal(v, &b); err != nil {
				return err
			}
			out = append(out, b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

// ClaimImport transitions a batch to PROCESSING with an optimistic check: a
// batch that is already PROCESSING or PROCESSED is not claimable and returns
// ErrConflict, so a retried request cannot double-process the same upload.
// FAILED batches are claimable to make storage-level failures retryable.
func (s *Store) ClaimImport(id string) (model.ImportBatch, error) {
	var b model.ImportBatch
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketImports)
		if err := get(bucket, id, &b); err != nil {
			return err
		}
		switch b.Status {
		case model.ImportProcessing, model.ImportProcessed:
			return fmt.Errorf("import %s is %s: %w", id, b.Status, ErrConflict)
		}
		b.Status = model.ImportProcessing
		b.UpdatedAt = time.Now().UTC()
		return put(bucket, id, b)
	})
	return b, err
}
