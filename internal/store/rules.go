package store

import (
	"github.com/boltdb/bolt"

	"github.com/moneta-dev/moneta/internal/model"
)

// PutRule creates or replaces a category rule.
func (s *Store) PutRule(r model.CategoryRule) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(bucketRules), r.ID, r)
	})
}

// Rules returns all rules, active or not.
func (s *Store) Rules() ([]model.CategoryRule, error) {
	var out []model.CategoryRule
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRules).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var r model.CategoryRule
			if err := unmarshal(v, &r); err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// DeleteRule removes a rule by ID. Missing rules are not an error.
func (s *Store) DeleteRule(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRules).Delete([]byte(id))
	})
}

// PutAssignment creates or replaces the category assignment of a transaction.
func (s *Store) PutAssignment(a model.CategoryAssignment) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(bucketAssignments), a.TransactionID, a)
	})
}

// GetAssignment returns the assignment for a transaction, or ErrNotFound.
func (s *Store) GetAssignment(transactionID string) (model.CategoryAssignment, error) {
	var a model.CategoryAssignment
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketAssignments), transactionID, &a)
	})
	return a, err
}
