package store

import (
	"github.com/boltdb/bolt"
	"github.com/shopspring/decimal"

	"github.com/moneta-dev/moneta/internal/model"
)

// PutAccount creates or replaces an account.
func (s *Store) PutAccount(a model.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(bucketAccounts), a.ID, a)
	})
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(id string) (model.Account, error) {
	var a model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketAccounts), id, &a)
	})
	return a, err
}

// AccountBySourceKey returns the account fed by the given institution key.
func (s *Store) AccountBySourceKey(sourceKey string) (model.Account, error) {
	var found model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAccounts).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var a model.Account
			if err := unmarshal(v, &a); err != nil {
				return err
			}
			if a.SourceKey == sourceKey {
				found = a
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

// Accounts returns all accounts.
func (s *Store) Accounts() ([]model.Account, error) {
	var out []model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAccounts).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var a model.Account
			if err := unmarshal(v, &a); err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	return out, err
}

// SetAccountBalance updates the cached balance of an account.
func (s *Store) SetAccountBalance(id string, balance decimal.Decimal) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAccounts)
		var a model.Account
		if err := get(b, id, &a); err != nil {
			return err
		}
		a.Balance = balance
		return put(b, id, a)
	})
}

// PutCategory creates or replaces a category.
func (s *Store) PutCategory(c model.Category) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(bucketCategories), c.ID, c)
	})
}

// Categories returns all categories.
func (s *Store) Categories() ([]model.Category, error) {
	var out []model.Category
	err := s.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket(bucketCategories).Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var c model.Category
			if err := unmarshal(v, &c); err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}
