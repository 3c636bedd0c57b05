// Package ledger persists canonical transactions into the transaction ledger
// without duplication.
package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-dev/moneta/internal/model"
)

// Store is the persistence surface the writer needs.
type Store interface {
	InsertDeduped(txns []model.LedgerTransaction) (inserted, skipped int, err error)
	TransactionsByAccount(accountID string) ([]model.LedgerTransaction, error)
	SetAccountBalance(accountID string, balance decimal.Decimal) error
}

// Writer inserts parsed transactions deduplicated against existing rows.
type Writer struct {
	store Store
}

// NewWriter creates a Writer.
func NewWriter(store Store) *Writer {
	return &Writer{store: store}
}

// InsertDeduped inserts the batch for one account, skipping rows whose
// fingerprint already exists. Row-level validation failures are collected
// with their row context and do not abort the rest of the batch. Running the
// same batch twice yields the same ledger state, with the second run
// reporting inserted=0.
func (w *Writer) InsertDeduped(accountID, importID string, txns []model.CanonicalTransaction) (inserted, skipped int, errs []string) {
	rows := make([]model.LedgerTransaction, 0, len(txns))
	for i, t := range txns {
		if !t.Valid() {
			errs = append(errs, fmt.Sprintf("row %d: invalid transaction (zero amount or empty description)", i+1))
			continue
		}
		rows = append(rows, model.LedgerTransaction{
			ID:          uuid.NewString(),
			AccountID:   accountID,
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount,
			RawType:     t.RawType,
			ExternalRef: t.ExternalRef,
			Fingerprint: Fingerprint(accountID, t.Date, t.Amount, t.Description),
			ImportID:    importID,
		})
	}

	inserted, skipped, err := w.store.InsertDeduped(rows)
	if err != nil {
		errs = append(errs, fmt.Sprintf("inserting batch: %v", err))
		return inserted, skipped, errs
	}

	// Full recompute rather than an incremental adjustment, so any drift
	// left by prior partial imports is corrected here.
	if err := w.RecomputeBalance(accountID); err != nil {
		errs = append(errs, fmt.Sprintf("recomputing balance: %v", err))
	}
	return inserted, skipped, errs
}

// RecomputeBalance re-sums the account's full transaction set and stores the
// result as the cached balance.
func (w *Writer) RecomputeBalance(accountID string) error {
	txns, err := w.store.TransactionsByAccount(accountID)
	if err != nil {
		return fmt.Errorf("loading transactions for %s: %w", accountID, err)
	}
	balance := decimal.Zero
	for _, t := range txns {
		balance = balance.Add(t.Amount)
	}
	if err := w.store.SetAccountBalance(accountID, balance); err != nil {
		return fmt.Errorf("storing balance for %s: %w", accountID, err)
	}
	return nil
}
