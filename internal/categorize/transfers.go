package categorize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/moneta-dev/moneta/internal/model"
	"github.com/moneta-dev/moneta/internal/store"
)

// PairInternalTransfers finds pairs of transactions that are the two sides of
// a transfer between the owner's own accounts: same date, equal absolute
// amount, opposite sign, different accounts. Both sides are assigned the
// dedicated internal-transfer category with source AUTO. Idempotent; sides
// that already carry an authoritative assignment are left untouched, which
// skips the whole pair.
func (e *Engine) PairInternalTransfers(accountIDs []string) (paired int, err error) {
	var all []model.LedgerTransaction
	for _, id := range accountIDs {
		txns, err := e.store.TransactionsByAccount(id)
		if err != nil {
			return 0, fmt.Errorf("loading transactions for %s: %w", id, err)
		}
		all = append(all, txns...)
	}
	// Deterministic pairing independent of account iteration order.
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	// Outflows indexed by (date, absolute amount).
	type key struct{ date, amount string }
	outflows := make(map[key][]model.LedgerTransaction)
	for _, t := range all {
		if t.Amount.IsNegative() {
			k := key{t.Date.Format("2006-01-02"), t.Amount.Abs().StringFixed(2)}
			outflows[k] = append(outflows[k], t)
		}
	}

	used := make(map[string]bool)
	for _, inflow := range all {
		if !inflow.Amount.IsPositive() {
			continue
		}
		k := key{inflow.Date.Format("2006-01-02"), inflow.Amount.StringFixed(2)}
		for _, outflow := range outflows[k] {
			if used[outflow.ID] || outflow.AccountID == inflow.AccountID {
				continue
			}
			locked, err := e.anyAuthoritative(inflow.ID, outflow.ID)
			if err != nil {
				return paired, err
			}
			if locked {
				continue
			}
			m := Match{CategoryID: model.CategoryInternalTransfer, Confidence: confidenceTransfer}
			if _, err := e.AssignAuto(inflow.ID, m); err != nil {
				return paired, err
			}
			if _, err := e.AssignAuto(outflow.ID, m); err != nil {
				return paired, err
			}
			used[inflow.ID] = true
			used[outflow.ID] = true
			paired++
			break
		}
	}
	return paired, nil
}

func (e *Engine) anyAuthoritative(txnIDs ...string) (bool, error) {
	for _, id := range txnIDs {
		a, err := e.store.GetAssignment(id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("loading assignment: %w", err)
		}
		if a.Source.Authoritative() {
			return true, nil
		}
	}
	return false, nil
}
