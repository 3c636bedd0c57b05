package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-dev/moneta/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "moneta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func row(id, account, fingerprint string, d int, amount string) model.LedgerTransaction {
	return model.LedgerTransaction{
		ID:          id,
		AccountID:   account,
		Date:        day(d),
		Description: "row " + id,
		Amount:      decimal.RequireFromString(amount),
		Fingerprint: fingerprint,
	}
}

func TestAccounts_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	a := model.Account{ID: "acc-1", Name: "Compte courant", Type: model.AccountTypeChecking, SourceKey: "boursorama"}
	require.NoError(t, s.PutAccount(a))

	got, err := s.GetAccount("acc-1")
	require.NoError(t, err)
	assert.Equal(t, "Compte courant", got.Name)

	bySource, err := s.AccountBySourceKey("boursorama")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", bySource.ID)

	_, err = s.AccountBySourceKey("unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetAccountBalance("acc-1", decimal.RequireFromString("120.50")))
	got, err = s.GetAccount("acc-1")
	require.NoError(t, err)
	assert.Equal(t, "120.50", got.Balance.StringFixed(2))
}

func TestInsertDeduped_SkipsExistingFingerprints(t *testing.T) {
	s := openTestStore(t)

	batch := []model.LedgerTransaction{
		row("t1", "acc-1", "fp-1", 5, "-10.00"),
		row("t2", "acc-1", "fp-2", 6, "20.00"),
	}
	inserted, skipped, err := s.InsertDeduped(batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, skipped)

	// Same fingerprints again, fresh IDs: everything skipped.
	again := []model.LedgerTransaction{
		row("t3", "acc-1", "fp-1", 5, "-10.00"),
		row("t4", "acc-1", "fp-2", 6, "20.00"),
	}
	inserted, skipped, err = s.InsertDeduped(again)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 2, skipped)

	txns, err := s.TransactionsByAccount("acc-1")
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestInsertDeduped_SameFingerprintDifferentAccounts(t *testing.T) {
	s := openTestStore(t)

	inserted, skipped, err := s.InsertDeduped([]model.LedgerTransaction{
		row("t1", "acc-1", "fp-1", 5, "-10.00"),
		row("t2", "acc-2", "fp-1", 5, "-10.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 0, skipped)
}

func TestTransactionByID(t *testing.T) {
	s := openTestStore(t)

	_, _, err := s.InsertDeduped([]model.LedgerTransaction{row("t1", "acc-1", "fp-1", 5, "-10.00")})
	require.NoError(t, err)

	got, err := s.TransactionByID("t1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.Equal(t, "fp-1", got.Fingerprint)

	_, err = s.TransactionByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByDateRange(t *testing.T) {
	s := openTestStore(t)

	_, _, err := s.InsertDeduped([]model.LedgerTransaction{
		row("t1", "acc-1", "fp-1", 5, "-10.00"),
		row("t2", "acc-1", "fp-2", 10, "20.00"),
		row("t3", "acc-1", "fp-3", 15, "30.00"),
	})
	require.NoError(t, err)
	require.NoError(t, s.PutAssignment(model.CategoryAssignment{TransactionID: "t2", CategoryID: "food", Source: model.SourceAuto}))

	count, err := s.CountByDateRange("acc-1", day(8), day(12))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err := s.DeleteByDateRange("acc-1", day(8), day(12))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	txns, err := s.TransactionsByAccount("acc-1")
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	_, err = s.TransactionByID("t2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetAssignment("t2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimImport(t *testing.T) {
	s := openTestStore(t)

	b := model.ImportBatch{ID: "imp-1", SourceKey: "boursorama", Status: model.ImportPending, CreatedAt: time.Now()}
	require.NoError(t, s.PutImport(b))

	claimed, err := s.ClaimImport("imp-1")
	require.NoError(t, err)
	assert.Equal(t, model.ImportProcessing, claimed.Status)

	// Second claim conflicts: the batch is already processing.
	_, err = s.ClaimImport("imp-1")
	assert.ErrorIs(t, err, ErrConflict)

	// Failed batches are retryable.
	b.Status = model.ImportFailed
	require.NoError(t, s.PutImport(b))
	_, err = s.ClaimImport("imp-1")
	assert.NoError(t, err)

	// Processed batches are not.
	b.Status = model.ImportProcessed
	require.NoError(t, s.PutImport(b))
	_, err = s.ClaimImport("imp-1")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRulesAndAssignments_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	r := model.CategoryRule{ID: "r1", Pattern: "carrefour", MatchType: model.MatchContains, CategoryID: "food", Priority: model.PrioritySeed, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, s.PutRule(r))

	rules, err := s.Rules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "carrefour", rules[0].Pattern)

	require.NoError(t, s.DeleteRule("r1"))
	rules, err = s.Rules()
	require.NoError(t, err)
	assert.Empty(t, rules)

	a := model.CategoryAssignment{TransactionID: "t1", CategoryID: "food", Source: model.SourceManual, Confidence: 1.0}
	require.NoError(t, s.PutAssignment(a))
	got, err := s.GetAssignment("t1")
	require.NoError(t, err)
	assert.Equal(t, model.SourceManual, got.Source)
}
