package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-dev/moneta/internal/categorize"
	"github.com/moneta-dev/moneta/internal/filestore"
	"github.com/moneta-dev/moneta/internal/ledger"
	"github.com/moneta-dev/moneta/internal/logging"
	"github.com/moneta-dev/moneta/internal/model"
	"github.com/moneta-dev/moneta/internal/parser"
	"github.com/moneta-dev/moneta/internal/store"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "moneta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.PutAccount(model.Account{
		ID:        "acc-1",
		Name:      "Checking",
		Type:      "checking",
		SourceKey: "boursorama",
	}))

	writer := ledger.NewWriter(st)
	engine := categorize.NewEngine(st)
	files := filestore.NewLocal(dir)
	return New(st, files, parser.DefaultRegistry(), writer, engine, nil, logging.Nop()), st
}

// exportCSV builds a Boursorama-shaped export with n rows, one per day
// starting 2025-01-05, alternating small debits with a few categorized rows.
func exportCSV(n int) []byte {
	var sb strings.Builder
	sb.WriteString("dateOp;dateVal;label;category;categoryParent;supplierFound;amount\n")
	base := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		d := base.AddDate(0, 0, i).Format("02/01/2006")
		category := ""
		if i%10 == 0 {
			category = "Alimentation"
		}
		fmt.Fprintf(&sb, "%s;%s;CARTE %s MERCHANT %d;%s;;;-%d,50\n", d, d, d[:8], i, category, i+1)
	}
	return []byte(sb.String())
}

func TestImportIdempotent(t *testing.T) {
	orch, st := newTestOrchestrator(t)
	ctx := context.Background()
	content := exportCSV(50)

	first, err := orch.Accept(ctx, "Boursorama", "export.csv", "text/csv", content)
	require.NoError(t, err)
	assert.Equal(t, model.ImportPending, first.Status)
	assert.Equal(t, "boursorama", first.SourceKey)

	first, err = orch.Run(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportProcessed, first.Status)
	assert.Equal(t, 50, first.InsertedCount)
	assert.Equal(t, 0, first.SkippedCount)
	assert.Contains(t, first.Summary, "Imported 50 transactions")

	account, err := st.GetAccount("acc-1")
	require.NoError(t, err)
	balance := account.Balance
	assert.True(t, balance.LessThan(decimal.Zero))

	second, err := orch.Accept(ctx, "boursorama", "export.csv", "text/csv", content)
	require.NoError(t, err)
	second, err = orch.Run(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportProcessed, second.Status)
	assert.Equal(t, 0, second.InsertedCount)
	assert.Equal(t, 50, second.SkippedCount)

	rows, err := st.TransactionsByAccount("acc-1")
	require.NoError(t, err)
	assert.Len(t, rows, 50)

	account, err = st.GetAccount("acc-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(account.Balance), "balance changed on duplicate import")
}

func TestImportAssignsBankCategories(t *testing.T) {
	orch, st := newTestOrchestrator(t)
	ctx := context.Background()

	b, err := orch.Accept(ctx, "boursorama", "export.csv", "text/csv", exportCSV(20))
	require.NoError(t, err)
	b, err = orch.Run(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, model.ImportProcessed, b.Status)

	rows, err := st.TransactionsByAccount("acc-1")
	require.NoError(t, err)

	var bankAssigned int
	for _, r := range rows {
		a, err := st.GetAssignment(r.ID)
		if err != nil {
			continue
		}
		if a.Source == model.SourceBank {
			bankAssigned++
			assert.Equal(t, "alimentation", a.CategoryID)
		}
	}
	assert.Equal(t, 2, bankAssigned)
}

func TestRunClaimConflict(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	ctx := context.Background()

	b, err := orch.Accept(ctx, "boursorama", "export.csv", "text/csv", exportCSV(5))
	require.NoError(t, err)
	_, err = orch.Run(ctx, b.ID)
	require.NoError(t, err)

	_, err = orch.Run(ctx, b.ID)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestRunFailureOutcomes(t *testing.T) {
	t.Run("unsupported source", func(t *testing.T) {
		orch, _ := newTestOrchestrator(t)
		ctx := context.Background()
		b, err := orch.Accept(ctx, "unknown-bank", "export.csv", "text/csv", exportCSV(5))
		require.NoError(t, err)
		b, err = orch.Run(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ImportFailed, b.Status)
		assert.Contains(t, b.ErrorMessage, "parsing failed")
	})

	t.Run("no account for source", func(t *testing.T) {
		orch, _ := newTestOrchestrator(t)
		ctx := context.Background()
		content := []byte("Type,Product,Started Date,Completed Date,Description,Amount,Fee,Currency,State,Balance\n" +
			"CARD_PAYMENT,Current,2025-01-05 10:00:00,2025-01-05 10:00:00,Coffee,-3.50,0.00,EUR,COMPLETED,100.00\n")
		b, err := orch.Accept(ctx, "revolut", "export.csv", "text/csv", content)
		require.NoError(t, err)
		b, err = orch.Run(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ImportFailed, b.Status)
		assert.Contains(t, b.ErrorMessage, `no account configured for source "revolut"`)
	})

	t.Run("missing file", func(t *testing.T) {
		orch, st := newTestOrchestrator(t)
		ctx := context.Background()
		now := time.Now().UTC()
		b := model.ImportBatch{
			ID:        uuid.NewString(),
			SourceKey: "boursorama",
			FilePath:  "uploads/gone.csv",
			FileName:  "gone.csv",
			MimeType:  "text/csv",
			Status:    model.ImportPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, st.PutImport(b))
		b, err := orch.Run(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ImportFailed, b.Status)
		assert.Contains(t, b.ErrorMessage, "downloading file")
	})
}

func TestFailedImportIsRetryable(t *testing.T) {
	orch, st := newTestOrchestrator(t)
	ctx := context.Background()

	// First attempt fails: the source has no account yet.
	require.NoError(t, st.PutAccount(model.Account{ID: "acc-1", Name: "Checking", Type: "checking", SourceKey: "other"}))
	b, err := orch.Accept(ctx, "boursorama", "export.csv", "text/csv", exportCSV(10))
	require.NoError(t, err)
	b, err = orch.Run(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, model.ImportFailed, b.Status)

	// Fix the account mapping and retry the same batch.
	require.NoError(t, st.PutAccount(model.Account{ID: "acc-1", Name: "Checking", Type: "checking", SourceKey: "boursorama"}))
	b, err = orch.Run(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportProcessed, b.Status)
	assert.Equal(t, 10, b.InsertedCount)
}

func TestPreviewReprocess(t *testing.T) {
	orch, st := newTestOrchestrator(t)
	ctx := context.Background()

	b, err := orch.Accept(ctx, "boursorama", "export.csv", "text/csv", exportCSV(30))
	require.NoError(t, err)
	b, err = orch.Run(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, model.ImportProcessed, b.Status)

	plan, err := orch.PreviewReprocess(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, plan.AffectedCount)
	assert.Equal(t, 30, plan.NewCount)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), plan.MinDate)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), plan.MaxDate)

	// Preview mutates nothing: repeatable, and the batch stays terminal.
	again, err := orch.PreviewReprocess(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, plan, again)
	got, err := st.GetImport(b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportProcessed, got.Status)
	rows, err := st.TransactionsByAccount("acc-1")
	require.NoError(t, err)
	assert.Len(t, rows, 30)
}

func TestReprocessReplacesDateRange(t *testing.T) {
	orch, st := newTestOrchestrator(t)
	ctx := context.Background()

	b, err := orch.Accept(ctx, "boursorama", "export.csv", "text/csv", exportCSV(25))
	require.NoError(t, err)
	b, err = orch.Run(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 25, b.InsertedCount)

	account, err := st.GetAccount("acc-1")
	require.NoError(t, err)
	balance := account.Balance

	b, err = orch.Reprocess(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportProcessed, b.Status)
	assert.Equal(t, 25, b.InsertedCount)
	assert.Equal(t, 0, b.SkippedCount)

	rows, err := st.TransactionsByAccount("acc-1")
	require.NoError(t, err)
	assert.Len(t, rows, 25, "reprocess must replace, not duplicate")

	account, err = st.GetAccount("acc-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(account.Balance))
}

func TestReprocessConflictsWhileActive(t *testing.T) {
	orch, st := newTestOrchestrator(t)
	ctx := context.Background()

	b, err := orch.Accept(ctx, "boursorama", "export.csv", "text/csv", exportCSV(5))
	require.NoError(t, err)

	_, err = orch.Reprocess(ctx, b.ID)
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := st.GetImport(b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportPending, got.Status)
}
