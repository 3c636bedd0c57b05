package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moneta-dev/moneta/internal/model"
	"github.com/moneta-dev/moneta/internal/store"
)

// Plan is the blast radius of a reprocess, computed without mutating
// anything: how many existing rows the new date range would delete, and how
// many rows the fresh parse would insert in their place.
type Plan struct {
	AffectedCount int
	NewCount      int
	MinDate       time.Time
	MaxDate       time.Time
}

// PreviewReprocess re-downloads and re-parses the batch's file purely to
// report the blast radius. Side-effect free and repeatable; the destructive
// Reprocess should only run after a human confirms this plan.
func (o *Orchestrator) PreviewReprocess(ctx context.Context, importID string) (Plan, error) {
	b, err := o.store.GetImport(importID)
	if err != nil {
		return Plan{}, fmt.Errorf("loading import %s: %w", importID, err)
	}

	content, err := o.files.Download(ctx, b.FilePath)
	if err != nil {
		return Plan{}, fmt.Errorf("downloading file: %w", err)
	}
	res := o.parsers.Parse(b.SourceKey, content, b.MimeType)
	if !res.Success {
		return Plan{}, fmt.Errorf("parsing failed: %s", strings.Join(res.Errors, "; "))
	}

	accountID := b.AccountID
	if accountID == "" {
		account, err := o.store.AccountBySourceKey(b.SourceKey)
		if err != nil {
			return Plan{}, fmt.Errorf("no account configured for source %q", b.SourceKey)
		}
		accountID = account.ID
	}

	from, to := dateRange(res.Transactions)
	affected, err := o.store.CountByDateRange(accountID, from, to)
	if err != nil {
		return Plan{}, fmt.Errorf("counting affected rows: %w", err)
	}
	return Plan{
		AffectedCount: affected,
		NewCount:      len(res.Transactions),
		MinDate:       from,
		MaxDate:       to,
	}, nil
}

// Reprocess resets a terminal batch to PENDING, deletes the ledger rows
// inside the fresh parse's date range, and re-imports the file, so corrected
// rows replace the old ones after a parser fix. A batch that is still pending
// or processing conflicts.
func (o *Orchestrator) Reprocess(ctx context.Context, importID string) (model.ImportBatch, error) {
	b, err := o.store.GetImport(importID)
	if err != nil {
		return model.ImportBatch{}, fmt.Errorf("loading import %s: %w", importID, err)
	}
	if !b.Status.Terminal() {
		return b, fmt.Errorf("import %s is %s: %w", importID, b.Status, store.ErrConflict)
	}

	b.Status = model.ImportPending
	b.InsertedCount = 0
	b.SkippedCount = 0
	b.Warnings = nil
	b.ErrorMessage = ""
	b.Summary = ""
	b.UpdatedAt = time.Now().UTC()
	if err := o.store.PutImport(b); err != nil {
		return b, fmt.Errorf("resetting import %s: %w", importID, err)
	}

	claimed, err := o.store.ClaimImport(importID)
	if err != nil {
		return b, fmt.Errorf("claiming import %s: %w", importID, err)
	}
	if err := o.audit.Record(importID, "reprocess", "delete and re-import by date range"); err != nil {
		o.log.Warn().Err(err).Str("import_id", importID).Msg("audit log write failed")
	}
	o.log.Info().Str("import_id", importID).Msg("reprocess started")
	return o.execute(ctx, claimed, true)
}
