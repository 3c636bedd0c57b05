// Package importer sequences an import end to end: download the uploaded
// export, parse it, insert the rows deduplicated, recompute the balance, and
// categorize what came in. Batch status moves PENDING -> PROCESSING ->
// {PROCESSED | FAILED}; the claim is an optimistic check so a retried request
// cannot double-process the same upload.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moneta-dev/moneta/internal/auditlog"
	"github.com/moneta-dev/moneta/internal/categorize"
	"github.com/moneta-dev/moneta/internal/filestore"
	"github.com/moneta-dev/moneta/internal/ledger"
	"github.com/moneta-dev/moneta/internal/model"
	"github.com/moneta-dev/moneta/internal/parser"
)

const categorizeWorkers = 4

// Store is the persistence surface the orchestrator needs.
type Store interface {
	PutImport(b model.ImportBatch) error
	GetImport(id string) (model.ImportBatch, error)
	ClaimImport(id string) (model.ImportBatch, error)
	AccountBySourceKey(sourceKey string) (model.Account, error)
	Accounts() ([]model.Account, error)
	TransactionsByAccount(accountID string) ([]model.LedgerTransaction, error)
	CountByDateRange(accountID string, from, to time.Time) (int, error)
	DeleteByDateRange(accountID string, from, to time.Time) (int, error)
}

// Registry dispatches parsing by source key.
type Registry interface {
	Parse(sourceKey string, content []byte, mimeType string) parser.ParseResult
}

// Orchestrator drives import batches through their lifecycle.
type Orchestrator struct {
	store   Store
	files   filestore.Store
	parsers Registry
	writer  *ledger.Writer
	engine  *categorize.Engine
	audit   *auditlog.Log
	log     zerolog.Logger
}

// New creates an Orchestrator. audit may be nil to disable the audit trail.
func New(store Store, files filestore.Store, parsers Registry, writer *ledger.Writer, engine *categorize.Engine, audit *auditlog.Log, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		files:   files,
		parsers: parsers,
		writer:  writer,
		engine:  engine,
		audit:   audit,
		log:     log,
	}
}

// Accept stores an uploaded export and creates a PENDING batch for it.
func (o *Orchestrator) Accept(ctx context.Context, sourceKey, fileName, mimeType string, content []byte) (model.ImportBatch, error) {
	path, err := o.files.Upload(ctx, fileName, content)
	if err != nil {
		return model.ImportBatch{}, fmt.Errorf("storing upload: %w", err)
	}
	now := time.Now().UTC()
	b := model.ImportBatch{
		ID:        uuid.NewString(),
		SourceKey: strings.ToLower(sourceKey),
		FilePath:  path,
		FileName:  fileName,
		MimeType:  mimeType,
		Status:    model.ImportPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.PutImport(b); err != nil {
		return model.ImportBatch{}, fmt.Errorf("creating import batch: %w", err)
	}
	if err := o.audit.Record(b.ID, "accepted", fmt.Sprintf("%s %s", b.SourceKey, fileName)); err != nil {
		o.log.Warn().Err(err).Str("import_id", b.ID).Msg("audit log write failed")
	}
	return b, nil
}

// Run processes a pending batch. Claiming a batch that is already processing
// or processed returns store.ErrConflict; batch-level failures do not return
// an error, they land in the batch's FAILED status and message.
func (o *Orchestrator) Run(ctx context.Context, importID string) (model.ImportBatch, error) {
	b, err := o.store.ClaimImport(importID)
	if err != nil {
		return model.ImportBatch{}, fmt.Errorf("claiming import %s: %w", importID, err)
	}
	o.log.Info().Str("import_id", b.ID).Str("source", b.SourceKey).Msg("import started")
	return o.execute(ctx, b, false)
}

// execute runs the post-claim pipeline. When replaceRange is set, existing
// rows inside the fresh parse's date range are deleted before insertion
// (reprocess semantics).
func (o *Orchestrator) execute(ctx context.Context, b model.ImportBatch, replaceRange bool) (model.ImportBatch, error) {
	content, err := o.files.Download(ctx, b.FilePath)
	if err != nil {
		return o.fail(b, fmt.Sprintf("downloading file: %v", err))
	}

	res := o.parsers.Parse(b.SourceKey, content, b.MimeType)
	if !res.Success {
		return o.fail(b, "parsing failed: "+strings.Join(res.Errors, "; "))
	}

	if b.AccountID == "" {
		account, err := o.store.AccountBySourceKey(b.SourceKey)
		if err != nil {
			return o.fail(b, fmt.Sprintf("no account configured for source %q", b.SourceKey))
		}
		b.AccountID = account.ID
	}

	if replaceRange {
		from, to := dateRange(res.Transactions)
		deleted, err := o.store.DeleteByDateRange(b.AccountID, from, to)
		if err != nil {
			return o.fail(b, fmt.Sprintf("deleting date range: %v", err))
		}
		o.log.Info().Str("import_id", b.ID).Int("deleted", deleted).
			Time("from", from).Time("to", to).Msg("reprocess cleared date range")
	}

	inserted, skipped, errs := o.writer.InsertDeduped(b.AccountID, b.ID, res.Transactions)
	warnings := append([]string{}, res.Warnings...)
	warnings = append(warnings, errs...)

	if err := o.categorizeNew(b, res.Transactions); err != nil {
		warnings = append(warnings, fmt.Sprintf("categorization incomplete: %v", err))
	}
	if err := o.pairTransfers(); err != nil {
		warnings = append(warnings, fmt.Sprintf("transfer pairing incomplete: %v", err))
	}

	b.Status = model.ImportProcessed
	b.InsertedCount = inserted
	b.SkippedCount = skipped
	b.Warnings = warnings
	b.ErrorMessage = ""
	b.Summary = fmt.Sprintf("Imported %d transactions, %d duplicates skipped", inserted, skipped)
	b.UpdatedAt = time.Now().UTC()
	if err := o.store.PutImport(b); err != nil {
		return b, fmt.Errorf("finalizing import %s: %w", b.ID, err)
	}
	if err := o.audit.Record(b.ID, "processed", b.Summary); err != nil {
		o.log.Warn().Err(err).Str("import_id", b.ID).Msg("audit log write failed")
	}
	o.log.Info().Str("import_id", b.ID).Int("inserted", inserted).Int("skipped", skipped).
		Int("warnings", len(warnings)).Msg("import processed")
	return b, nil
}

// fail marks the batch FAILED with the reason persisted. Batch-level failure
// is a status outcome, not a Go error.
func (o *Orchestrator) fail(b model.ImportBatch, reason string) (model.ImportBatch, error) {
	b.Status = model.ImportFailed
	b.ErrorMessage = reason
	b.UpdatedAt = time.Now().UTC()
	if err := o.store.PutImport(b); err != nil {
		return b, fmt.Errorf("recording failure of import %s: %w", b.ID, err)
	}
	if err := o.audit.Record(b.ID, "failed", reason); err != nil {
		o.log.Warn().Err(err).Str("import_id", b.ID).Msg("audit log write failed")
	}
	o.log.Error().Str("import_id", b.ID).Str("reason", reason).Msg("import failed")
	return b, nil
}

// categorizeNew assigns categories to the rows this batch inserted. Rows the
// export itself categorized get a BANK assignment; the rest go through the
// rule engine in one batch against a single rule snapshot.
func (o *Orchestrator) categorizeNew(b model.ImportBatch, parsed []model.CanonicalTransaction) error {
	bankByFingerprint := make(map[string]string)
	for _, t := range parsed {
		if t.BankCategory != "" {
			fp := ledger.Fingerprint(b.AccountID, t.Date, t.Amount, t.Description)
			bankByFingerprint[fp] = t.BankCategory
		}
	}

	rows, err := o.store.TransactionsByAccount(b.AccountID)
	if err != nil {
		return fmt.Errorf("loading inserted rows: %w", err)
	}
	var uncategorized []model.LedgerTransaction
	for _, r := range rows {
		if r.ImportID != b.ID {
			continue
		}
		if cat, ok := bankByFingerprint[r.Fingerprint]; ok {
			if err := o.engine.AssignBank(r.ID, cat); err != nil {
				return err
			}
			continue
		}
		uncategorized = append(uncategorized, r)
	}
	_, err = o.engine.ApplyBatch(uncategorized, b.SourceKey, categorizeWorkers)
	return err
}

func (o *Orchestrator) pairTransfers() error {
	accounts, err := o.store.Accounts()
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	_, err = o.engine.PairInternalTransfers(ids)
	return err
}

// dateRange returns the min and max dates of a parsed batch.
func dateRange(txns []model.CanonicalTransaction) (from, to time.Time) {
	from, to = txns[0].Date, txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(from) {
			from = t.Date
		}
		if t.Date.After(to) {
			to = t.Date
		}
	}
	return from, to
}
