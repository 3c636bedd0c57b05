package model

import "time"

// ImportStatus is the lifecycle state of an import batch.
type ImportStatus string

const (
	ImportPending    ImportStatus = "pending"
	ImportProcessing ImportStatus = "processing"
	ImportProcessed  ImportStatus = "processed"
	ImportFailed     ImportStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s ImportStatus) Terminal() bool {
	return s == ImportProcessed || s == ImportFailed
}

// ImportBatch tracks one uploaded export file through the import pipeline.
type ImportBatch struct {
	ID            string
	SourceKey     string
	AccountID     string // empty until resolved against the account mapping
	FilePath      string // opaque file store path
	FileName      string
	MimeType      string
	Status        ImportStatus
	InsertedCount int
	SkippedCount  int
	Warnings      []string
	ErrorMessage  string
	Summary       string // human-readable outcome, e.g. "Imported 42 transactions, 5 duplicates skipped"
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
