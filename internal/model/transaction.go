package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalTransaction is a parsed, format-agnostic transaction record
// produced by a parser, prior to persistence.
type CanonicalTransaction struct {
	Date         time.Time       // calendar date, midnight UTC
	Description  string          // raw free text as printed by the institution
	Amount       decimal.Decimal // positive = inflow, negative = outflow
	RawType      string          // institution-specific type code, may be empty
	ExternalRef  string          // institution transaction id, may be empty
	BankCategory string          // category stated by the export itself, may be empty
}

// Valid reports whether the record satisfies the canonical invariants:
// non-zero amount and non-empty description after trimming.
func (t CanonicalTransaction) Valid() bool {
	return !t.Amount.IsZero() && strings.TrimSpace(t.Description) != ""
}

// LedgerTransaction is a persisted transaction row.
type LedgerTransaction struct {
	ID          string
	AccountID   string // immutable after insert
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	RawType     string
	ExternalRef string
	Fingerprint string // dedup key over (account, date, amount, normalized description)
	ImportID    string // provenance; empty for manually entered rows
}

// AssignmentSource records where a category assignment came from.
type AssignmentSource string

const (
	SourceBank   AssignmentSource = "BANK"
	SourceAuto   AssignmentSource = "AUTO"
	SourceManual AssignmentSource = "MANUAL"
)

// Authoritative reports whether an assignment must never be overwritten by an
// automatic re-categorization run. BANK and MANUAL are equally permanent.
func (s AssignmentSource) Authoritative() bool {
	return s == SourceBank || s == SourceManual
}

// CategoryAssignment links a ledger transaction to a category, one-to-one.
type CategoryAssignment struct {
	TransactionID string
	CategoryID    string
	Source        AssignmentSource
	Confidence    float64 // 0.0-1.0, informative only
	AssignedAt    time.Time
}
