package parser

import (
	"fmt"
	"strings"

	"github.com/moneta-dev/moneta/internal/model"
)

// RevolutParser parses Revolut account-statement CSV exports: comma-separated
// UTF-8 with ISO dates, a signed "Amount" column, and a separate "Fee" column
// that is folded into the amount. Rows whose state is not COMPLETED (pending,
// reverted) are skipped. The started timestamp doubles as the row's external
// reference.
type RevolutParser struct{}

// SourceKey returns the institution key.
func (p *RevolutParser) SourceKey() string { return "revolut" }

// MIMETypes returns the accepted content types.
func (p *RevolutParser) MIMETypes() []string { return csvMIMETypes }

// Parse converts a Revolut statement into canonical transactions.
func (p *RevolutParser) Parse(content []byte, mimeType string) ParseResult {
	records, err := readRecords(decodeText(content), ',')
	if err != nil {
		return Failure(err.Error())
	}
	if len(records) == 0 {
		return Failure("empty file")
	}

	idxType := headerIndex(records[0], "type")
	idxStarted := headerIndex(records[0], "started date")
	idxCompleted := headerIndex(records[0], "completed date")
	idxDesc := headerIndex(records[0], "description")
	idxAmount := headerIndex(records[0], "amount")
	idxFee := headerIndex(records[0], "fee")
	idxState := headerIndex(records[0], "state")
	if idxDesc < 0 || idxAmount < 0 || (idxStarted < 0 && idxCompleted < 0) {
		return Failure("unrecognized revolut schema")
	}

	var txns []model.CanonicalTransaction
	var warnings []string
	for i, rec := range records[1:] {
		row := i + 2

		if state := field(rec, idxState); state != "" && !strings.EqualFold(state, "COMPLETED") {
			warnings = append(warnings, fmt.Sprintf("row %d: skipped, state %s", row, state))
			continue
		}

		dateField := field(rec, idxCompleted)
		if dateField == "" {
			dateField = field(rec, idxStarted)
		}
		date, err := parseDate(dateField, "2006-01-02 15:04:05", "2006-01-02")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}

		// The export carries no transaction id; the started timestamp is
		// second-precision and stable across re-exports, so it serves as
		// the external reference.
		ref := field(rec, idxStarted)
		if ref == "" {
			ref = dateField
		}

		amount, err := parseAmount(field(rec, idxAmount))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		if fee := field(rec, idxFee); fee != "" {
			f, err := parseAmount(fee)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("row %d: %v", row, err))
				continue
			}
			amount = amount.Sub(f)
		}

		txn := model.CanonicalTransaction{
			Date:        date,
			Description: field(rec, idxDesc),
			Amount:      amount,
			RawType:     field(rec, idxType),
			ExternalRef: ref,
		}
		if !txn.Valid() {
			warnings = append(warnings, fmt.Sprintf("row %d: empty description or zero amount", row))
			continue
		}
		txns = append(txns, txn)
	}
	return finish(txns, warnings)
}
