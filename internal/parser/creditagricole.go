package parser

import (
	"fmt"

	"github.com/moneta-dev/moneta/internal/model"
)

// CreditAgricoleParser parses Crédit Agricole CSV exports: semicolon-separated
// Windows-1252 files with separate unsigned "Débit" and "Crédit" columns.
// Output amounts follow the uniform sign convention, positive = inflow.
type CreditAgricoleParser struct{}

// SourceKey returns the institution key.
func (p *CreditAgricoleParser) SourceKey() string { return "creditagricole" }

// MIMETypes returns the accepted content types.
func (p *CreditAgricoleParser) MIMETypes() []string { return csvMIMETypes }

// Parse converts a Crédit Agricole export into canonical transactions.
func (p *CreditAgricoleParser) Parse(content []byte, mimeType string) ParseResult {
	records, err := readRecords(decodeText(content), ';')
	if err != nil {
		return Failure(err.Error())
	}
	if len(records) == 0 {
		return Failure("empty file")
	}

	idxDate := headerIndex(records[0], "date")
	idxLabel := headerIndex(records[0], "libelle", "libelle operation", "label")
	idxDebit := headerIndex(records[0], "debit euros", "debit")
	idxCredit := headerIndex(records[0], "credit euros", "credit")
	if idxDate < 0 || idxLabel < 0 || idxDebit < 0 || idxCredit < 0 {
		return Failure("unrecognized creditagricole schema")
	}

	var txns []model.CanonicalTransaction
	var warnings []string
	for i, rec := range records[1:] {
		row := i + 2
		date, err := parseDate(field(rec, idxDate), "02/01/2006")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}

		debit, credit := field(rec, idxDebit), field(rec, idxCredit)
		amountField := credit
		if debit != "" {
			amountField = debit
		}
		if amountField == "" {
			warnings = append(warnings, fmt.Sprintf("row %d: neither debit nor credit present", row))
			continue
		}
		amount, err := parseAmount(amountField)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		if debit != "" {
			amount = amount.Abs().Neg()
		}

		txn := model.CanonicalTransaction{
			Date:        date,
			Description: field(rec, idxLabel),
			Amount:      amount,
		}
		if !txn.Valid() {
			warnings = append(warnings, fmt.Sprintf("row %d: empty description or zero amount", row))
			continue
		}
		txns = append(txns, txn)
	}
	return finish(txns, warnings)
}
