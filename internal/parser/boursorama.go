package parser

import (
	"fmt"

	"github.com/moneta-dev/moneta/internal/model"
)

// BoursoramaParser parses Boursorama Banque CSV exports: semicolon-separated,
// single signed "montant" column, DD/MM/YYYY dates. Recent exports also carry
// the bank's own category column, which is passed through as BankCategory.
type BoursoramaParser struct{}

// Positional layout of headerless exports (pre-2019 vintage).
const (
	boursoColDate   = 0
	boursoColLabel  = 2
	boursoColAmount = 6
	boursoMinFields = 7
)

// SourceKey returns the institution key.
func (p *BoursoramaParser) SourceKey() string { return "boursorama" }

// MIMETypes returns the accepted content types.
func (p *BoursoramaParser) MIMETypes() []string { return csvMIMETypes }

// Parse converts a Boursorama export into canonical transactions.
func (p *BoursoramaParser) Parse(content []byte, mimeType string) ParseResult {
	records, err := readRecords(decodeText(content), ';')
	if err != nil {
		return Failure(err.Error())
	}
	if len(records) == 0 {
		return Failure("empty file")
	}

	idxDate := headerIndex(records[0], "dateop", "date operation", "date")
	idxLabel := headerIndex(records[0], "label", "libelle")
	idxAmount := headerIndex(records[0], "amount", "montant")
	idxCategory := headerIndex(records[0], "category", "categorie")

	start := 1
	if idxDate < 0 || idxLabel < 0 || idxAmount < 0 {
		// No recognizable header: fall back to the fixed column layout,
		// treating the first row as data.
		if len(records[0]) < boursoMinFields {
			return Failure("unrecognized boursorama schema")
		}
		idxDate, idxLabel, idxAmount, idxCategory = boursoColDate, boursoColLabel, boursoColAmount, -1
		start = 0
	}

	var txns []model.CanonicalTransaction
	var warnings []string
	for i, rec := range records[start:] {
		row := start + i + 1
		date, err := parseDate(field(rec, idxDate), "02/01/2006", "2006-01-02")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		amount, err := parseAmount(field(rec, idxAmount))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		txn := model.CanonicalTransaction{
			Date:         date,
			Description:  field(rec, idxLabel),
			Amount:       amount,
			BankCategory: field(rec, idxCategory),
		}
		if !txn.Valid() {
			warnings = append(warnings, fmt.Sprintf("row %d: empty description or zero amount", row))
			continue
		}
		txns = append(txns, txn)
	}
	return finish(txns, warnings)
}
