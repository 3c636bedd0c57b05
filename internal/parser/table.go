package parser

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// readRecords parses decoded CSV text with the given field separator. Records
// may have ragged lengths; row-level length checks belong to the caller.
func readRecords(text string, sep rune) ([][]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return records, nil
}

// headerIndex returns the index of the first header matching any of the given
// names, compared case- and diacritic-insensitively. Returns -1 if absent.
func headerIndex(headers []string, names ...string) int {
	for i, h := range headers {
		folded := foldHeader(h)
		for _, n := range names {
			if folded == n {
				return i
			}
		}
	}
	return -1
}

// field returns the trimmed cell at idx, or "" when the record is too short.
func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseAmount parses a decimal amount in French or plain format: "1 234,56",
// "1.234,56", "-12,30", "1234.56". Currency symbols and grouping spaces
// (including non-breaking variants) are stripped.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ', '€', '+':
			return -1
		}
		return r
	}, s)
	if strings.Contains(cleaned, ",") {
		// Comma is the decimal separator; any dots are grouping.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// parseDate tries each layout in order and normalizes to midnight UTC.
func parseDate(s string, layouts ...string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q", s)
}
