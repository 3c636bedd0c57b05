// Package normalize derives stable matching keys from raw transaction
// descriptions. The same key feeds both the dedup fingerprint and the
// categorization rule engine, so two superficially different exports of the
// same recurring merchant collapse to one identity.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// Dates embedded in free text: 12/03/24, 12/03/2024, 12.03.24.
	datePattern = regexp.MustCompile(`\b\d{2}[./]\d{2}(?:[./]\d{2,4})?\b`)
	// Card / terminal codes: "CB*0412", "CARTE X4321".
	cardPattern = regexp.MustCompile(`(?i)\b(?:cb\*?\s?\d+|carte\s+x?\d+)\b`)
	// Long digit runs are transaction-specific reference numbers.
	refPattern = regexp.MustCompile(`\b\d{5,}\b`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Description collapses whitespace, strips volatile tokens (embedded dates,
// card-terminal codes, reference numbers) and lower-cases the result.
func Description(raw string) string {
	s := strings.ToLower(raw)
	s = cardPattern.ReplaceAllString(s, " ")
	s = datePattern.ReplaceAllString(s, " ")
	s = refPattern.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
