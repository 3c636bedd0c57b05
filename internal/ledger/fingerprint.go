package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneta-dev/moneta/internal/normalize"
)

// Fingerprint derives the dedup key for a transaction. Two rows are
// duplicates if and only if (account, date, amount, normalized description)
// match exactly. Deliberately coarse: no institution reference (not every
// format provides one) and no fuzzy description matching, so re-inserting the
// same batch is idempotent and every skip is explainable.
func Fingerprint(accountID string, date time.Time, amount decimal.Decimal, description string) string {
	key := strings.Join([]string{
		accountID,
		date.Format("2006-01-02"),
		amount.StringFixed(2),
		normalize.Description(description),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
