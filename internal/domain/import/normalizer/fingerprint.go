package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fingerprint identifies a transaction across imports. It hashes the
// calendar date, the amount magnitude with two decimals and the lower-cased
// trimmed description, so differences in description case or surrounding
// whitespace do not produce a new fingerprint.
func Fingerprint(date time.Time, amount decimal.Decimal, description string) string {
	var b strings.Builder
	b.WriteString(date.UTC().Format(time.DateOnly))
	b.WriteByte('|')
	b.WriteString(amount.Abs().StringFixed(2))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(description)))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
