package order

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	txPrefix      = "SIM-"
	txRandomChars = 6
	base36Digits  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var base36 = big.NewInt(36)

// NewTransactionID returns "SIM-<base36 millis>-<6 random base36 chars>",
// upper-cased. Uniqueness is probabilistic; the store enforces it.
func NewTransactionID(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(txPrefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	b.WriteByte('-')
	for i := 0; i < txRandomChars; i++ {
		n, err := rand.Int(rand.Reader, base36)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36Digits[n.Int64()])
	}
	return strings.ToUpper(b.String()), nil
}
