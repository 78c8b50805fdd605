// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strings"
	"time"
)

func GenerateRandomString(length int) (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateInvoiceNumber returns a human readable number like
// INV-202601-7KQ2ZP.
func GenerateInvoiceNumber(at time.Time) (string, error) {
	suffix, err := GenerateRandomString(6)
	if err != nil {
		return "", err
	}
	return "INV-" + at.UTC().Format("200601") + "-" + suffix, nil
}

func HashString(input string) string {
	hasher := sha256.New()
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))
}

// IdempotencyKey derives a stable key from the parts of a request so a
// retried call maps onto the same upstream operation.
func IdempotencyKey(parts ...string) string {
	return HashString(strings.Join(parts, "|"))
}
