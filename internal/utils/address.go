// internal/utils/address.go
package utils

import (
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

var ErrInvalidAddress = errors.New("invalid wallet address")

// IsWalletAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsWalletAddress(s string) bool {
	if len(s) != 42 || (!strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X")) {
		return false
	}
	for _, r := range s[2:] {
		if !isHex(r) {
			return false
		}
	}
	return true
}

// ChecksumAddress returns the EIP-55 mixed-case form of addr.
func ChecksumAddress(addr string) (string, error) {
	if !IsWalletAddress(addr) {
		return "", ErrInvalidAddress
	}
	lower := strings.ToLower(addr[2:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	hash := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 32
		}
	}
	return "0x" + string(out), nil
}

// HasValidChecksum accepts all-lower and all-upper addresses, and mixed
// case ones only when the case encodes the right checksum.
func HasValidChecksum(addr string) bool {
	if !IsWalletAddress(addr) {
		return false
	}
	body := addr[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	sum, err := ChecksumAddress(addr)
	return err == nil && sum[2:] == body
}

// NormalizeParty returns the checksummed form of wallet addresses and the
// trimmed input for any other party identifier.
func NormalizeParty(s string) string {
	s = strings.TrimSpace(s)
	if sum, err := ChecksumAddress(s); err == nil {
		return sum
	}
	return s
}

func isHex(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}
