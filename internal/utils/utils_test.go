// internal/utils/utils_test.go
package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumAddress(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, want := range vectors {
		got, err := ChecksumAddress(strings.ToLower(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, HasValidChecksum(want))
	}

	assert.False(t, HasValidChecksum("0x5aaEb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	assert.True(t, HasValidChecksum("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))

	_, err := ChecksumAddress("0x123")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestNormalizeParty(t *testing.T) {
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", NormalizeParty(" 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed "))
	assert.Equal(t, "user-42", NormalizeParty(" user-42"))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	result := Paginate(items, PaginationParams{Page: 2, Limit: 2})
	assert.Equal(t, []int{3, 4}, result.Data)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, 3, result.TotalPages)

	last := Paginate(items, PaginationParams{Page: 3, Limit: 2})
	assert.Equal(t, []int{5}, last.Data)

	beyond := Paginate(items, PaginationParams{Page: 9, Limit: 2})
	assert.Equal(t, []int{}, beyond.Data)
}

type purchaseInput struct {
	Percentage decimal.Decimal `validate:"percentage"`
	Buyer      string          `validate:"omitempty,wallet"`
}

func TestValidateStructCustomTags(t *testing.T) {
	assert.NoError(t, ValidateStruct(&purchaseInput{Percentage: decimal.NewFromInt(30)}))
	assert.NoError(t, ValidateStruct(&purchaseInput{Percentage: decimal.NewFromInt(100), Buyer: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}))

	err := ValidateStruct(&purchaseInput{Percentage: decimal.Zero, Buyer: "bob"})
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "percentage", errs[0].Field)
	assert.Equal(t, "percentage", errs[0].Tag)
	assert.Equal(t, "buyer", errs[1].Field)
	assert.Equal(t, "wallet", errs[1].Tag)

	assert.Error(t, ValidateStruct(&purchaseInput{Percentage: decimal.RequireFromString("100.01")}))
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", claims.Wallet)
	assert.Equal(t, claims.Wallet, claims.Subject)

	expired, err := GenerateJWT("0xabc", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)
}

func TestGenerateInvoiceNumber(t *testing.T) {
	number, err := GenerateInvoiceNumber(time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Regexp(t, `^INV-202603-[A-Z2-9]{6}$`, number)

	assert.Equal(t, IdempotencyKey("a", "b"), IdempotencyKey("a", "b"))
	assert.NotEqual(t, IdempotencyKey("a", "b"), IdempotencyKey("ab"))
}
