// internal/ledger/valuation_test.go
package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coral-ledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestResolveAssetValue(t *testing.T) {
	prices := PriceTable{"P1": dec("10"), "P2": dec("5")}
	items := []models.LineItem{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", Quantity: 1},
	}

	assertDecimal(t, "25", ResolveAssetValue(items, prices))
}

func TestResolveAssetValueIgnoresLineItemOrder(t *testing.T) {
	prices := PriceTable{"P1": dec("10.40"), "P2": dec("5.35"), "P3": dec("0.99")}
	items := []models.LineItem{
		{ProductID: "P1", Quantity: 3},
		{ProductID: "P2", Quantity: 7},
		{ProductID: "P3", Quantity: 11},
	}
	want := ResolveAssetValue(items, prices)

	permutations := [][]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range permutations {
		shuffled := []models.LineItem{items[p[0]], items[p[1]], items[p[2]]}
		assert.True(t, want.Equal(ResolveAssetValue(shuffled, prices)), "permutation %v", p)
	}
}

func TestValuateSkipsMissingProducts(t *testing.T) {
	prices := PriceTable{"P1": dec("10")}
	items := []models.LineItem{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "GONE", Quantity: 4},
	}

	v := Valuate(items, prices)

	assertDecimal(t, "10", v.Total)
	assert.Equal(t, []string{"GONE"}, v.Missing)
}

func TestValuateRoundsOnceAtTheEnd(t *testing.T) {
	prices := PriceTable{"A": dec("0.30"), "B": dec("0.30"), "C": dec("1.25")}

	// Rounding each line would give 0 + 0.
	assertDecimal(t, "1", ResolveAssetValue([]models.LineItem{{ProductID: "A", Quantity: 1}, {ProductID: "B", Quantity: 1}}, prices))
	// 2.50 rounds half-up.
	assertDecimal(t, "3", ResolveAssetValue([]models.LineItem{{ProductID: "C", Quantity: 2}}, prices))
	assertDecimal(t, "0", ResolveAssetValue(nil, prices))
}

func TestPriceTableFromProducts(t *testing.T) {
	table := PriceTableFromProducts([]models.Product{
		{BaseModel: models.BaseModel{ID: "P1"}, Price: dec("12.50")},
		{BaseModel: models.BaseModel{ID: "P2"}, Price: dec("3")},
	})

	require.Len(t, table, 2)
	assertDecimal(t, "12.5", table["P1"])
}

func TestValidateLineItems(t *testing.T) {
	assert.NoError(t, ValidateLineItems("A1", []models.LineItem{{ProductID: "P1", Quantity: 0}}))

	err := ValidateLineItems("A1", []models.LineItem{{ProductID: "P1", Quantity: 1}, {Quantity: 2}})
	require.Error(t, err)
	assert.True(t, IsStructural(err))
	assert.Contains(t, err.Error(), "lineItems[1].productId")

	err = ValidateLineItems("A1", []models.LineItem{{ProductID: "P1", Quantity: -1}})
	assert.True(t, IsStructural(err))
}
