// internal/ledger/valuation.go
package ledger

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/javajoker/coral-ledger/internal/models"
)

// PriceTable maps product ids to unit prices.
type PriceTable map[string]decimal.Decimal

func PriceTableFromProducts(products []models.Product) PriceTable {
	table := make(PriceTable, len(products))
	for _, p := range products {
		table[p.ID] = p.Price
	}
	return table
}

// Valuation is the total receivable value of an invoice together with the
// product ids that had no price. Missing products contribute zero.
type Valuation struct {
	Total   decimal.Decimal `json:"total"`
	Missing []string        `json:"missing,omitempty"`
}

var half = decimal.New(5, -1)

// Valuate sums price × quantity over the line items and rounds half-up once,
// at the final sum.
func Valuate(items []models.LineItem, prices PriceTable) Valuation {
	sum := decimal.Zero
	var missing []string
	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			missing = append(missing, item.ProductID)
			continue
		}
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return Valuation{Total: roundHalfUp(sum), Missing: missing}
}

// ResolveAssetValue returns the rounded integer total of an invoice's
// line items. Unknown products are skipped.
func ResolveAssetValue(items []models.LineItem, prices PriceTable) decimal.Decimal {
	return Valuate(items, prices).Total
}

func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// ValidateLineItems rejects line items without a product reference or with
// a negative quantity.
func ValidateLineItems(invoiceID string, items []models.LineItem) error {
	for i, item := range items {
		if item.ProductID == "" {
			return &StructuralError{Record: "invoice", ID: invoiceID, Field: "lineItems[" + strconv.Itoa(i) + "].productId", Reason: "is required"}
		}
		if item.Quantity < 0 {
			return &StructuralError{Record: "invoice", ID: invoiceID, Field: "lineItems[" + strconv.Itoa(i) + "].quantity", Reason: "must not be negative"}
		}
	}
	return nil
}
