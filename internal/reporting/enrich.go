// internal/reporting/enrich.go
package reporting

import (
	"github.com/shopspring/decimal"

	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/models"
)

// Counterparty is the display metadata of an invoice party.
type Counterparty struct {
	ID          string          `json:"id"`
	Address     string          `json:"address"`
	Alias       string          `json:"alias,omitempty"`
	Name        string          `json:"name,omitempty"`
	Type        models.UserType `json:"type"`
	DisplayName string          `json:"displayName"`
}

// OwnershipSummary describes the share ledger of one invoice.
type OwnershipSummary struct {
	RootID            string           `json:"rootId,omitempty"`
	RootOwnerID       string           `json:"rootOwnerId,omitempty"`
	RootRemaining     *decimal.Decimal `json:"rootRemaining,omitempty"`
	Shares            int              `json:"shares"`
	Holders           int              `json:"holders"`
	SoldPercentage    decimal.Decimal  `json:"soldPercentage"`
	RemainingSellable decimal.Decimal  `json:"remainingSellable"`
}

// EnrichedInvoice is an invoice joined with its value, counterparties and
// ledger summary. Lookups that miss leave the field empty.
type EnrichedInvoice struct {
	models.Invoice
	TotalValue      decimal.Decimal   `json:"totalValue"`
	MissingProducts []string          `json:"missingProducts,omitempty"`
	Owner           *Counterparty     `json:"owner,omitempty"`
	Debtor          *Counterparty     `json:"debtor,omitempty"`
	BusinessName    string            `json:"businessName,omitempty"`
	Ownership       *OwnershipSummary `json:"ownership,omitempty"`
}

// Enrich joins invoices with the ledger and the counterparty directories.
// It is pure: the same inputs always give the same output.
func Enrich(assets []models.Invoice, nodes []models.ShareNode, dirs Directories) []EnrichedInvoice {
	byAsset := ledger.GroupByAsset(nodes)

	out := make([]EnrichedInvoice, 0, len(assets))
	for _, asset := range assets {
		valuation := ledger.Valuate(asset.LineItems, dirs.Prices)
		view := EnrichedInvoice{
			Invoice:         asset,
			TotalValue:      valuation.Total,
			MissingProducts: valuation.Missing,
			Owner:           counterparty(dirs.Users, asset.OwnerID),
			Debtor:          counterparty(dirs.Users, asset.DebtorID),
		}
		if b, ok := dirs.Businesses.Lookup(asset.BusinessID); ok {
			view.BusinessName = b.BusinessName
		}
		if assetNodes := byAsset[asset.ID]; len(assetNodes) > 0 {
			view.Ownership = summarize(asset.ID, assetNodes)
		}
		out = append(out, view)
	}
	return out
}

func counterparty(users *UserDirectory, key string) *Counterparty {
	u, ok := users.Lookup(key)
	if !ok {
		return nil
	}
	return &Counterparty{
		ID:          u.ID,
		Address:     u.Address,
		Alias:       u.Alias,
		Name:        u.Name,
		Type:        u.Type,
		DisplayName: u.DisplayName(),
	}
}

func summarize(assetID string, nodes []models.ShareNode) *OwnershipSummary {
	h := ledger.BuildHierarchy(assetID, nodes)
	summary := &OwnershipSummary{
		Shares:            len(h.Derived),
		Holders:           len(ledger.OwnershipByHolder(assetID, nodes)),
		SoldPercentage:    h.SoldPercentage,
		RemainingSellable: h.RemainingSellable,
	}
	if h.Root != nil {
		remaining := h.Root.Node.RemainingPercentage
		summary.RootID = h.Root.Node.ID
		summary.RootOwnerID = h.Root.Node.OwnerID
		summary.RootRemaining = &remaining
		summary.Shares++
	}
	return summary
}
