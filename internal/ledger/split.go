// internal/ledger/split.go
package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/coral-ledger/internal/models"
)

var hundred = decimal.NewFromInt(100)

// PercentScale is the number of decimal places a stored percentage keeps.
// Every percentage the ledger writes is already at this scale, so the
// columns never round.
const PercentScale int32 = 4

func withinScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(PercentScale))
}

// RemainingSellable is 100 minus the shares of every non-root node of the
// asset, clamped to [0, 100].
func RemainingSellable(assetID string, nodes []models.ShareNode) decimal.Decimal {
	sold := decimal.Zero
	for _, n := range nodes {
		if n.AssetID == assetID && !n.IsRoot {
			sold = sold.Add(n.SharePercentage)
		}
	}
	return clampPercentage(hundred.Sub(sold))
}

// FindRoot returns the first root node of the asset, or nil.
func FindRoot(nodes []models.ShareNode, assetID string) *models.ShareNode {
	for i := range nodes {
		if nodes[i].AssetID == assetID && nodes[i].IsRoot {
			root := nodes[i]
			return &root
		}
	}
	return nil
}

// FindChildren returns the nodes whose parent is rootID, in input order.
func FindChildren(nodes []models.ShareNode, rootID string) []models.ShareNode {
	children := make([]models.ShareNode, 0)
	for _, n := range nodes {
		if n.ParentID != nil && *n.ParentID == rootID {
			children = append(children, n)
		}
	}
	return children
}

// ValidatePurchase checks a request to buy requested percent of node.
// The self-trade check runs before the amount checks.
func ValidatePurchase(node *models.ShareNode, requested decimal.Decimal, buyerID string) error {
	if node == nil {
		return newPurchaseError(KindNotFound, "", "share does not exist")
	}
	if SameParty(buyerID, node.OwnerID) {
		return newPurchaseError(KindSelfTrade, node.ID, "buyer already owns this share")
	}
	if !requested.IsPositive() {
		return newPurchaseError(KindInvalidAmount, node.ID, "requested percentage %s must be greater than zero", requested)
	}
	if !withinScale(requested) {
		return newPurchaseError(KindInvalidAmount, node.ID, "requested percentage %s has more than %d decimal places", requested, PercentScale)
	}
	if requested.GreaterThan(node.SharePercentage) {
		return newPurchaseError(KindInsufficientShare, node.ID, "requested %s%% exceeds the seller's %s%%", requested, node.SharePercentage)
	}
	return nil
}

// PriceForShare prices requested percent of node pro rata to what the node
// cost, rounded to cents.
func PriceForShare(node *models.ShareNode, requested decimal.Decimal) (decimal.Decimal, error) {
	if node.SharePercentage.IsZero() {
		return decimal.Zero, ErrZeroShare
	}
	return node.Price.Mul(requested).Div(node.SharePercentage).Round(2), nil
}

// AbsoluteShare composes a percentage of parent into a percentage relative
// to the root claim, rounded half up to PercentScale.
func AbsoluteShare(parent *models.ShareNode, requested decimal.Decimal) decimal.Decimal {
	if parent.IsRoot {
		return requested.Round(PercentScale)
	}
	return parent.SharePercentage.Mul(requested).Div(hundred).Round(PercentScale)
}

type SplitRequest struct {
	Percentage    decimal.Decimal
	BuyerID       string
	PriceOverride *decimal.Decimal
	At            time.Time
}

// SplitPlan is the write a split commits: the new node plus the root's new
// remaining percentage, guarded by the root version that was read.
type SplitPlan struct {
	Node            models.ShareNode
	RootID          string
	ExpectedVersion int64
	RootRemaining   decimal.Decimal
	Absolute        decimal.Decimal
}

// PlanSplit validates the purchase against parent and root and computes the
// resulting node. It has no side effects.
func PlanSplit(parent, root *models.ShareNode, req SplitRequest) (*SplitPlan, error) {
	if err := ValidatePurchase(parent, req.Percentage, req.BuyerID); err != nil {
		return nil, err
	}
	if root == nil && parent.IsRoot {
		root = parent
	}
	if root == nil || !root.IsRoot || root.ID != parent.RootRef() {
		return nil, &StructuralError{Record: "share", ID: parent.ID, Field: "rootId", Reason: "does not resolve to the asset's root"}
	}

	absolute := AbsoluteShare(parent, req.Percentage)
	if !absolute.IsPositive() {
		return nil, newPurchaseError(KindInvalidAmount, parent.ID,
			"%s%% of this share is below %d decimal places of the asset", req.Percentage, PercentScale)
	}
	if absolute.GreaterThan(root.RemainingPercentage) {
		return nil, newPurchaseError(KindInsufficientShare, parent.ID,
			"only %s%% of the asset remains unsold, %s%% requested", root.RemainingPercentage, absolute)
	}

	var price decimal.Decimal
	if req.PriceOverride != nil {
		price = *req.PriceOverride
	} else {
		p, err := PriceForShare(parent, req.Percentage)
		if err != nil {
			return nil, err
		}
		price = p
	}

	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	parentID := parent.ID
	rootID := root.ID

	return &SplitPlan{
		Node: models.ShareNode{
			ID:                  uuid.NewString(),
			AssetID:             parent.AssetID,
			ParentID:            &parentID,
			RootID:              &rootID,
			IsRoot:              false,
			SharePercentage:     absolute,
			RemainingPercentage: decimal.Zero,
			OwnerID:             strings.TrimSpace(req.BuyerID),
			Price:               price,
			CreatedAt:           at,
		},
		RootID:          rootID,
		ExpectedVersion: root.Version,
		RootRemaining:   root.RemainingPercentage.Sub(absolute),
		Absolute:        absolute,
	}, nil
}

// NewRoot builds the root node recording the first sale against an asset.
func NewRoot(assetID, ownerID string, share, price decimal.Decimal, at time.Time) (*models.ShareNode, error) {
	if assetID == "" {
		return nil, &StructuralError{Record: "share", Field: "assetId", Reason: "is required"}
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, &StructuralError{Record: "share", Field: "ownerId", Reason: "is required"}
	}
	if !share.IsPositive() || share.GreaterThan(hundred) {
		return nil, newPurchaseError(KindInvalidAmount, "", "share percentage %s must be in (0, 100]", share)
	}
	if !withinScale(share) {
		return nil, newPurchaseError(KindInvalidAmount, "", "share percentage %s has more than %d decimal places", share, PercentScale)
	}
	if price.IsNegative() {
		return nil, newPurchaseError(KindInvalidAmount, "", "price %s must not be negative", price)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return &models.ShareNode{
		ID:                  uuid.NewString(),
		AssetID:             assetID,
		IsRoot:              true,
		SharePercentage:     share,
		RemainingPercentage: hundred.Sub(share),
		OwnerID:             strings.TrimSpace(ownerID),
		Price:               price,
		CreatedAt:           at,
	}, nil
}

// SameParty compares two party identifiers. Wallet addresses are compared
// case-insensitively.
func SameParty(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func clampPercentage(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
