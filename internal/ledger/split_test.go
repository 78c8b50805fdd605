// internal/ledger/split_test.go
package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coral-ledger/internal/models"
)

func strPtr(s string) *string { return &s }

func rootNode(id, asset, owner, share, remaining, price string) models.ShareNode {
	return models.ShareNode{
		ID:                  id,
		AssetID:             asset,
		IsRoot:              true,
		SharePercentage:     dec(share),
		RemainingPercentage: dec(remaining),
		OwnerID:             owner,
		Price:               dec(price),
	}
}

func childNode(id, asset, parent, root, owner, share, price string) models.ShareNode {
	return models.ShareNode{
		ID:              id,
		AssetID:         asset,
		ParentID:        strPtr(parent),
		RootID:          strPtr(root),
		SharePercentage: dec(share),
		OwnerID:         owner,
		Price:           dec(price),
	}
}

func requirePurchaseError(t *testing.T, err error, kind PurchaseErrorKind) {
	t.Helper()
	pe, ok := AsPurchaseError(err)
	require.Truef(t, ok, "expected purchase error, got %v", err)
	assert.Equal(t, kind, pe.Kind)
}

func TestRemainingSellable(t *testing.T) {
	nodes := []models.ShareNode{
		rootNode("R1", "A1", "0xaaa", "40", "10", "400"),
		childNode("C1", "A1", "R1", "R1", "0xbbb", "30", "300"),
		childNode("C2", "A1", "R1", "R1", "0xccc", "20", "200"),
		childNode("X1", "A2", "R2", "R2", "0xccc", "50", "10"),
	}

	assertDecimal(t, "50", RemainingSellable("A1", nodes))
	assertDecimal(t, "50", RemainingSellable("A2", nodes))
	assertDecimal(t, "100", RemainingSellable("A3", nodes))

	oversold := append(nodes, childNode("C3", "A1", "R1", "R1", "0xddd", "70", "1"))
	assertDecimal(t, "0", RemainingSellable("A1", oversold))
}

func TestFindRootAndChildren(t *testing.T) {
	nodes := []models.ShareNode{
		childNode("C1", "A1", "R1", "R1", "0xbbb", "30", "300"),
		rootNode("R1", "A1", "0xaaa", "40", "30", "400"),
		childNode("G1", "A1", "C1", "R1", "0xccc", "6", "60"),
		childNode("C2", "A1", "R1", "R1", "0xddd", "10", "100"),
	}

	root := FindRoot(nodes, "A1")
	require.NotNil(t, root)
	assert.Equal(t, "R1", root.ID)
	assert.Nil(t, FindRoot(nodes, "A9"))

	children := FindChildren(nodes, "R1")
	require.Len(t, children, 2)
	assert.Equal(t, "C1", children[0].ID)
	assert.Equal(t, "C2", children[1].ID)
	assert.Empty(t, FindChildren(nodes, "C2"))
}

func TestValidatePurchase(t *testing.T) {
	node := rootNode("R1", "A1", "0xAbC", "40", "60", "400")

	requirePurchaseError(t, ValidatePurchase(nil, dec("10"), "0xbuyer"), KindNotFound)
	requirePurchaseError(t, ValidatePurchase(&node, dec("0"), "0xbuyer"), KindInvalidAmount)
	requirePurchaseError(t, ValidatePurchase(&node, dec("-5"), "0xbuyer"), KindInvalidAmount)
	requirePurchaseError(t, ValidatePurchase(&node, dec("70"), "0xbuyer"), KindInsufficientShare)
	assert.NoError(t, ValidatePurchase(&node, dec("40"), "0xbuyer"))
}

func TestValidatePurchaseSelfTradeWinsOverAmount(t *testing.T) {
	node := rootNode("R1", "A1", "0xAbC", "40", "60", "400")

	requirePurchaseError(t, ValidatePurchase(&node, dec("10"), "0xabc"), KindSelfTrade)
	requirePurchaseError(t, ValidatePurchase(&node, dec("70"), "0xABC"), KindSelfTrade)
	requirePurchaseError(t, ValidatePurchase(&node, dec("0"), "0xabc"), KindSelfTrade)
}

// Below the root the request is a percentage of the seller's share, but the
// cap is still the seller's sharePercentage.
func TestValidatePurchaseBelowRootCapsAtSellerShare(t *testing.T) {
	child := childNode("C1", "A1", "R1", "R1", "0xbbb", "30", "300")

	requirePurchaseError(t, ValidatePurchase(&child, dec("50"), "0xccc"), KindInsufficientShare)
	assert.NoError(t, ValidatePurchase(&child, dec("30"), "0xccc"))
}

func TestValidatePurchaseRejectsAmountsFinerThanStoredScale(t *testing.T) {
	node := rootNode("R1", "A1", "0xaaa", "40", "60", "400")

	requirePurchaseError(t, ValidatePurchase(&node, dec("7.77777"), "0xbuyer"), KindInvalidAmount)
	assert.NoError(t, ValidatePurchase(&node, dec("7.7777"), "0xbuyer"))
}

func TestPriceForShare(t *testing.T) {
	node := rootNode("R1", "A1", "0xaaa", "40", "60", "400")

	price, err := PriceForShare(&node, dec("30"))
	require.NoError(t, err)
	assertDecimal(t, "300", price)

	node.Price = dec("100")
	price, err = PriceForShare(&node, dec("10"))
	require.NoError(t, err)
	assertDecimal(t, "25", price)

	node.SharePercentage = decimal.Zero
	_, err = PriceForShare(&node, dec("10"))
	assert.ErrorIs(t, err, ErrZeroShare)
}

func TestPlanSplitFromRoot(t *testing.T) {
	root := rootNode("R1", "A1", "0xaaa", "40", "60", "400")
	root.Version = 3
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	plan, err := PlanSplit(&root, nil, SplitRequest{Percentage: dec("30"), BuyerID: "0xbuyer", At: at})
	require.NoError(t, err)

	assert.Equal(t, "R1", plan.RootID)
	assert.Equal(t, int64(3), plan.ExpectedVersion)
	assertDecimal(t, "30", plan.RootRemaining)
	assertDecimal(t, "30", plan.Absolute)

	node := plan.Node
	assert.NotEmpty(t, node.ID)
	assert.False(t, node.IsRoot)
	assert.Equal(t, "A1", node.AssetID)
	require.NotNil(t, node.ParentID)
	assert.Equal(t, "R1", *node.ParentID)
	require.NotNil(t, node.RootID)
	assert.Equal(t, "R1", *node.RootID)
	assertDecimal(t, "30", node.SharePercentage)
	assertDecimal(t, "300", node.Price)
	assert.Equal(t, "0xbuyer", node.OwnerID)
	assert.Equal(t, at, node.CreatedAt)
}

func TestPlanSplitComposesPercentageBelowRoot(t *testing.T) {
	root := rootNode("R1", "A1", "0xaaa", "40", "30", "400")
	child := childNode("C1", "A1", "R1", "R1", "0xbbb", "30", "300")

	plan, err := PlanSplit(&child, &root, SplitRequest{Percentage: dec("20"), BuyerID: "0xccc"})
	require.NoError(t, err)

	assertDecimal(t, "6", plan.Node.SharePercentage)
	assertDecimal(t, "24", plan.RootRemaining)
	assertDecimal(t, "200", plan.Node.Price)
	assert.Equal(t, "C1", *plan.Node.ParentID)
	assert.Equal(t, "R1", *plan.Node.RootID)
}

func TestPlanSplitBelowRootKeepsStoredScale(t *testing.T) {
	root := rootNode("R1", "A1", "0xaaa", "40", "60", "400")

	first, err := PlanSplit(&root, nil, SplitRequest{Percentage: dec("12.5"), BuyerID: "0xbbb"})
	require.NoError(t, err)
	root.RemainingPercentage = first.RootRemaining
	root.Version++
	child := first.Node

	// 12.5% x 7.77% is 0.97125% of the asset
	second, err := PlanSplit(&child, &root, SplitRequest{Percentage: dec("7.77"), BuyerID: "0xccc"})
	require.NoError(t, err)
	assertDecimal(t, "0.9713", second.Absolute)
	assertDecimal(t, "46.5287", second.RootRemaining)
	root.RemainingPercentage = second.RootRemaining

	nodes := []models.ShareNode{root, child, second.Node}
	for i := range nodes {
		// what a decimal(9,4) column would hand back
		stored := nodes[i].SharePercentage.Round(PercentScale)
		assert.True(t, stored.Equal(nodes[i].SharePercentage), nodes[i].SharePercentage.String())
		stored = nodes[i].RemainingPercentage.Round(PercentScale)
		assert.True(t, stored.Equal(nodes[i].RemainingPercentage), nodes[i].RemainingPercentage.String())
	}

	report, err := ValidateAsset("A1", nodes)
	require.NoError(t, err)
	assert.True(t, report.OK, "%+v", report.Violations)
}

func TestPlanSplitRejectsShareThatRoundsToZero(t *testing.T) {
	root := rootNode("R1", "A1", "0xaaa", "40", "47.5", "400")
	child := childNode("C1", "A1", "R1", "R1", "0xbbb", "12.5", "125")

	_, err := PlanSplit(&child, &root, SplitRequest{Percentage: dec("0.0001"), BuyerID: "0xccc"})
	requirePurchaseError(t, err, KindInvalidAmount)
}

func TestPlanSplitRejections(t *testing.T) {
	root := rootNode("R1", "A1", "0xaaa", "40", "10", "400")

	_, err := PlanSplit(&root, nil, SplitRequest{Percentage: dec("30"), BuyerID: "0xbuyer"})
	requirePurchaseError(t, err, KindInsufficientShare)

	_, err = PlanSplit(&root, nil, SplitRequest{Percentage: dec("70"), BuyerID: "0xbuyer"})
	requirePurchaseError(t, err, KindInsufficientShare)

	_, err = PlanSplit(&root, nil, SplitRequest{Percentage: dec("5"), BuyerID: "0xAAA"})
	requirePurchaseError(t, err, KindSelfTrade)

	orphan := childNode("C1", "A1", "R9", "R9", "0xbbb", "30", "300")
	_, err = PlanSplit(&orphan, &root, SplitRequest{Percentage: dec("5"), BuyerID: "0xccc"})
	assert.True(t, IsStructural(err))
}

func TestPlanSplitPriceOverride(t *testing.T) {
	root := rootNode("R1", "A1", "0xaaa", "40", "60", "400")
	override := dec("123.45")

	plan, err := PlanSplit(&root, nil, SplitRequest{Percentage: dec("10"), BuyerID: "0xbuyer", PriceOverride: &override})
	require.NoError(t, err)
	assertDecimal(t, "123.45", plan.Node.Price)
}

func TestNewRoot(t *testing.T) {
	root, err := NewRoot("A1", "0xaaa", dec("40"), dec("400"), time.Time{})
	require.NoError(t, err)
	assert.True(t, root.IsRoot)
	assert.Nil(t, root.ParentID)
	assertDecimal(t, "60", root.RemainingPercentage)
	assert.False(t, root.CreatedAt.IsZero())

	_, err = NewRoot("A1", "0xaaa", dec("0"), dec("1"), time.Time{})
	requirePurchaseError(t, err, KindInvalidAmount)
	_, err = NewRoot("A1", "0xaaa", dec("100.5"), dec("1"), time.Time{})
	requirePurchaseError(t, err, KindInvalidAmount)
	_, err = NewRoot("A1", "0xaaa", dec("12.34567"), dec("1"), time.Time{})
	requirePurchaseError(t, err, KindInvalidAmount)
	_, err = NewRoot("A1", "", dec("10"), dec("1"), time.Time{})
	assert.True(t, IsStructural(err))
}

func TestSameParty(t *testing.T) {
	assert.True(t, SameParty("0xAbC", " 0xabc "))
	assert.False(t, SameParty("", ""))
	assert.False(t, SameParty("0xabc", "0xabd"))
}
