// internal/store/memory_store_test.go
package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedRoot(t *testing.T, s *MemoryStore, assetID string) *models.ShareNode {
	t.Helper()
	root, err := ledger.NewRoot(assetID, "0xaaa", dec("40"), dec("400"), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.CreateRoot(context.Background(), root))
	return root
}

func TestMemoryStoreInvoices(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	inv := &models.Invoice{
		OwnerID:   "0xaaa",
		DebtorID:  "0xbbb",
		Status:    models.InvoiceStatusPending,
		EndDate:   time.Now().Add(-time.Hour),
		LineItems: []models.LineItem{{ProductID: "p1", Quantity: 1}, {ProductID: "p2", Quantity: 3}},
	}
	require.NoError(t, s.CreateInvoice(ctx, inv))
	assert.NotEmpty(t, inv.ID)
	assert.ErrorIs(t, s.CreateInvoice(ctx, inv), ErrDuplicate)

	got, err := s.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LineItems[1].Position)

	// returned records are copies
	got.LineItems[0].Quantity = 99
	again, _ := s.GetInvoice(ctx, inv.ID)
	assert.Equal(t, 1, again.LineItems[0].Quantity)

	candidates, err := s.ListOverdueCandidates(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	updated, err := s.SetInvoiceStatus(ctx, inv.ID, models.InvoiceStatusPending, models.InvoiceStatusOverdue, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, updated.Status)

	_, err = s.SetInvoiceStatus(ctx, inv.ID, models.InvoiceStatusPending, models.InvoiceStatusPaid, time.Now())
	assert.ErrorIs(t, err, ErrStaleStatus)

	_, err = s.SetInvoiceStatus(ctx, "missing", models.InvoiceStatusPending, models.InvoiceStatusPaid, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDirectoryLookupByAddress(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.UpsertUser(ctx, &models.User{BaseModel: models.BaseModel{ID: "u1"}, Address: "0xAbC"}))
	require.NoError(t, s.UpsertBusiness(ctx, &models.Business{BaseModel: models.BaseModel{ID: "b1"}, BusinessName: "Reef", WalletAddress: "0xDEF"}))

	u, err := s.GetUser(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	b, err := s.GetBusiness(ctx, "0xdef")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	_, err = s.GetUser(ctx, "0x000")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpsertUser(ctx, &models.User{BaseModel: models.BaseModel{ID: "u1"}, Address: "0xAbC", Alias: "renamed"}))
	users, _ := s.ListUsers(ctx)
	require.Len(t, users, 1)
	assert.Equal(t, "renamed", users[0].Alias)
}

func TestMemoryStoreCreateRootRejectsDuplicate(t *testing.T) {
	s := NewMemoryStore()
	seedRoot(t, s, "A1")

	second, err := ledger.NewRoot("A1", "0xbbb", dec("10"), dec("1"), time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.CreateRoot(context.Background(), second), ledger.ErrDuplicateRoot)
}

func TestMemoryStoreReimportKeepsRootIndex(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	root := models.ShareNode{ID: "R1", AssetID: "A1", IsRoot: true, SharePercentage: dec("40"), RemainingPercentage: dec("60"), OwnerID: "0xaaa"}
	require.NoError(t, s.ImportNode(ctx, &root))
	require.NoError(t, s.ImportNode(ctx, &root))

	other := models.ShareNode{ID: "R2", AssetID: "A1", IsRoot: true, SharePercentage: dec("10"), RemainingPercentage: dec("90"), OwnerID: "0xbbb"}
	assert.ErrorIs(t, s.ImportNode(ctx, &other), ledger.ErrDuplicateRoot)

	// R1 comes back as a plain share of another asset, freeing A1
	parent := "P1"
	moved := root
	moved.AssetID = "A2"
	moved.IsRoot = false
	moved.ParentID = &parent
	require.NoError(t, s.ImportNode(ctx, &moved))
	require.NoError(t, s.ImportNode(ctx, &other))

	stored, err := s.GetNode(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "A2", stored.AssetID)
	assert.False(t, stored.IsRoot)

	// a plain node cannot be re-imported as a second root of A1
	promoted := moved
	promoted.AssetID = "A1"
	promoted.IsRoot = true
	promoted.ParentID = nil
	assert.ErrorIs(t, s.ImportNode(ctx, &promoted), ledger.ErrDuplicateRoot)

	fresh, err := ledger.NewRoot("A1", "0xccc", dec("5"), dec("1"), time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, s.CreateRoot(ctx, fresh), ledger.ErrDuplicateRoot)
	fresh.AssetID = "A2"
	assert.NoError(t, s.CreateRoot(ctx, fresh))
}

func TestMemoryStoreAppendSplit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	root := seedRoot(t, s, "A1")

	plan, err := ledger.PlanSplit(root, nil, ledger.SplitRequest{Percentage: dec("30"), BuyerID: "0xbbb"})
	require.NoError(t, err)
	require.NoError(t, s.AppendSplit(ctx, plan))

	stored, err := s.GetNode(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, stored.RemainingPercentage.Equal(dec("30")))
	assert.Equal(t, int64(1), stored.Version)

	nodes, err := s.ListNodesByAsset(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, plan.Node.ID, nodes[1].ID)

	// the plan was read at version 0
	stale := *plan
	stale.Node.ID = "other"
	assert.ErrorIs(t, s.AppendSplit(ctx, &stale), ledger.ErrConflict)
}

func TestMemoryStoreConcurrentSplitsNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	root := seedRoot(t, s, "A1")

	const buyers = 20
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buyer := "0xbuyer" + string(rune('a'+i))
			for {
				current, err := s.GetNode(ctx, root.ID)
				if err != nil {
					return
				}
				plan, err := ledger.PlanSplit(current, nil, ledger.SplitRequest{Percentage: dec("7"), BuyerID: buyer})
				if err != nil {
					return
				}
				if err := s.AppendSplit(ctx, plan); err != ledger.ErrConflict {
					return
				}
			}
		}(i)
	}
	wg.Wait()

	nodes, err := s.ListNodesByAsset(ctx, "A1")
	require.NoError(t, err)

	final, err := s.GetNode(ctx, root.ID)
	require.NoError(t, err)

	// 60% was available in 7% lots
	assert.Len(t, nodes, 1+8)
	assert.True(t, final.RemainingPercentage.Equal(dec("4")))
	assert.Equal(t, int64(8), final.Version)

	report, err := ledger.ValidateAsset("A1", nodes)
	require.NoError(t, err)
	assert.True(t, report.OK)
}
