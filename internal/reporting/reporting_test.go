// internal/reporting/reporting_test.go
package reporting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coral-ledger/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 12, 0, 0, 0, time.UTC)
}

func fixtures() ([]models.Invoice, []models.ShareNode, Directories) {
	users := []models.User{
		{BaseModel: models.BaseModel{ID: "u1"}, Address: "0xAAA", Alias: "Acme Treasury", Type: models.UserTypeBusiness},
		{BaseModel: models.BaseModel{ID: "u2"}, Address: "0xbbb", Name: "Bob Debtor", Type: models.UserTypeIndividual},
		{BaseModel: models.BaseModel{ID: "u3"}, Address: "0xccc", Name: "Carol Corp", Type: models.UserTypeBusiness},
	}
	businesses := []models.Business{
		{BaseModel: models.BaseModel{ID: "b1"}, BusinessName: "Reef Supplies", WalletAddress: "0xAAA"},
	}
	products := []models.Product{
		{BaseModel: models.BaseModel{ID: "p1"}, ProductName: "Coral", Price: dec("10")},
		{BaseModel: models.BaseModel{ID: "p2"}, ProductName: "Survey", Price: dec("2.5")},
	}

	invoices := []models.Invoice{
		{
			BaseModel:  models.BaseModel{ID: "inv-1", CreatedAt: day(1)},
			OwnerID:    "0xaaa",
			DebtorID:   "u2",
			BusinessID: "b1",
			Status:     models.InvoiceStatusPending,
			EndDate:    day(20),
			Notes:      "quarterly reef survey",
			LineItems: []models.LineItem{
				{ProductID: "p1", Quantity: 2},
				{ProductID: "p2", Quantity: 2},
			},
		},
		{
			BaseModel: models.BaseModel{ID: "inv-2", CreatedAt: day(3)},
			OwnerID:   "u1",
			DebtorID:  "u3",
			Status:    models.InvoiceStatusPaid,
			EndDate:   day(10),
			LineItems: []models.LineItem{{ProductID: "p1", Quantity: 10}},
		},
		{
			BaseModel: models.BaseModel{ID: "inv-3", CreatedAt: day(2)},
			OwnerID:   "u1",
			DebtorID:  "0xunknown",
			Status:    models.InvoiceStatusOverdue,
			EndDate:   day(5),
			LineItems: []models.LineItem{{ProductID: "p1", Quantity: 5}, {ProductID: "missing", Quantity: 3}},
		},
	}

	nodes := []models.ShareNode{
		{ID: "R1", AssetID: "inv-1", IsRoot: true, SharePercentage: dec("40"), RemainingPercentage: dec("30"), OwnerID: "0xaaa", Price: dec("12")},
		{ID: "C1", AssetID: "inv-1", ParentID: strPtr("R1"), RootID: strPtr("R1"), SharePercentage: dec("30"), OwnerID: "0xbbb", Price: dec("9")},
	}

	return invoices, nodes, NewDirectories(users, businesses, products)
}

func TestEnrich(t *testing.T) {
	invoices, nodes, dirs := fixtures()

	views := Enrich(invoices, nodes, dirs)
	require.Len(t, views, 3)

	first := views[0]
	assert.True(t, first.TotalValue.Equal(dec("25")))
	assert.Empty(t, first.MissingProducts)
	require.NotNil(t, first.Owner)
	assert.Equal(t, "u1", first.Owner.ID)
	assert.Equal(t, "Acme Treasury", first.Owner.DisplayName)
	require.NotNil(t, first.Debtor)
	assert.Equal(t, "Bob Debtor", first.Debtor.DisplayName)
	assert.Equal(t, "Reef Supplies", first.BusinessName)

	require.NotNil(t, first.Ownership)
	assert.Equal(t, "R1", first.Ownership.RootID)
	assert.Equal(t, 2, first.Ownership.Shares)
	assert.Equal(t, 2, first.Ownership.Holders)
	require.NotNil(t, first.Ownership.RootRemaining)
	assert.True(t, first.Ownership.RootRemaining.Equal(dec("30")))
	assert.True(t, first.Ownership.RemainingSellable.Equal(dec("70")))

	assert.Nil(t, views[1].Ownership)
	assert.Empty(t, views[1].BusinessName)

	third := views[2]
	assert.True(t, third.TotalValue.Equal(dec("50")))
	assert.Equal(t, []string{"missing"}, third.MissingProducts)
	assert.Nil(t, third.Debtor)
}

func TestEnrichIsIdempotent(t *testing.T) {
	invoices, nodes, dirs := fixtures()

	assert.Equal(t, Enrich(invoices, nodes, dirs), Enrich(invoices, nodes, dirs))
}

func TestComputeSummaryStats(t *testing.T) {
	invoices, nodes, dirs := fixtures()

	stats := ComputeSummaryStats(Enrich(invoices, nodes, dirs))

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.PaidCount)
	assert.Equal(t, 2, stats.UnpaidCount)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, 1, stats.OverdueCount)
	assert.True(t, stats.TotalValue.Equal(dec("175")))
	assert.True(t, stats.PaidValue.Equal(dec("100")))
	assert.True(t, stats.UnpaidValue.Equal(dec("75")))
}

func TestComputeSummaryStatsEmpty(t *testing.T) {
	stats := ComputeSummaryStats(nil)

	assert.Zero(t, stats.Total)
	assert.True(t, stats.TotalValue.IsZero())
}

func TestMonthlyTotals(t *testing.T) {
	invoices, nodes, dirs := fixtures()
	views := Enrich(invoices, nodes, dirs)
	views[1].CreatedAt = time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC)

	totals := MonthlyTotals(views)

	require.Len(t, totals, 2)
	assert.Equal(t, "2025-12", totals[0].Month)
	assert.Equal(t, 1, totals[0].Count)
	assert.True(t, totals[0].Value.Equal(dec("100")))
	assert.Equal(t, "2026-01", totals[1].Month)
	assert.Equal(t, 2, totals[1].Count)
	assert.True(t, totals[1].Value.Equal(dec("75")))
}

func ids(views []EnrichedInvoice) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestSortInvoices(t *testing.T) {
	invoices, nodes, dirs := fixtures()
	views := Enrich(invoices, nodes, dirs)

	assert.Equal(t, []string{"inv-1", "inv-3", "inv-2"}, ids(SortInvoices(views, SortByCreatedAt, SortAsc)))
	assert.Equal(t, []string{"inv-2", "inv-3", "inv-1"}, ids(SortInvoices(views, SortByCreatedAt, SortDesc)))
	assert.Equal(t, []string{"inv-2", "inv-3", "inv-1"}, ids(SortInvoices(views, SortByTotalValue, SortDesc)))
	assert.Equal(t, []string{"inv-3", "inv-2", "inv-1"}, ids(SortInvoices(views, SortByEndDate, SortAsc)))

	// input untouched
	assert.Equal(t, []string{"inv-1", "inv-2", "inv-3"}, ids(views))
}

func TestSortInvoicesReversesWithDistinctKeys(t *testing.T) {
	invoices, nodes, dirs := fixtures()
	views := Enrich(invoices, nodes, dirs)

	asc := ids(SortInvoices(views, SortByTotalValue, SortAsc))
	desc := ids(SortInvoices(views, SortByTotalValue, SortDesc))

	reversed := make([]string, len(desc))
	for i, id := range desc {
		reversed[len(desc)-1-i] = id
	}
	assert.Equal(t, asc, reversed)
}

func TestSortInvoicesIsStable(t *testing.T) {
	views := []EnrichedInvoice{
		{Invoice: models.Invoice{BaseModel: models.BaseModel{ID: "a"}}, TotalValue: dec("5")},
		{Invoice: models.Invoice{BaseModel: models.BaseModel{ID: "b"}}, TotalValue: dec("7")},
		{Invoice: models.Invoice{BaseModel: models.BaseModel{ID: "c"}}, TotalValue: dec("5")},
		{Invoice: models.Invoice{BaseModel: models.BaseModel{ID: "d"}}, TotalValue: dec("5")},
	}

	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(SortInvoices(views, SortByTotalValue, SortAsc)))
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(SortInvoices(views, SortByTotalValue, SortDesc)))
}

func TestParseSort(t *testing.T) {
	field, ok := ParseSortField("total_value")
	assert.True(t, ok)
	assert.Equal(t, SortByTotalValue, field)

	field, ok = ParseSortField("endDate")
	assert.True(t, ok)
	assert.Equal(t, SortByEndDate, field)

	_, ok = ParseSortField("owner")
	assert.False(t, ok)

	assert.Equal(t, SortAsc, ParseSortOrder("ASC"))
	assert.Equal(t, SortDesc, ParseSortOrder(""))
}

func TestFilterInvoices(t *testing.T) {
	invoices, nodes, dirs := fixtures()
	views := Enrich(invoices, nodes, dirs)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter keeps everything", Filter{}, []string{"inv-1", "inv-2", "inv-3"}},
		{"status", Filter{Status: models.InvoiceStatusPaid}, []string{"inv-2"}},
		{"counterparty type", Filter{CounterpartyType: models.UserTypeBusiness}, []string{"inv-2"}},
		{"business", Filter{BusinessID: "b1"}, []string{"inv-1"}},
		{"search notes", Filter{Search: "REEF"}, []string{"inv-1"}},
		{"search counterparty name", Filter{Search: "carol"}, []string{"inv-2"}},
		{"search id", Filter{Search: "inv-3"}, []string{"inv-3"}},
		{"criteria combine with AND", Filter{Status: models.InvoiceStatusPending, Search: "carol"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterInvoices(views, tt.filter)))
		})
	}
}
