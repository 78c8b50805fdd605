// internal/reporting/stats.go
package reporting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/javajoker/coral-ledger/internal/models"
)

type SummaryStats struct {
	Total        int             `json:"total"`
	PaidCount    int             `json:"paidCount"`
	UnpaidCount  int             `json:"unpaidCount"`
	PendingCount int             `json:"pendingCount"`
	OverdueCount int             `json:"overdueCount"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	PaidValue    decimal.Decimal `json:"paidValue"`
	UnpaidValue  decimal.Decimal `json:"unpaidValue"`
}

// ComputeSummaryStats partitions invoices into paid and unpaid
// (PENDING or OVERDUE).
func ComputeSummaryStats(views []EnrichedInvoice) SummaryStats {
	stats := SummaryStats{
		Total:       len(views),
		TotalValue:  decimal.Zero,
		PaidValue:   decimal.Zero,
		UnpaidValue: decimal.Zero,
	}
	for _, v := range views {
		stats.TotalValue = stats.TotalValue.Add(v.TotalValue)
		switch {
		case v.Status == models.InvoiceStatusPaid:
			stats.PaidCount++
			stats.PaidValue = stats.PaidValue.Add(v.TotalValue)
		case v.Status.Unpaid():
			stats.UnpaidCount++
			stats.UnpaidValue = stats.UnpaidValue.Add(v.TotalValue)
			if v.Status == models.InvoiceStatusOverdue {
				stats.OverdueCount++
			} else {
				stats.PendingCount++
			}
		}
	}
	return stats
}

type MonthlyTotal struct {
	Month string          `json:"month"`
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// MonthlyTotals groups invoice value by creation month (UTC), oldest first.
func MonthlyTotals(views []EnrichedInvoice) []MonthlyTotal {
	index := make(map[string]int)
	totals := make([]MonthlyTotal, 0)
	for _, v := range views {
		month := v.CreatedAt.UTC().Format("2006-01")
		i, ok := index[month]
		if !ok {
			i = len(totals)
			index[month] = i
			totals = append(totals, MonthlyTotal{Month: month, Value: decimal.Zero})
		}
		totals[i].Count++
		totals[i].Value = totals[i].Value.Add(v.TotalValue)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Month < totals[j].Month })
	return totals
}
