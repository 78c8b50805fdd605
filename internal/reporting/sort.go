// internal/reporting/sort.go
package reporting

import (
	"sort"
	"strings"
)

type SortField string

const (
	SortByCreatedAt  SortField = "createdAt"
	SortByTotalValue SortField = "totalValue"
	SortByEndDate    SortField = "endDate"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortField accepts the camelCase field names and their snake_case
// spellings used by query strings.
func ParseSortField(s string) (SortField, bool) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "createdat":
		return SortByCreatedAt, true
	case "totalvalue":
		return SortByTotalValue, true
	case "enddate":
		return SortByEndDate, true
	}
	return "", false
}

func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(s, string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// SortInvoices returns a stably sorted copy: equal keys keep their input
// order in both directions.
func SortInvoices(views []EnrichedInvoice, field SortField, order SortOrder) []EnrichedInvoice {
	out := make([]EnrichedInvoice, len(views))
	copy(out, views)

	cmp := compareBy(field)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(&out[i], &out[j])
		if order == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareBy(field SortField) func(a, b *EnrichedInvoice) int {
	switch field {
	case SortByTotalValue:
		return func(a, b *EnrichedInvoice) int { return a.TotalValue.Cmp(b.TotalValue) }
	case SortByEndDate:
		return func(a, b *EnrichedInvoice) int { return a.EndDate.Compare(b.EndDate) }
	default:
		return func(a, b *EnrichedInvoice) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}
