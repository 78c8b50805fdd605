// internal/reporting/filter.go
package reporting

import (
	"strings"

	"github.com/javajoker/coral-ledger/internal/models"
)

// Filter narrows enriched invoices. Empty fields match everything; set
// fields are combined with AND.
type Filter struct {
	Status           models.InvoiceStatus
	CounterpartyType models.UserType
	BusinessID       string
	Search           string
}

func FilterInvoices(views []EnrichedInvoice, f Filter) []EnrichedInvoice {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]EnrichedInvoice, 0, len(views))
	for i := range views {
		v := &views[i]
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.CounterpartyType != "" && (v.Debtor == nil || v.Debtor.Type != f.CounterpartyType) {
			continue
		}
		if f.BusinessID != "" && v.BusinessID != f.BusinessID {
			continue
		}
		if term != "" && !matches(v, term) {
			continue
		}
		out = append(out, *v)
	}
	return out
}

func matches(v *EnrichedInvoice, term string) bool {
	fields := []string{v.ID, v.InvoiceNumber, v.OwnerID, v.DebtorID, v.BusinessName, v.Notes}
	for _, cp := range []*Counterparty{v.Owner, v.Debtor} {
		if cp != nil {
			fields = append(fields, cp.Alias, cp.Name)
		}
	}
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
