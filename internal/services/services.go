// internal/services/services.go
package services

import (
	"github.com/javajoker/coral-ledger/internal/config"
	"github.com/javajoker/coral-ledger/internal/feeds"
	"github.com/javajoker/coral-ledger/internal/store"
)

// Services bundles the application services over one store.
type Services struct {
	Directory *DirectoryService
	Invoices  *InvoiceService
	Shares    *ShareService
	Payments  *PaymentService
	Feeds     *FeedService
}

// New wires every service. sink may be nil when report export is not
// configured.
func New(cfg *config.Config, s store.Store, source feeds.Source, sink feeds.Sink) *Services {
	directory := NewDirectoryService(s)
	invoices := NewInvoiceService(s, directory, cfg.Payment.Currency)
	shares := NewShareService(s, cfg.Ledger)
	return &Services{
		Directory: directory,
		Invoices:  invoices,
		Shares:    shares,
		Payments:  NewPaymentService(cfg.Payment, shares, invoices),
		Feeds:     NewFeedService(s, source, sink, invoices, shares),
	}
}
