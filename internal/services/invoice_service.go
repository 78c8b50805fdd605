// internal/services/invoice_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/metrics"
	"github.com/javajoker/coral-ledger/internal/models"
	"github.com/javajoker/coral-ledger/internal/reporting"
	"github.com/javajoker/coral-ledger/internal/store"
	"github.com/javajoker/coral-ledger/internal/utils"
)

type InvoiceService struct {
	store       store.Store
	directories *DirectoryService
	currency    string
	now         func() time.Time
}

type LineItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type CreateInvoiceRequest struct {
	ID            string            `json:"id,omitempty" validate:"omitempty,max=64"`
	InvoiceNumber string            `json:"invoiceNumber,omitempty" validate:"omitempty,max=64"`
	DebtorID      string            `json:"debtorId" validate:"required,max=64"`
	BusinessID    string            `json:"businessId,omitempty" validate:"omitempty,max=64"`
	Currency      string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	StartDate     time.Time         `json:"startDate"`
	EndDate       time.Time         `json:"endDate" validate:"required"`
	Notes         string            `json:"notes,omitempty"`
	LineItems     []LineItemRequest `json:"lineItems" validate:"required,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status models.InvoiceStatus `json:"status" validate:"required,oneof=PENDING PAID OVERDUE"`
}

// InvoiceQuery selects, orders and filters the enriched invoice list.
type InvoiceQuery struct {
	Filter reporting.Filter
	Sort   reporting.SortField
	Order  reporting.SortOrder
}

type DashboardStats struct {
	Summary reporting.SummaryStats   `json:"summary"`
	Monthly []reporting.MonthlyTotal `json:"monthly"`
}

func NewInvoiceService(s store.Store, directories *DirectoryService, currency string) *InvoiceService {
	return &InvoiceService{
		store:       s,
		directories: directories,
		currency:    strings.ToUpper(currency),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvoice registers a new PENDING invoice owned by ownerID.
func (s *InvoiceService) CreateInvoice(ctx context.Context, ownerID string, req *CreateInvoiceRequest) (*models.Invoice, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := s.now()
	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = now
	}
	if req.EndDate.Before(startDate) {
		return nil, &ledger.StructuralError{Record: "invoice", ID: req.ID, Field: "endDate", Reason: "must not be before startDate"}
	}

	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		generated, err := utils.GenerateInvoiceNumber(now)
		if err != nil {
			return nil, fmt.Errorf("failed to generate invoice number: %w", err)
		}
		number = generated
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.currency
	}

	invoice := &models.Invoice{
		BaseModel:     models.BaseModel{ID: strings.TrimSpace(req.ID)},
		InvoiceNumber: number,
		OwnerID:       utils.NormalizeParty(ownerID),
		DebtorID:      utils.NormalizeParty(req.DebtorID),
		BusinessID:    req.BusinessID,
		Status:        models.InvoiceStatusPending,
		Currency:      currency,
		StartDate:     startDate,
		EndDate:       req.EndDate,
		Notes:         req.Notes,
		LineItems:     make([]models.LineItem, 0, len(req.LineItems)),
	}
	for _, item := range req.LineItems {
		invoice.LineItems = append(invoice.LineItems, models.LineItem{ProductID: strings.TrimSpace(item.ProductID), Quantity: item.Quantity})
	}
	if err := ledger.ValidateLineItems(invoice.ID, invoice.LineItems); err != nil {
		return nil, err
	}

	if ledger.SameParty(invoice.OwnerID, invoice.DebtorID) {
		return nil, &ledger.StructuralError{Record: "invoice", ID: invoice.ID, Field: "debtorId", Reason: "must differ from the owner"}
	}

	for _, item := range invoice.LineItems {
		if _, err := s.store.GetProduct(ctx, item.ProductID); errors.Is(err, store.ErrNotFound) {
			logrus.WithFields(logrus.Fields{"product_id": item.ProductID, "owner": invoice.OwnerID}).
				Warn("Invoice line item references unknown product")
		}
	}

	if err := s.store.CreateInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"invoice_id":     invoice.ID,
		"invoice_number": invoice.InvoiceNumber,
		"owner":          invoice.OwnerID,
	}).Info("Invoice created")
	return invoice, nil
}

// GetInvoice returns one invoice joined with its value, counterparties and
// ownership summary.
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*reporting.EnrichedInvoice, error) {
	invoice, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	nodes, err := s.store.ListNodesByAsset(ctx, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}
	dirs, err := s.directories.Directories(ctx)
	if err != nil {
		return nil, err
	}

	views := reporting.Enrich([]models.Invoice{*invoice}, nodes, dirs)
	logMissing(views)
	return &views[0], nil
}

// ListInvoices enriches every invoice, then filters and sorts the result.
// Pagination is left to the caller.
func (s *InvoiceService) ListInvoices(ctx context.Context, q InvoiceQuery) ([]reporting.EnrichedInvoice, error) {
	views, err := s.enrichAll(ctx)
	if err != nil {
		return nil, err
	}
	views = reporting.FilterInvoices(views, q.Filter)
	sortField := q.Sort
	if sortField == "" {
		sortField = reporting.SortByCreatedAt
	}
	return reporting.SortInvoices(views, sortField, q.Order), nil
}

func (s *InvoiceService) ValueInvoice(ctx context.Context, id string) (*ledger.Valuation, error) {
	invoice, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	valuation := ledger.Valuate(invoice.LineItems, ledger.PriceTableFromProducts(products))
	if len(valuation.Missing) > 0 {
		logrus.WithFields(logrus.Fields{"invoice_id": id, "missing": valuation.Missing}).Warn("Invoice priced with unknown products")
	}
	return &valuation, nil
}

// UpdateStatus moves an invoice through PENDING → PAID | OVERDUE and
// OVERDUE → PAID. Repeating the current status refreshes updatedAt.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id string, to models.InvoiceStatus) (*models.Invoice, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("validation failed: unknown status %q", to)
	}

	current, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, &InvalidTransitionError{From: current.Status, To: to}
	}

	updated, err := s.store.SetInvoiceStatus(ctx, id, current.Status, to, s.now())
	if err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			return nil, ledger.ErrConflict
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"invoice_id": id, "from": current.Status, "to": to}).Info("Invoice status updated")
	return updated, nil
}

// MarkOverdue flags every PENDING invoice whose end date has passed and
// returns how many were updated.
func (s *InvoiceService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.store.ListOverdueCandidates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue candidates: %w", err)
	}

	marked := 0
	for _, inv := range candidates {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		_, err := s.store.SetInvoiceStatus(ctx, inv.ID, models.InvoiceStatusPending, models.InvoiceStatusOverdue, now)
		switch {
		case err == nil:
			marked++
		case errors.Is(err, store.ErrStaleStatus):
			// paid in the meantime
		default:
			return marked, fmt.Errorf("failed to mark invoice %s overdue: %w", inv.ID, err)
		}
	}

	metrics.RecordOverdue(marked)
	if marked > 0 {
		logrus.WithField("count", marked).Info("Invoices marked overdue")
	}
	return marked, nil
}

// Stats summarizes the invoices matching f.
func (s *InvoiceService) Stats(ctx context.Context, f reporting.Filter) (*DashboardStats, error) {
	views, err := s.enrichAll(ctx)
	if err != nil {
		return nil, err
	}
	views = reporting.FilterInvoices(views, f)
	return &DashboardStats{
		Summary: reporting.ComputeSummaryStats(views),
		Monthly: reporting.MonthlyTotals(views),
	}, nil
}

func (s *InvoiceService) enrichAll(ctx context.Context) ([]reporting.EnrichedInvoice, error) {
	invoices, err := s.store.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	nodes, err := s.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}
	dirs, err := s.directories.Directories(ctx)
	if err != nil {
		return nil, err
	}
	views := reporting.Enrich(invoices, nodes, dirs)
	logMissing(views)
	return views, nil
}

func logMissing(views []reporting.EnrichedInvoice) {
	for i := range views {
		v := &views[i]
		if len(v.MissingProducts) > 0 {
			logrus.WithFields(logrus.Fields{"invoice_id": v.ID, "missing": v.MissingProducts}).Debug("Invoice references unknown products")
		}
		if v.Owner == nil || v.Debtor == nil {
			logrus.WithField("invoice_id", v.ID).Debug("Invoice counterparty not in directory")
		}
	}
}
