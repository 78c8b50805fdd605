// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/coral-ledger/internal/config"
	"github.com/javajoker/coral-ledger/internal/models"
	"github.com/javajoker/coral-ledger/internal/utils"
)

// IntentGateway is the part of the Stripe PaymentIntent API the service
// uses. *paymentintent.Client satisfies it.
type IntentGateway interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type PaymentService struct {
	gateway  IntentGateway
	shares   *ShareService
	invoices *InvoiceService
	currency string
}

type ShareIntentRequest struct {
	Percentage decimal.Decimal `json:"percentage"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

type PaymentIntentResponse struct {
	ClientSecret string          `json:"clientSecret"`
	PaymentID    string          `json:"paymentId"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Quote        *Quote          `json:"quote,omitempty"`
}

// NewPaymentService wires Stripe when a secret key is configured. Without
// one every payment operation returns ErrPaymentsDisabled.
func NewPaymentService(cfg config.PaymentConfig, shares *ShareService, invoices *InvoiceService) *PaymentService {
	var gateway IntentGateway
	if cfg.StripeSecretKey != "" {
		gateway = &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.StripeSecretKey}
	}
	return NewPaymentServiceWithGateway(gateway, cfg.Currency, shares, invoices)
}

func NewPaymentServiceWithGateway(gateway IntentGateway, currency string, shares *ShareService, invoices *InvoiceService) *PaymentService {
	currency = strings.ToLower(currency)
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		gateway:  gateway,
		shares:   shares,
		invoices: invoices,
		currency: currency,
	}
}

func (s *PaymentService) Enabled() bool {
	return s.gateway != nil
}

// CreateShareIntent opens a PaymentIntent for buying part of a share node
// at its current quote. Repeating the same request while the ledger is
// unchanged returns the same intent.
func (s *PaymentService) CreateShareIntent(ctx context.Context, nodeID, buyer string, req *ShareIntentRequest) (*PaymentIntentResponse, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}

	buyer = utils.NormalizeParty(buyer)
	quote, err := s.shares.Quote(ctx, nodeID, buyer, req.Percentage)
	if err != nil {
		return nil, err
	}
	if !quote.Price.IsPositive() {
		return nil, fmt.Errorf("validation failed: share price %s is not payable", quote.Price)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(quote.Price)),
		Currency: stripe.String(s.currency),
	}
	params.AddMetadata("kind", "share_purchase")
	params.AddMetadata("node_id", quote.NodeID)
	params.AddMetadata("buyer", buyer)
	params.AddMetadata("percentage", quote.Percentage.String())
	params.SetIdempotencyKey(utils.IdempotencyKey("share", quote.NodeID, buyer, quote.Percentage.String(), quote.RootRemaining.String()))

	pi, err := s.gateway.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"payment_id": pi.ID,
		"node_id":    quote.NodeID,
		"buyer":      buyer,
		"amount":     quote.Price.String(),
	}).Info("Share payment intent created")

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
		Amount:       quote.Price,
		Currency:     s.currency,
		Quote:        quote,
	}, nil
}

// CreateInvoiceIntent opens a PaymentIntent for the full value of an
// unpaid invoice.
func (s *PaymentService) CreateInvoiceIntent(ctx context.Context, invoiceID, payer string) (*PaymentIntentResponse, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}

	invoice, err := s.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.Unpaid() {
		return nil, &InvalidTransitionError{From: invoice.Status, To: models.InvoiceStatusPaid}
	}
	if !invoice.TotalValue.IsPositive() {
		return nil, fmt.Errorf("validation failed: invoice %s has no payable value", invoice.ID)
	}

	currency := strings.ToLower(invoice.Currency)
	if currency == "" {
		currency = s.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(invoice.TotalValue)),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("kind", "invoice_payment")
	params.AddMetadata("invoice_id", invoice.ID)
	params.AddMetadata("payer", utils.NormalizeParty(payer))
	params.SetIdempotencyKey(utils.IdempotencyKey("invoice", invoice.ID, invoice.TotalValue.String()))

	pi, err := s.gateway.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
		Amount:       invoice.TotalValue,
		Currency:     currency,
	}, nil
}

// ConfirmInvoicePayment marks the invoice PAID once its PaymentIntent has
// succeeded.
func (s *PaymentService) ConfirmInvoicePayment(ctx context.Context, invoiceID string, req *ConfirmPaymentRequest) (*models.Invoice, error) {
	if !s.Enabled() {
		return nil, ErrPaymentsDisabled
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pi, err := s.gateway.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	if ref, ok := pi.Metadata["invoice_id"]; ok && ref != invoiceID {
		return nil, fmt.Errorf("validation failed: payment intent %s belongs to invoice %s", pi.ID, ref)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		logrus.WithFields(logrus.Fields{"invoice_id": invoiceID, "payment_id": pi.ID, "status": pi.Status}).
			Info("Invoice payment not settled")
		return nil, fmt.Errorf("%w: intent is %s", ErrPaymentNotSettled, pi.Status)
	}

	invoice, err := s.invoices.UpdateStatus(ctx, invoiceID, models.InvoiceStatusPaid)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"invoice_id": invoiceID, "payment_id": pi.ID}).Info("Invoice payment confirmed")
	return invoice, nil
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
