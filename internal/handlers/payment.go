// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/coral-ledger/internal/services"
	"github.com/javajoker/coral-ledger/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// POST /payments/shares/:id/intent
func (h *PaymentHandler) CreateShareIntent(c *gin.Context) {
	buyer, ok := callerWallet(c)
	if !ok {
		return
	}
	var req services.ShareIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	intent, err := h.paymentService.CreateShareIntent(c.Request.Context(), c.Param("id"), buyer, &req)
	if err != nil {
		respondError(c, err, "share")
		return
	}
	utils.CreatedResponse(c, intent)
}

// POST /payments/invoices/:id/intent
func (h *PaymentHandler) CreateInvoiceIntent(c *gin.Context) {
	payer, ok := callerWallet(c)
	if !ok {
		return
	}

	intent, err := h.paymentService.CreateInvoiceIntent(c.Request.Context(), c.Param("id"), payer)
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.CreatedResponse(c, intent)
}

// POST /payments/invoices/:id/confirm
func (h *PaymentHandler) ConfirmInvoicePayment(c *gin.Context) {
	if _, ok := callerWallet(c); !ok {
		return
	}
	var req services.ConfirmPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.paymentService.ConfirmInvoicePayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.SuccessResponse(c, invoice)
}
