// internal/handlers/invoice.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/coral-ledger/internal/i18n"
	"github.com/javajoker/coral-ledger/internal/models"
	"github.com/javajoker/coral-ledger/internal/reporting"
	"github.com/javajoker/coral-ledger/internal/services"
	"github.com/javajoker/coral-ledger/internal/utils"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	feedService    *services.FeedService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService, feedService *services.FeedService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		feedService:    feedService,
	}
}

// filterFromQuery reads the list filters. Unknown enum values are passed
// through and simply match nothing.
func filterFromQuery(c *gin.Context) reporting.Filter {
	f := reporting.Filter{
		BusinessID: c.Query("business_id"),
		Search:     c.Query("search"),
	}
	if status := c.Query("status"); status != "" {
		f.Status = models.InvoiceStatus(status)
	}
	if counterparty := c.Query("counterparty_type"); counterparty != "" {
		f.CounterpartyType = models.UserType(counterparty)
	}
	return f
}

func queryFromRequest(c *gin.Context, params utils.PaginationParams) (services.InvoiceQuery, bool) {
	sortField, ok := reporting.ParseSortField(params.Sort)
	if !ok {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "sort"), gin.H{
			"allowed": []reporting.SortField{reporting.SortByCreatedAt, reporting.SortByTotalValue, reporting.SortByEndDate},
		})
		return services.InvoiceQuery{}, false
	}
	return services.InvoiceQuery{
		Filter: filterFromQuery(c),
		Sort:   sortField,
		Order:  reporting.ParseSortOrder(params.Order),
	}, true
}

// GET /invoices
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	query, ok := queryFromRequest(c, params)
	if !ok {
		return
	}

	views, err := h.invoiceService.ListInvoices(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, "invoice")
		return
	}

	utils.PaginatedResponse(c, utils.Paginate(views, params))
}

// POST /invoices
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	owner, ok := callerWallet(c)
	if !ok {
		return
	}

	var req services.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), owner, &req)
	if err != nil {
		respondError(c, err, "invoice")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyInvoiceCreated),
		"invoice": invoice,
	})
}

// GET /invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	view, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.SuccessResponse(c, view)
}

// GET /invoices/:id/value
func (h *InvoiceHandler) GetInvoiceValue(c *gin.Context) {
	valuation, err := h.invoiceService.ValueInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.SuccessResponse(c, gin.H{
		"invoiceId":       c.Param("id"),
		"totalValue":      valuation.Total,
		"missingProducts": valuation.Missing,
	})
}

// PUT /invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	if _, ok := callerWallet(c); !ok {
		return
	}

	var req services.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.SuccessResponse(c, invoice)
}

// GET /invoices/stats
func (h *InvoiceHandler) GetStats(c *gin.Context) {
	stats, err := h.invoiceService.Stats(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.SuccessResponse(c, stats)
}

// POST /invoices/reports
func (h *InvoiceHandler) ExportReport(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	query, ok := queryFromRequest(c, params)
	if !ok {
		return
	}

	location, err := h.feedService.ExportReport(c.Request.Context(), query)
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.CreatedResponse(c, gin.H{"location": location})
}
