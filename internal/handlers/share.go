// internal/handlers/share.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/javajoker/coral-ledger/internal/i18n"
	"github.com/javajoker/coral-ledger/internal/services"
	"github.com/javajoker/coral-ledger/internal/utils"
)

type ShareHandler struct {
	shareService *services.ShareService
}

type validatePurchaseRequest struct {
	Percentage decimal.Decimal `json:"percentage"`
	BuyerID    string          `json:"buyerId,omitempty"`
}

func NewShareHandler(shareService *services.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

// GET /assets/:id/shares
func (h *ShareHandler) GetAssetShares(c *gin.Context) {
	assetLedger, err := h.shareService.AssetShares(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.SuccessResponse(c, assetLedger)
}

// GET /assets/:id/shares/integrity
func (h *ShareHandler) GetIntegrity(c *gin.Context) {
	report, err := h.shareService.Integrity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.SuccessResponse(c, report)
}

// POST /assets/:id/shares/root
func (h *ShareHandler) MintRoot(c *gin.Context) {
	owner, ok := callerWallet(c)
	if !ok {
		return
	}
	var req services.MintRootRequest
	if !bindJSON(c, &req) {
		return
	}

	root, err := h.shareService.MintRoot(c.Request.Context(), c.Param("id"), owner, &req)
	if err != nil {
		respondError(c, err, "invoice")
		return
	}
	utils.CreatedResponse(c, root)
}

// GET /shares/:id
func (h *ShareHandler) GetShare(c *gin.Context) {
	node, err := h.shareService.GetNode(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "share")
		return
	}
	utils.SuccessResponse(c, node)
}

// GET /shares/:id/quote?percentage=
func (h *ShareHandler) GetQuote(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	requested, err := decimal.NewFromString(c.Query("percentage"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "percentage"), nil)
		return
	}

	buyer, _ := utils.GetWalletFromContext(c)
	quote, err := h.shareService.Quote(c.Request.Context(), c.Param("id"), buyer, requested)
	if err != nil {
		respondError(c, err, "share")
		return
	}
	utils.SuccessResponse(c, quote)
}

// POST /shares/:id/validate checks a purchase without executing it. The
// buyer defaults to the caller and is required.
func (h *ShareHandler) ValidatePurchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	var req validatePurchaseRequest
	if !bindJSON(c, &req) {
		return
	}

	buyer := strings.TrimSpace(req.BuyerID)
	if buyer == "" {
		buyer, _ = utils.GetWalletFromContext(c)
	}
	// without a buyer the self-trade rule cannot be checked
	if buyer == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "buyerId"), nil)
		return
	}

	if err := h.shareService.ValidatePurchase(c.Request.Context(), c.Param("id"), buyer, req.Percentage); err != nil {
		respondError(c, err, "share")
		return
	}
	utils.SuccessResponse(c, gin.H{
		"allowed": true,
		"message": i18n.T(lang, i18n.KeySharePurchaseAllowed),
	})
}

// POST /shares/:id/purchase
func (h *ShareHandler) Purchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	buyer, ok := callerWallet(c)
	if !ok {
		return
	}
	var req services.PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.shareService.Purchase(c.Request.Context(), c.Param("id"), buyer, &req)
	if err != nil {
		respondError(c, err, "share")
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeySharePurchased),
		"share":         result.Node,
		"rootRemaining": result.RootRemaining,
	})
}
