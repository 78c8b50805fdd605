// internal/handlers/errors.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coral-ledger/internal/i18n"
	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/services"
	"github.com/javajoker/coral-ledger/internal/store"
	"github.com/javajoker/coral-ledger/internal/utils"
)

var purchaseMessages = map[ledger.PurchaseErrorKind]string{
	ledger.KindNotFound:          i18n.KeyShareNotFound,
	ledger.KindInvalidAmount:     i18n.KeyShareInvalidAmount,
	ledger.KindInsufficientShare: i18n.KeyShareInsufficient,
	ledger.KindSelfTrade:         i18n.KeyShareSelfTrade,
}

// respondError maps service errors onto the API envelope. resource names
// the i18n prefix used for not-found messages.
func respondError(c *gin.Context, err error, resource string) {
	lang := utils.GetLangFromContext(c)

	if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if pe, ok := ledger.AsPurchaseError(err); ok {
		utils.PurchaseRejectedResponse(c, string(pe.Kind), pe.NodeID, i18n.T(lang, purchaseMessages[pe.Kind]))
		return
	}

	var transition *services.InvalidTransitionError
	if errors.As(err, &transition) {
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyInvoiceInvalidTransition, transition.From, transition.To), false)
		return
	}

	var structural *ledger.StructuralError
	if errors.As(err, &structural) {
		utils.BadRequestResponse(c, err.Error(), gin.H{"field": structural.Field})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, store.ErrDuplicate):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyInvoiceExists), false)
	case errors.Is(err, ledger.ErrConflict):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyShareConflict), true)
	case errors.Is(err, ledger.ErrDuplicateRoot):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyShareDuplicateRoot), false)
	case errors.Is(err, ledger.ErrZeroShare):
		utils.UnprocessableResponse(c, "MALFORMED_SHARE", i18n.T(lang, i18n.KeyShareMalformed), nil)
	case errors.Is(err, services.ErrNotAssetOwner):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyShareNotOwner))
	case errors.Is(err, services.ErrPaymentsDisabled):
		utils.ServiceUnavailableResponse(c, i18n.T(lang, i18n.KeyPaymentDisabled))
	case errors.Is(err, services.ErrExportDisabled):
		utils.ServiceUnavailableResponse(c, i18n.T(lang, i18n.KeyExportDisabled))
	case errors.Is(err, services.ErrPaymentNotSettled):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPaymentNotSettled), true)
	case errors.Is(err, utils.ErrInvalidAddress):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationWallet), nil)
	case strings.HasPrefix(err.Error(), "validation failed"):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).Error("Request failed")
		_ = c.Error(err)
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes and validates the request body, answering the request
// itself when that fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func callerWallet(c *gin.Context) (string, bool) {
	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return wallet, ok
}
