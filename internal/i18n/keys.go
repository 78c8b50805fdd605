// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"

	// Directory
	KeyUserNotFound     = "user.not_found"
	KeyBusinessNotFound = "business.not_found"
	KeyProductNotFound  = "product.not_found"

	// Invoices
	KeyInvoiceCreated           = "invoice.created"
	KeyInvoiceNotFound          = "invoice.not_found"
	KeyInvoiceExists            = "invoice.exists"
	KeyInvoiceInvalidTransition = "invoice.invalid_transition"
	KeyInvoiceStatusChanged     = "invoice.status_changed"

	// Shares
	KeyShareNotFound          = "share.not_found"
	KeyShareInvalidAmount     = "share.invalid_amount"
	KeyShareInsufficient      = "share.insufficient_share"
	KeyShareSelfTrade         = "share.self_trade"
	KeyShareConflict          = "share.conflict"
	KeyShareDuplicateRoot     = "share.duplicate_root"
	KeyShareMalformed         = "share.malformed"
	KeySharePurchased         = "share.purchased"
	KeySharePurchaseAllowed   = "share.purchase_allowed"
	KeyShareIntegrityViolated = "share.integrity_violated"
	KeyShareNotOwner          = "share.not_owner"

	// Payments
	KeyPaymentFailed      = "payment.failed"
	KeyPaymentPending     = "payment.pending"
	KeyPaymentDisabled    = "payment.disabled"
	KeyPaymentNotSettled  = "payment.not_settled"
	KeyPaymentWrongTarget = "payment.wrong_target"

	// Feeds
	KeyExportDisabled = "export.disabled"

	// Validation
	KeyValidationRequired   = "validation.required"
	KeyValidationInvalid    = "validation.invalid"
	KeyValidationPercentage = "validation.invalid_percentage"
	KeyValidationWallet     = "validation.invalid_wallet"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"
)
