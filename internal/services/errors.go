// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/javajoker/coral-ledger/internal/models"
)

var (
	// ErrNotAssetOwner is returned when someone other than the invoice
	// owner tries to open the first sale of an asset.
	ErrNotAssetOwner = errors.New("caller does not own the asset")

	ErrPaymentsDisabled = errors.New("payments are not configured")

	// ErrPaymentNotSettled is returned when a payment intent exists but has
	// not succeeded yet.
	ErrPaymentNotSettled = errors.New("payment has not succeeded")
)

// InvalidTransitionError rejects a payment-status change the invoice
// lifecycle does not allow.
type InvalidTransitionError struct {
	From models.InvoiceStatus
	To   models.InvoiceStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invoice cannot move from %s to %s", e.From, e.To)
}

func IsInvalidTransition(err error) bool {
	var te *InvalidTransitionError
	return errors.As(err, &te)
}
