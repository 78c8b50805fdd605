// internal/ledger/errors.go
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when the root's remaining percentage changed
	// between read and write. Callers retry with fresh state.
	ErrConflict = errors.New("concurrent update on root share")

	// ErrDuplicateRoot is returned when an asset already has a root node.
	ErrDuplicateRoot = errors.New("asset already has a root share")

	// ErrZeroShare guards pro-rata pricing against a zero share percentage.
	ErrZeroShare = errors.New("share percentage is zero")
)

type PurchaseErrorKind string

const (
	KindNotFound          PurchaseErrorKind = "not_found"
	KindInvalidAmount     PurchaseErrorKind = "invalid_amount"
	KindInsufficientShare PurchaseErrorKind = "insufficient_share"
	KindSelfTrade         PurchaseErrorKind = "self_trade"
)

// PurchaseError is a business-rule rejection of a share purchase.
type PurchaseError struct {
	Kind    PurchaseErrorKind
	NodeID  string
	Message string
}

func (e *PurchaseError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("purchase rejected (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("purchase of %s rejected (%s): %s", e.NodeID, e.Kind, e.Message)
}

func newPurchaseError(kind PurchaseErrorKind, nodeID, format string, args ...interface{}) *PurchaseError {
	return &PurchaseError{Kind: kind, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

// AsPurchaseError unwraps err into a PurchaseError when it is one.
func AsPurchaseError(err error) (*PurchaseError, bool) {
	var pe *PurchaseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// StructuralError reports a record that is missing a required field or is
// otherwise malformed. It is never defaulted away.
type StructuralError struct {
	Record string
	ID     string
	Field  string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed %s %q: %s %s", e.Record, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed %s: %s %s", e.Record, e.Field, e.Reason)
}

func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
