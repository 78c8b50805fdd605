// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// The surrounding app reads amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base model with common fields. IDs are strings so records imported from
// the legacy feeds keep their original identifiers.
type BaseModel struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}

// EnsureID assigns a fresh UUID when the record has none.
func (b *BaseModel) EnsureID() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
}

// Enums
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// Unpaid reports whether the status counts as outstanding.
func (s InvoiceStatus) Unpaid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusOverdue
}

// CanTransitionTo reports whether a payment-status change is allowed.
// Setting the current status again only refreshes the timestamp.
func (s InvoiceStatus) CanTransitionTo(to InvoiceStatus) bool {
	if s == to {
		return s.Valid()
	}
	switch s {
	case InvoiceStatusPending:
		return to == InvoiceStatusPaid || to == InvoiceStatusOverdue
	case InvoiceStatusOverdue:
		return to == InvoiceStatusPaid
	}
	return false
}

type UserType string

const (
	UserTypeIndividual UserType = "individual"
	UserTypeBusiness   UserType = "business"
)

type ProductType string

const (
	ProductTypeProduct ProductType = "product"
	ProductTypeService ProductType = "service"
)

type KYBStatus string

const (
	KYBStatusPending  KYBStatus = "pending"
	KYBStatusApproved KYBStatus = "approved"
	KYBStatusRejected KYBStatus = "rejected"
)
