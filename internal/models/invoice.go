// internal/models/invoice.go
package models

import (
	"time"
)

// Invoice is the root claim that ownership shares trace back to.
type Invoice struct {
	BaseModel
	InvoiceNumber string        `json:"invoiceNumber,omitempty" gorm:"size:64;index"`
	OwnerID       string        `json:"ownerId" gorm:"size:64;not null;index"`
	DebtorID      string        `json:"debtorId" gorm:"size:64;not null;index"`
	BusinessID    string        `json:"businessId,omitempty" gorm:"type:varchar(64);index"`
	Status        InvoiceStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Currency      string        `json:"currency,omitempty" gorm:"size:3;default:'USD'"`
	StartDate     time.Time     `json:"startDate"`
	EndDate       time.Time     `json:"endDate" gorm:"index"`
	Notes         string        `json:"notes,omitempty" gorm:"type:text"`

	LineItems []LineItem `json:"lineItems" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

type LineItem struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	InvoiceID string `json:"-" gorm:"type:varchar(64);not null;index"`
	Position  int    `json:"-" gorm:"not null;default:0"`
	ProductID string `json:"productId" gorm:"type:varchar(64);not null"`
	Quantity  int    `json:"quantity" gorm:"not null"`
}
