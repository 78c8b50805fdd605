// internal/models/product.go
package models

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog entry used to price invoice line items.
type Product struct {
	BaseModel
	ProductName string          `json:"productName" gorm:"size:255;not null"`
	ProductType ProductType     `json:"productType" gorm:"type:varchar(20);not null;default:'product'"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null"`
	BusinessID  string          `json:"businessId,omitempty" gorm:"type:varchar(64);index"`
	Description string          `json:"description,omitempty" gorm:"type:text"`
}
