// internal/models/share.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShareNode is an ownership claim on a percentage of an invoice or of
// another node. Nodes are append-only; only the root's remaining
// percentage and version change after creation.
type ShareNode struct {
	ID                  string          `json:"id" gorm:"type:varchar(64);primaryKey"`
	AssetID             string          `json:"assetId" gorm:"type:varchar(64);not null;index"`
	ParentID            *string         `json:"parentId" gorm:"type:varchar(64);index"`
	RootID              *string         `json:"rootId,omitempty" gorm:"type:varchar(64);index"`
	IsRoot              bool            `json:"isRoot" gorm:"not null;default:false"`
	SharePercentage     decimal.Decimal `json:"sharePercentage" gorm:"type:decimal(9,4);not null"`
	RemainingPercentage decimal.Decimal `json:"remainingPercentage" gorm:"type:decimal(9,4);not null;default:0"`
	OwnerID             string          `json:"ownerId" gorm:"size:64;not null;index"`
	Price               decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null"`
	Version             int64           `json:"version" gorm:"not null;default:0"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// RootRef returns the id of the node's root, which is its own id for roots.
// Legacy records without rootId fall back to the parent.
func (n *ShareNode) RootRef() string {
	switch {
	case n.IsRoot:
		return n.ID
	case n.RootID != nil:
		return *n.RootID
	case n.ParentID != nil:
		return *n.ParentID
	}
	return ""
}
