// internal/models/user.go
package models

import (
	"github.com/lib/pq"
)

// User is a counterparty directory entry keyed by id and wallet address.
type User struct {
	BaseModel
	Address string   `json:"address" gorm:"size:64;uniqueIndex;not null"`
	Alias   string   `json:"alias,omitempty" gorm:"size:100"`
	Name    string   `json:"name,omitempty" gorm:"size:255"`
	Type    UserType `json:"type" gorm:"type:varchar(20);not null;default:'individual'"`
	Email   string   `json:"email,omitempty" gorm:"size:255"`
}

// DisplayName prefers the alias, then the name, then the raw address.
func (u *User) DisplayName() string {
	switch {
	case u.Alias != "":
		return u.Alias
	case u.Name != "":
		return u.Name
	}
	return u.Address
}

type Business struct {
	BaseModel
	BusinessName       string         `json:"businessName" gorm:"size:255;not null"`
	WalletAddress      string         `json:"walletAddress,omitempty" gorm:"size:64;index"`
	RegistrationNumber string         `json:"registrationNumber,omitempty" gorm:"size:100"`
	Country            string         `json:"country,omitempty" gorm:"size:2"`
	KYBStatus          KYBStatus      `json:"kybStatus" gorm:"type:varchar(20);default:'pending'"`
	Categories         pq.StringArray `json:"categories,omitempty" gorm:"type:text[]"`
}
