// internal/reporting/directory.go
package reporting

import (
	"strings"

	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/models"
)

// UserDirectory resolves users by id or wallet address.
type UserDirectory struct {
	byID      map[string]models.User
	byAddress map[string]models.User
}

func NewUserDirectory(users []models.User) *UserDirectory {
	d := &UserDirectory{
		byID:      make(map[string]models.User, len(users)),
		byAddress: make(map[string]models.User, len(users)),
	}
	for _, u := range users {
		if u.ID != "" {
			d.byID[u.ID] = u
		}
		if u.Address != "" {
			d.byAddress[addressKey(u.Address)] = u
		}
	}
	return d
}

func (d *UserDirectory) Lookup(key string) (models.User, bool) {
	if d == nil || key == "" {
		return models.User{}, false
	}
	if u, ok := d.byID[key]; ok {
		return u, true
	}
	u, ok := d.byAddress[addressKey(key)]
	return u, ok
}

// BusinessDirectory resolves businesses by id or wallet address.
type BusinessDirectory struct {
	byID     map[string]models.Business
	byWallet map[string]models.Business
}

func NewBusinessDirectory(businesses []models.Business) *BusinessDirectory {
	d := &BusinessDirectory{
		byID:     make(map[string]models.Business, len(businesses)),
		byWallet: make(map[string]models.Business, len(businesses)),
	}
	for _, b := range businesses {
		if b.ID != "" {
			d.byID[b.ID] = b
		}
		if b.WalletAddress != "" {
			d.byWallet[addressKey(b.WalletAddress)] = b
		}
	}
	return d
}

func (d *BusinessDirectory) Lookup(key string) (models.Business, bool) {
	if d == nil || key == "" {
		return models.Business{}, false
	}
	if b, ok := d.byID[key]; ok {
		return b, true
	}
	b, ok := d.byWallet[addressKey(key)]
	return b, ok
}

// Directories bundles the lookups enrichment joins against.
type Directories struct {
	Users      *UserDirectory
	Businesses *BusinessDirectory
	Prices     ledger.PriceTable
}

func NewDirectories(users []models.User, businesses []models.Business, products []models.Product) Directories {
	return Directories{
		Users:      NewUserDirectory(users),
		Businesses: NewBusinessDirectory(businesses),
		Prices:     ledger.PriceTableFromProducts(products),
	}
}

func addressKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
