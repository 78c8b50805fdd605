// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")

	// ErrStaleStatus is returned when an invoice left the expected status
	// before a conditional status update ran.
	ErrStaleStatus = errors.New("invoice status changed concurrently")
)

type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	UpsertInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
	// SetInvoiceStatus moves an invoice from one status to another only if
	// it is still in the from status.
	SetInvoiceStatus(ctx context.Context, id string, from, to models.InvoiceStatus, at time.Time) (*models.Invoice, error)
	// ListOverdueCandidates returns PENDING invoices whose end date is
	// before now.
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]models.Invoice, error)
}

// DirectoryStore holds the counterparty directories. Users and businesses
// can be looked up by id or wallet address.
type DirectoryStore interface {
	UpsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, key string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	UpsertBusiness(ctx context.Context, b *models.Business) error
	GetBusiness(ctx context.Context, key string) (*models.Business, error)
	ListBusinesses(ctx context.Context) ([]models.Business, error)

	UpsertProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// ShareStore persists the append-only share ledger.
type ShareStore interface {
	GetNode(ctx context.Context, id string) (*models.ShareNode, error)
	ListNodesByAsset(ctx context.Context, assetID string) ([]models.ShareNode, error)
	ListNodes(ctx context.Context) ([]models.ShareNode, error)
	// CreateRoot fails with ledger.ErrDuplicateRoot if the asset already
	// has a root.
	CreateRoot(ctx context.Context, root *models.ShareNode) error
	// AppendSplit stores plan.Node and the root's new remaining percentage
	// atomically. It fails with ledger.ErrConflict when the root version
	// no longer matches plan.ExpectedVersion.
	AppendSplit(ctx context.Context, plan *ledger.SplitPlan) error
	// ImportNode stores a node read from a legacy feed as-is.
	ImportNode(ctx context.Context, node *models.ShareNode) error
}

type Store interface {
	InvoiceStore
	DirectoryStore
	ShareStore
}
