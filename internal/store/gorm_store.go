// internal/store/gorm_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/coral-ledger/internal/database"
	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("database error: %w", err)
}

func numberLineItems(inv *models.Invoice) {
	for i := range inv.LineItems {
		inv.LineItems[i].ID = 0
		inv.LineItems[i].InvoiceID = inv.ID
		inv.LineItems[i].Position = i
	}
}

// Invoices

func (s *GormStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	inv.EnsureID()
	numberLineItems(inv)
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (s *GormStore) UpsertInvoice(ctx context.Context, inv *models.Invoice) error {
	inv.EnsureID()
	numberLineItems(inv)
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(inv).Error; err != nil {
			return fmt.Errorf("failed to upsert invoice %s: %w", inv.ID, err)
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("failed to replace line items of %s: %w", inv.ID, err)
		}
		if len(inv.LineItems) == 0 {
			return nil
		}
		if err := tx.Create(&inv.LineItems).Error; err != nil {
			return fmt.Errorf("failed to replace line items of %s: %w", inv.ID, err)
		}
		return nil
	})
}

func preloadLineItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (s *GormStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).Preload("LineItems", preloadLineItems).First(&inv, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *GormStore) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := s.db.WithContext(ctx).Preload("LineItems", preloadLineItems).
		Order("created_at ASC, id ASC").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

func (s *GormStore) SetInvoiceStatus(ctx context.Context, id string, from, to models.InvoiceStatus, at time.Time) (*models.Invoice, error) {
	db := s.db.WithContext(ctx)
	result := db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetInvoice(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleStatus
	}
	return s.GetInvoice(ctx, id)
}

func (s *GormStore) ListOverdueCandidates(ctx context.Context, now time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := s.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", models.InvoiceStatusPending, now).
		Order("end_date ASC").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to list overdue candidates: %w", err)
	}
	return invoices, nil
}

// Directory

func (s *GormStore) upsert(ctx context.Context, value interface{}) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

func (s *GormStore) UpsertUser(ctx context.Context, u *models.User) error {
	u.EnsureID()
	if err := s.upsert(ctx, u); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, key string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).
		Where("id = ? OR LOWER(address) = LOWER(?)", key, key).
		First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *GormStore) UpsertBusiness(ctx context.Context, b *models.Business) error {
	b.EnsureID()
	if err := s.upsert(ctx, b); err != nil {
		return fmt.Errorf("failed to upsert business %s: %w", b.ID, err)
	}
	return nil
}

func (s *GormStore) GetBusiness(ctx context.Context, key string) (*models.Business, error) {
	var b models.Business
	if err := s.db.WithContext(ctx).
		Where("id = ? OR LOWER(wallet_address) = LOWER(?)", key, key).
		First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *GormStore) ListBusinesses(ctx context.Context) ([]models.Business, error) {
	var businesses []models.Business
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&businesses).Error; err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return businesses, nil
}

func (s *GormStore) UpsertProduct(ctx context.Context, p *models.Product) error {
	p.EnsureID()
	if err := s.upsert(ctx, p); err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (s *GormStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Share ledger

func (s *GormStore) GetNode(ctx context.Context, id string) (*models.ShareNode, error) {
	var n models.ShareNode
	if err := s.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (s *GormStore) ListNodesByAsset(ctx context.Context, assetID string) ([]models.ShareNode, error) {
	var nodes []models.ShareNode
	if err := s.db.WithContext(ctx).Where("asset_id = ?", assetID).
		Order("created_at ASC, id ASC").Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("failed to list shares of %s: %w", assetID, err)
	}
	return nodes, nil
}

func (s *GormStore) ListNodes(ctx context.Context) ([]models.ShareNode, error) {
	var nodes []models.ShareNode
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return nodes, nil
}

func (s *GormStore) CreateRoot(ctx context.Context, root *models.ShareNode) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ShareNode{}).
			Where("asset_id = ? AND is_root = ?", root.AssetID, true).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check root of %s: %w", root.AssetID, err)
		}
		if count > 0 {
			return ledger.ErrDuplicateRoot
		}
		// the partial unique index catches a racing insert
		if err := tx.Create(root).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ledger.ErrDuplicateRoot
			}
			return fmt.Errorf("failed to create root share: %w", err)
		}
		return nil
	})
}

func (s *GormStore) AppendSplit(ctx context.Context, plan *ledger.SplitPlan) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		result := tx.Model(&models.ShareNode{}).
			Where("id = ? AND is_root = ? AND version = ?", plan.RootID, true, plan.ExpectedVersion).
			Updates(map[string]interface{}{
				"remaining_percentage": plan.RootRemaining,
				"version":              gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update root share: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ledger.ErrConflict
		}
		if err := tx.Create(&plan.Node).Error; err != nil {
			return fmt.Errorf("failed to create share: %w", err)
		}
		return nil
	})
}

func (s *GormStore) ImportNode(ctx context.Context, node *models.ShareNode) error {
	if err := s.upsert(ctx, node); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ledger.ErrDuplicateRoot
		}
		return fmt.Errorf("failed to import share %s: %w", node.ID, err)
	}
	return nil
}
