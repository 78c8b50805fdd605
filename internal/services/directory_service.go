// internal/services/directory_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coral-ledger/internal/models"
	"github.com/javajoker/coral-ledger/internal/reporting"
	"github.com/javajoker/coral-ledger/internal/store"
	"github.com/javajoker/coral-ledger/internal/utils"
)

type DirectoryService struct {
	store store.DirectoryStore
}

type UpsertUserRequest struct {
	ID      string          `json:"id,omitempty" validate:"omitempty,max=64"`
	Address string          `json:"address" validate:"required,wallet"`
	Alias   string          `json:"alias,omitempty" validate:"omitempty,max=100"`
	Name    string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Type    models.UserType `json:"type" validate:"required,oneof=individual business"`
	Email   string          `json:"email,omitempty" validate:"omitempty,email"`
}

type UpsertBusinessRequest struct {
	ID                 string   `json:"id,omitempty" validate:"omitempty,max=64"`
	BusinessName       string   `json:"businessName" validate:"required,min=2,max=255"`
	WalletAddress      string   `json:"walletAddress,omitempty" validate:"omitempty,wallet"`
	RegistrationNumber string   `json:"registrationNumber,omitempty" validate:"omitempty,max=100"`
	Country            string   `json:"country,omitempty" validate:"omitempty,len=2"`
	Categories         []string `json:"categories,omitempty"`
}

type UpsertProductRequest struct {
	ID          string             `json:"id,omitempty" validate:"omitempty,max=64"`
	ProductName string             `json:"productName" validate:"required,min=2,max=255"`
	ProductType models.ProductType `json:"productType" validate:"required,oneof=product service"`
	Price       decimal.Decimal    `json:"price" validate:"gte=0"`
	BusinessID  string             `json:"businessId,omitempty" validate:"omitempty,max=64"`
	Description string             `json:"description,omitempty"`
}

func NewDirectoryService(s store.DirectoryStore) *DirectoryService {
	return &DirectoryService{store: s}
}

func (s *DirectoryService) UpsertUser(ctx context.Context, req *UpsertUserRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	address, err := utils.ChecksumAddress(req.Address)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		BaseModel: models.BaseModel{ID: strings.TrimSpace(req.ID)},
		Address:   address,
		Alias:     strings.TrimSpace(req.Alias),
		Name:      strings.TrimSpace(req.Name),
		Type:      req.Type,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
	}

	// re-registering a known wallet updates the existing profile
	if user.ID == "" {
		if existing, err := s.store.GetUser(ctx, address); err == nil {
			user.ID = existing.ID
			user.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
	}

	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return user, nil
}

// GetUser resolves key as a user id or a wallet address.
func (s *DirectoryService) GetUser(ctx context.Context, key string) (*models.User, error) {
	return s.store.GetUser(ctx, utils.NormalizeParty(key))
}

func (s *DirectoryService) ListUsers(ctx context.Context, userType models.UserType) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if userType == "" {
		return users, nil
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Type == userType {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *DirectoryService) UpsertBusiness(ctx context.Context, req *UpsertBusinessRequest) (*models.Business, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	business := &models.Business{
		BaseModel:          models.BaseModel{ID: strings.TrimSpace(req.ID)},
		BusinessName:       strings.TrimSpace(req.BusinessName),
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		Country:            strings.ToUpper(req.Country),
		KYBStatus:          models.KYBStatusPending,
		Categories:         req.Categories,
	}
	if req.WalletAddress != "" {
		wallet, err := utils.ChecksumAddress(req.WalletAddress)
		if err != nil {
			return nil, err
		}
		business.WalletAddress = wallet
	}

	if business.ID != "" {
		existing, err := s.store.GetBusiness(ctx, business.ID)
		switch {
		case err == nil:
			business.KYBStatus = existing.KYBStatus
			business.CreatedAt = existing.CreatedAt
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("failed to look up business: %w", err)
		}
	}

	if err := s.store.UpsertBusiness(ctx, business); err != nil {
		return nil, fmt.Errorf("failed to save business: %w", err)
	}
	return business, nil
}

func (s *DirectoryService) GetBusiness(ctx context.Context, key string) (*models.Business, error) {
	return s.store.GetBusiness(ctx, utils.NormalizeParty(key))
}

func (s *DirectoryService) ListBusinesses(ctx context.Context) ([]models.Business, error) {
	businesses, err := s.store.ListBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return businesses, nil
}

func (s *DirectoryService) UpsertProduct(ctx context.Context, req *UpsertProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.BusinessID != "" {
		if _, err := s.store.GetBusiness(ctx, req.BusinessID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logrus.WithField("business_id", req.BusinessID).Warn("Product references unknown business")
			} else {
				return nil, fmt.Errorf("failed to look up business: %w", err)
			}
		}
	}

	product := &models.Product{
		BaseModel:   models.BaseModel{ID: strings.TrimSpace(req.ID)},
		ProductName: strings.TrimSpace(req.ProductName),
		ProductType: req.ProductType,
		Price:       req.Price.Round(2),
		BusinessID:  req.BusinessID,
		Description: req.Description,
	}
	if err := s.store.UpsertProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return product, nil
}

func (s *DirectoryService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.store.GetProduct(ctx, strings.TrimSpace(id))
}

func (s *DirectoryService) ListProducts(ctx context.Context, businessID string) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if businessID == "" {
		return products, nil
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.BusinessID == businessID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Directories loads the three directories the reporting layer joins
// invoices against.
func (s *DirectoryService) Directories(ctx context.Context) (reporting.Directories, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return reporting.Directories{}, fmt.Errorf("failed to load users: %w", err)
	}
	businesses, err := s.store.ListBusinesses(ctx)
	if err != nil {
		return reporting.Directories{}, fmt.Errorf("failed to load businesses: %w", err)
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return reporting.Directories{}, fmt.Errorf("failed to load products: %w", err)
	}
	return reporting.NewDirectories(users, businesses, products), nil
}
