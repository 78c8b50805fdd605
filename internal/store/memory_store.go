// internal/store/memory_store.go
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/models"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// feed-only mode of the server. Records are copied on the way in and out.
type MemoryStore struct {
	mu sync.RWMutex

	invoices   map[string]*models.Invoice
	invoiceIDs []string

	users       map[string]*models.User
	userIDs     []string
	businesses  map[string]*models.Business
	businessIDs []string
	products    map[string]*models.Product
	productIDs  []string

	nodes   map[string]*models.ShareNode
	nodeIDs []string
	roots   map[string]string // asset id -> root node id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices:   make(map[string]*models.Invoice),
		users:      make(map[string]*models.User),
		businesses: make(map[string]*models.Business),
		products:   make(map[string]*models.Product),
		nodes:      make(map[string]*models.ShareNode),
		roots:      make(map[string]string),
	}
}

func copyInvoice(inv *models.Invoice) *models.Invoice {
	c := *inv
	c.LineItems = append([]models.LineItem(nil), inv.LineItems...)
	return &c
}

func copyBusiness(b *models.Business) *models.Business {
	c := *b
	c.Categories = append([]string(nil), b.Categories...)
	return &c
}

func touch(base *models.BaseModel, at time.Time) {
	if base.CreatedAt.IsZero() {
		base.CreatedAt = at
	}
	base.UpdatedAt = at
}

// Invoices

func (s *MemoryStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	inv.EnsureID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; ok {
		return ErrDuplicate
	}
	touch(&inv.BaseModel, time.Now().UTC())
	numberLineItems(inv)
	s.invoices[inv.ID] = copyInvoice(inv)
	s.invoiceIDs = append(s.invoiceIDs, inv.ID)
	return nil
}

func (s *MemoryStore) UpsertInvoice(ctx context.Context, inv *models.Invoice) error {
	inv.EnsureID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.UpdatedAt.IsZero() {
		touch(&inv.BaseModel, time.Now().UTC())
	}
	numberLineItems(inv)
	if _, ok := s.invoices[inv.ID]; !ok {
		s.invoiceIDs = append(s.invoiceIDs, inv.ID)
	}
	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (s *MemoryStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyInvoice(inv), nil
}

func (s *MemoryStore) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Invoice, 0, len(s.invoiceIDs))
	for _, id := range s.invoiceIDs {
		out = append(out, *copyInvoice(s.invoices[id]))
	}
	return out, nil
}

func (s *MemoryStore) SetInvoiceStatus(ctx context.Context, id string, from, to models.InvoiceStatus, at time.Time) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	if inv.Status != from {
		return nil, ErrStaleStatus
	}
	inv.Status = to
	inv.UpdatedAt = at
	return copyInvoice(inv), nil
}

func (s *MemoryStore) ListOverdueCandidates(ctx context.Context, now time.Time) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Invoice, 0)
	for _, id := range s.invoiceIDs {
		inv := s.invoices[id]
		if inv.Status == models.InvoiceStatusPending && inv.EndDate.Before(now) {
			out = append(out, *copyInvoice(inv))
		}
	}
	return out, nil
}

// Directory

func (s *MemoryStore) UpsertUser(ctx context.Context, u *models.User) error {
	u.EnsureID()
	s.mu.Lock()
	defer s.mu.Unlock()
	touch(&u.BaseModel, time.Now().UTC())
	if _, ok := s.users[u.ID]; !ok {
		s.userIDs = append(s.userIDs, u.ID)
	}
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, key string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[key]; ok {
		c := *u
		return &c, nil
	}
	for _, id := range s.userIDs {
		if u := s.users[id]; strings.EqualFold(u.Address, key) {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.userIDs))
	for _, id := range s.userIDs {
		out = append(out, *s.users[id])
	}
	return out, nil
}

func (s *MemoryStore) UpsertBusiness(ctx context.Context, b *models.Business) error {
	b.EnsureID()
	s.mu.Lock()
	defer s.mu.Unlock()
	touch(&b.BaseModel, time.Now().UTC())
	if _, ok := s.businesses[b.ID]; !ok {
		s.businessIDs = append(s.businessIDs, b.ID)
	}
	s.businesses[b.ID] = copyBusiness(b)
	return nil
}

func (s *MemoryStore) GetBusiness(ctx context.Context, key string) (*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.businesses[key]; ok {
		return copyBusiness(b), nil
	}
	for _, id := range s.businessIDs {
		if b := s.businesses[id]; b.WalletAddress != "" && strings.EqualFold(b.WalletAddress, key) {
			return copyBusiness(b), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListBusinesses(ctx context.Context) ([]models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Business, 0, len(s.businessIDs))
	for _, id := range s.businessIDs {
		out = append(out, *copyBusiness(s.businesses[id]))
	}
	return out, nil
}

func (s *MemoryStore) UpsertProduct(ctx context.Context, p *models.Product) error {
	p.EnsureID()
	s.mu.Lock()
	defer s.mu.Unlock()
	touch(&p.BaseModel, time.Now().UTC())
	if _, ok := s.products[p.ID]; !ok {
		s.productIDs = append(s.productIDs, p.ID)
	}
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.productIDs))
	for _, id := range s.productIDs {
		out = append(out, *s.products[id])
	}
	return out, nil
}

// Share ledger

func (s *MemoryStore) GetNode(ctx context.Context, id string) (*models.ShareNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *n
	return &c, nil
}

func (s *MemoryStore) ListNodesByAsset(ctx context.Context, assetID string) ([]models.ShareNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ShareNode, 0)
	for _, id := range s.nodeIDs {
		if n := s.nodes[id]; n.AssetID == assetID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListNodes(ctx context.Context) ([]models.ShareNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ShareNode, 0, len(s.nodeIDs))
	for _, id := range s.nodeIDs {
		out = append(out, *s.nodes[id])
	}
	return out, nil
}

func (s *MemoryStore) insertNode(n *models.ShareNode) {
	c := *n
	s.nodes[n.ID] = &c
	s.nodeIDs = append(s.nodeIDs, n.ID)
	if n.IsRoot {
		s.roots[n.AssetID] = n.ID
	}
}

func (s *MemoryStore) CreateRoot(ctx context.Context, root *models.ShareNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roots[root.AssetID]; ok {
		return ledger.ErrDuplicateRoot
	}
	if _, ok := s.nodes[root.ID]; ok {
		return ledger.ErrDuplicateRoot
	}
	s.insertNode(root)
	return nil
}

func (s *MemoryStore) AppendSplit(ctx context.Context, plan *ledger.SplitPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.nodes[plan.RootID]
	if !ok || !root.IsRoot || root.Version != plan.ExpectedVersion {
		return ledger.ErrConflict
	}
	if _, exists := s.nodes[plan.Node.ID]; exists {
		return ledger.ErrConflict
	}
	root.RemainingPercentage = plan.RootRemaining
	root.Version++
	s.insertNode(&plan.Node)
	return nil
}

func (s *MemoryStore) ImportNode(ctx context.Context, node *models.ShareNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node.IsRoot {
		if rootID, ok := s.roots[node.AssetID]; ok && rootID != node.ID {
			return ledger.ErrDuplicateRoot
		}
	}
	existing, ok := s.nodes[node.ID]
	if !ok {
		s.insertNode(node)
		return nil
	}

	// a re-import may move the node or change whether it is a root
	if existing.IsRoot && s.roots[existing.AssetID] == existing.ID {
		delete(s.roots, existing.AssetID)
	}
	*existing = *node
	if node.IsRoot {
		s.roots[node.AssetID] = node.ID
	}
	return nil
}
