// internal/services/share_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coral-ledger/internal/config"
	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/metrics"
	"github.com/javajoker/coral-ledger/internal/models"
	"github.com/javajoker/coral-ledger/internal/store"
	"github.com/javajoker/coral-ledger/internal/utils"
)

type ShareService struct {
	store      store.Store
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

type MintRootRequest struct {
	SharePercentage decimal.Decimal `json:"sharePercentage" validate:"percentage"`
	Price           decimal.Decimal `json:"price" validate:"gte=0"`
}

// PurchaseRequest carries the percentage of the seller's node to buy. The
// amount rules are enforced by the ledger so they surface as rejections.
type PurchaseRequest struct {
	Percentage decimal.Decimal `json:"percentage"`
}

type Quote struct {
	NodeID             string          `json:"nodeId"`
	SellerID           string          `json:"sellerId"`
	Percentage         decimal.Decimal `json:"percentage"`
	AbsolutePercentage decimal.Decimal `json:"absolutePercentage"`
	Price              decimal.Decimal `json:"price"`
	RootRemaining      decimal.Decimal `json:"rootRemaining"`
}

type PurchaseResult struct {
	Node          models.ShareNode `json:"node"`
	RootRemaining decimal.Decimal  `json:"rootRemaining"`
	Attempts      int              `json:"attempts"`
}

// AssetLedger is every share node of one asset with its classification.
type AssetLedger struct {
	AssetID           string             `json:"assetId"`
	Nodes             []models.ShareNode `json:"nodes"`
	Hierarchy         ledger.Hierarchy   `json:"hierarchy"`
	Holdings          []ledger.Holding   `json:"holdings"`
	RemainingSellable decimal.Decimal    `json:"remainingSellable"`
}

func NewShareService(s store.Store, cfg config.LedgerConfig) *ShareService {
	retries := cfg.SplitMaxRetries
	if retries < 1 {
		retries = 1
	}
	return &ShareService{
		store:      s,
		maxRetries: retries,
		retryDelay: cfg.SplitRetryDelay,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MintRoot records the first sale of an asset. Only the invoice owner may
// open it, and an asset has at most one root.
func (s *ShareService) MintRoot(ctx context.Context, assetID, caller string, req *MintRootRequest) (*models.ShareNode, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	invoice, err := s.store.GetInvoice(ctx, assetID)
	if err != nil {
		return nil, err
	}
	owner, err := s.isAssetOwner(ctx, invoice, caller)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrNotAssetOwner
	}

	root, err := ledger.NewRoot(invoice.ID, utils.NormalizeParty(caller), req.SharePercentage, req.Price.Round(2), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRoot(ctx, root); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"asset_id": assetID,
		"root_id":  root.ID,
		"share":    root.SharePercentage.String(),
	}).Info("Root share created")
	return root, nil
}

// isAssetOwner matches caller against the invoice owner directly or via the
// owner's directory entry.
func (s *ShareService) isAssetOwner(ctx context.Context, invoice *models.Invoice, caller string) (bool, error) {
	if ledger.SameParty(invoice.OwnerID, caller) {
		return true, nil
	}
	user, err := s.store.GetUser(ctx, invoice.OwnerID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up asset owner: %w", err)
	}
	return ledger.SameParty(user.Address, caller) || ledger.SameParty(user.ID, caller), nil
}

func (s *ShareService) GetNode(ctx context.Context, id string) (*models.ShareNode, error) {
	return s.store.GetNode(ctx, strings.TrimSpace(id))
}

func (s *ShareService) AssetShares(ctx context.Context, assetID string) (*AssetLedger, error) {
	nodes, err := s.store.ListNodesByAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}
	if len(nodes) == 0 {
		// an asset without shares still has to exist
		if _, err := s.store.GetInvoice(ctx, assetID); err != nil {
			return nil, err
		}
	}
	return &AssetLedger{
		AssetID:           assetID,
		Nodes:             nodes,
		Hierarchy:         ledger.BuildHierarchy(assetID, nodes),
		Holdings:          ledger.OwnershipByHolder(assetID, nodes),
		RemainingSellable: ledger.RemainingSellable(assetID, nodes),
	}, nil
}

// ValidatePurchase applies the purchase rules of a single node without
// touching the ledger. A nil error means the request is acceptable.
func (s *ShareService) ValidatePurchase(ctx context.Context, nodeID, buyer string, requested decimal.Decimal) error {
	node, err := s.lookupNode(ctx, nodeID)
	if err != nil {
		return err
	}
	return ledger.ValidatePurchase(node, requested, buyer)
}

// Quote prices a purchase against the current ledger state.
func (s *ShareService) Quote(ctx context.Context, nodeID, buyer string, requested decimal.Decimal) (*Quote, error) {
	parent, root, err := s.loadForSplit(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	plan, err := ledger.PlanSplit(parent, root, ledger.SplitRequest{Percentage: requested, BuyerID: buyer, At: s.now()})
	if err != nil {
		return nil, err
	}
	return &Quote{
		NodeID:             parent.ID,
		SellerID:           parent.OwnerID,
		Percentage:         requested,
		AbsolutePercentage: plan.Absolute,
		Price:              plan.Node.Price,
		RootRemaining:      plan.RootRemaining,
	}, nil
}

// Purchase splits requested percent of nodeID off to buyer. Conflicting
// concurrent purchases are retried against fresh state; once the retries
// run out ledger.ErrConflict is returned.
func (s *ShareService) Purchase(ctx context.Context, nodeID, buyer string, req *PurchaseRequest) (*PurchaseResult, error) {
	start := time.Now()
	buyer = utils.NormalizeParty(buyer)

	var (
		plan     *ledger.SplitPlan
		attempts int
	)
	operation := func() error {
		attempts++
		parent, root, err := s.loadForSplit(ctx, nodeID)
		if err != nil {
			return backoff.Permanent(err)
		}
		p, err := ledger.PlanSplit(parent, root, ledger.SplitRequest{Percentage: req.Percentage, BuyerID: buyer, At: s.now()})
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := s.store.AppendSplit(ctx, p); err != nil {
			if errors.Is(err, ledger.ErrConflict) {
				metrics.RecordSplitConflict()
				return err
			}
			return backoff.Permanent(err)
		}
		plan = p
		return nil
	}
	notify := func(err error, next time.Duration) {
		logrus.WithFields(logrus.Fields{
			"node_id":       nodeID,
			"attempt":       attempts,
			"next_retry_in": next,
		}).Info("Share purchase conflicted, retrying")
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(s.newBackOff(), ctx), notify)
	if err != nil {
		metrics.RecordSplit(splitOutcome(err), time.Since(start))
		if errors.Is(err, ledger.ErrConflict) {
			logrus.WithFields(logrus.Fields{"node_id": nodeID, "attempts": attempts}).Warn("Share purchase gave up after conflicts")
		}
		return nil, err
	}
	metrics.RecordSplit("ok", time.Since(start))

	logrus.WithFields(logrus.Fields{
		"node_id":  nodeID,
		"new_node": plan.Node.ID,
		"buyer":    buyer,
		"absolute": plan.Absolute.String(),
		"attempts": attempts,
	}).Info("Share purchased")

	return &PurchaseResult{Node: plan.Node, RootRemaining: plan.RootRemaining, Attempts: attempts}, nil
}

func (s *ShareService) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if s.retryDelay > 0 {
		b.InitialInterval = s.retryDelay
		b.MaxInterval = 20 * s.retryDelay
	}
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0.5 // spread competing buyers apart
	return backoff.WithMaxRetries(b, uint64(s.maxRetries))
}

func splitOutcome(err error) string {
	if pe, ok := ledger.AsPurchaseError(err); ok {
		return string(pe.Kind)
	}
	if errors.Is(err, ledger.ErrConflict) {
		return "conflict"
	}
	return "error"
}

// Integrity validates every node of the asset.
func (s *ShareService) Integrity(ctx context.Context, assetID string) (*ledger.AssetReport, error) {
	nodes, err := s.store.ListNodesByAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}
	if len(nodes) == 0 {
		if _, err := s.store.GetInvoice(ctx, assetID); err != nil {
			return nil, err
		}
	}
	report, err := ledger.ValidateAsset(assetID, nodes)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// IntegrityAll validates the ledger of every asset that has shares,
// ordered by asset id.
func (s *ShareService) IntegrityAll(ctx context.Context) ([]ledger.AssetReport, error) {
	nodes, err := s.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}
	groups := ledger.GroupByAsset(nodes)
	assetIDs := make([]string, 0, len(groups))
	for id := range groups {
		assetIDs = append(assetIDs, id)
	}
	sort.Strings(assetIDs)

	reports := make([]ledger.AssetReport, 0, len(assetIDs))
	for _, id := range assetIDs {
		report, err := ledger.ValidateAsset(id, groups[id])
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// lookupNode returns nil without error for unknown ids so the ledger can
// report them as not_found rejections.
func (s *ShareService) lookupNode(ctx context.Context, id string) (*models.ShareNode, error) {
	node, err := s.store.GetNode(ctx, strings.TrimSpace(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load share: %w", err)
	}
	return node, nil
}

func (s *ShareService) loadForSplit(ctx context.Context, nodeID string) (parent, root *models.ShareNode, err error) {
	parent, err = s.lookupNode(ctx, nodeID)
	if err != nil || parent == nil {
		if err == nil {
			err = ledger.ValidatePurchase(nil, decimal.Zero, "")
		}
		return nil, nil, err
	}
	if parent.IsRoot {
		return parent, parent, nil
	}
	root, err = s.lookupNode(ctx, parent.RootRef())
	if err != nil {
		return nil, nil, err
	}
	return parent, root, nil
}
