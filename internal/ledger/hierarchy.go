// internal/ledger/hierarchy.go
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/javajoker/coral-ledger/internal/models"
)

type TreeNode struct {
	Node     models.ShareNode `json:"node"`
	Children []*TreeNode      `json:"children,omitempty"`
}

// Hierarchy classifies the nodes of one asset into its root tree, the
// derived (non-root) nodes and orphans whose parent is unknown.
type Hierarchy struct {
	AssetID           string             `json:"assetId"`
	Root              *TreeNode          `json:"root,omitempty"`
	Derived           []models.ShareNode `json:"derived"`
	Orphans           []models.ShareNode `json:"orphans,omitempty"`
	SoldPercentage    decimal.Decimal    `json:"soldPercentage"`
	RemainingSellable decimal.Decimal    `json:"remainingSellable"`
}

func BuildHierarchy(assetID string, nodes []models.ShareNode) Hierarchy {
	h := Hierarchy{AssetID: assetID, Derived: make([]models.ShareNode, 0)}

	byID := make(map[string]*TreeNode)
	var ordered []*TreeNode
	for _, n := range nodes {
		if n.AssetID != assetID {
			continue
		}
		tn := &TreeNode{Node: n}
		byID[n.ID] = tn
		ordered = append(ordered, tn)
	}

	for _, tn := range ordered {
		n := tn.Node
		if n.IsRoot {
			if h.Root == nil {
				h.Root = tn
			}
			continue
		}
		h.Derived = append(h.Derived, n)
		if n.ParentID == nil {
			h.Orphans = append(h.Orphans, n)
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok {
			h.Orphans = append(h.Orphans, n)
			continue
		}
		parent.Children = append(parent.Children, tn)
	}

	sold := decimal.Zero
	if h.Root != nil {
		sold = sold.Add(h.Root.Node.SharePercentage)
	}
	for _, n := range h.Derived {
		sold = sold.Add(n.SharePercentage)
	}
	h.SoldPercentage = sold
	h.RemainingSellable = RemainingSellable(assetID, nodes)
	return h
}

// Holding is the combined percentage of one asset held by one owner.
type Holding struct {
	OwnerID    string          `json:"ownerId"`
	Percentage decimal.Decimal `json:"percentage"`
	Nodes      int             `json:"nodes"`
}

// OwnershipByHolder sums share percentages per owner, largest first.
func OwnershipByHolder(assetID string, nodes []models.ShareNode) []Holding {
	index := make(map[string]int)
	holdings := make([]Holding, 0)
	for _, n := range nodes {
		if n.AssetID != assetID {
			continue
		}
		i, ok := index[n.OwnerID]
		if !ok {
			i = len(holdings)
			index[n.OwnerID] = i
			holdings = append(holdings, Holding{OwnerID: n.OwnerID, Percentage: decimal.Zero})
		}
		holdings[i].Percentage = holdings[i].Percentage.Add(n.SharePercentage)
		holdings[i].Nodes++
	}
	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].Percentage.GreaterThan(holdings[j].Percentage)
	})
	return holdings
}

// GroupByAsset splits a flat node list per asset, keeping input order.
func GroupByAsset(nodes []models.ShareNode) map[string][]models.ShareNode {
	groups := make(map[string][]models.ShareNode)
	for _, n := range nodes {
		groups[n.AssetID] = append(groups[n.AssetID], n)
	}
	return groups
}
