// internal/ledger/integrity.go
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/javajoker/coral-ledger/internal/models"
)

const (
	RuleRootFlag       = "root_flag"
	RuleRemaining      = "remaining_percentage"
	RuleShareRange     = "share_range"
	RuleRemainingFloor = "remaining_non_negative"
	RuleRootLinkage    = "root_linkage"
	RuleParentLinkage  = "parent_linkage"
	RuleSingleRoot     = "single_root"
	RuleMissingRoot    = "missing_root"
)

type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type ValidationResult struct {
	NodeID     string      `json:"nodeId"`
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
}

func (r *ValidationResult) add(rule, format string, args ...interface{}) {
	r.Violations = append(r.Violations, Violation{Rule: rule, Message: fmt.Sprintf(format, args...)})
	r.OK = false
}

// ValidateNode checks a node's linkage and percentage rules. root is the
// asset's root (optional for root nodes); nodes are the other nodes of the
// asset and may be nil. Every rule is checked independently. Only a missing
// required field produces an error.
func ValidateNode(node models.ShareNode, root *models.ShareNode, nodes []models.ShareNode) (ValidationResult, error) {
	switch {
	case node.ID == "":
		return ValidationResult{}, &StructuralError{Record: "share", Field: "id", Reason: "is required"}
	case node.AssetID == "":
		return ValidationResult{}, &StructuralError{Record: "share", ID: node.ID, Field: "assetId", Reason: "is required"}
	case node.OwnerID == "":
		return ValidationResult{}, &StructuralError{Record: "share", ID: node.ID, Field: "ownerId", Reason: "is required"}
	}

	result := ValidationResult{NodeID: node.ID, OK: true}

	if (node.ParentID == nil) != node.IsRoot {
		result.add(RuleRootFlag, "isRoot=%t but parentId is %s", node.IsRoot, describeParent(node.ParentID))
	}

	if !node.SharePercentage.IsPositive() || node.SharePercentage.GreaterThan(hundred) {
		result.add(RuleShareRange, "sharePercentage %s is outside (0, 100]", node.SharePercentage)
	}

	if node.IsRoot {
		expected := clampFloor(hundred.Sub(node.SharePercentage).Sub(soldFrom(node.ID, nodes)))
		if !node.RemainingPercentage.Equal(expected) {
			result.add(RuleRemaining, "remainingPercentage %s, expected %s", node.RemainingPercentage, expected)
		}
		if node.RemainingPercentage.IsNegative() {
			result.add(RuleRemainingFloor, "remainingPercentage %s is negative", node.RemainingPercentage)
		}
		return result, nil
	}

	if root != nil {
		switch {
		case !root.IsRoot:
			result.add(RuleRootLinkage, "referenced root %s is not a root", root.ID)
		case root.ID != node.RootRef():
			result.add(RuleRootLinkage, "node traces to %s but the asset root is %s", node.RootRef(), root.ID)
		case root.AssetID != node.AssetID:
			result.add(RuleRootLinkage, "root %s belongs to asset %s", root.ID, root.AssetID)
		}
	}

	if node.ParentID != nil && nodes != nil {
		parent := findNode(nodes, *node.ParentID)
		switch {
		case parent == nil:
			result.add(RuleParentLinkage, "parent %s does not exist", *node.ParentID)
		case parent.AssetID != node.AssetID:
			result.add(RuleParentLinkage, "parent %s belongs to asset %s", parent.ID, parent.AssetID)
		}
	}

	return result, nil
}

// AssetReport is the integrity report over every node of one asset.
type AssetReport struct {
	AssetID    string             `json:"assetId"`
	RootID     string             `json:"rootId,omitempty"`
	OK         bool               `json:"ok"`
	Violations []Violation        `json:"violations,omitempty"`
	Nodes      []ValidationResult `json:"nodes"`
}

// ValidateAsset validates every node of the asset and the single-root
// invariant.
func ValidateAsset(assetID string, nodes []models.ShareNode) (AssetReport, error) {
	report := AssetReport{AssetID: assetID, OK: true, Nodes: make([]ValidationResult, 0)}

	var assetNodes []models.ShareNode
	roots := 0
	for _, n := range nodes {
		if n.AssetID != assetID {
			continue
		}
		assetNodes = append(assetNodes, n)
		if n.IsRoot {
			roots++
		}
	}

	root := FindRoot(assetNodes, assetID)
	if root != nil {
		report.RootID = root.ID
	}
	if roots > 1 {
		report.OK = false
		report.Violations = append(report.Violations, Violation{Rule: RuleSingleRoot, Message: fmt.Sprintf("asset has %d root shares", roots)})
	}
	if root == nil && len(assetNodes) > 0 {
		report.OK = false
		report.Violations = append(report.Violations, Violation{Rule: RuleMissingRoot, Message: "asset has shares but no root"})
	}

	for _, n := range assetNodes {
		res, err := ValidateNode(n, root, assetNodes)
		if err != nil {
			return AssetReport{}, err
		}
		if !res.OK {
			report.OK = false
		}
		report.Nodes = append(report.Nodes, res)
	}
	return report, nil
}

// soldFrom sums the shares of every non-root node that traces to rootID.
func soldFrom(rootID string, nodes []models.ShareNode) decimal.Decimal {
	sold := decimal.Zero
	for i := range nodes {
		if !nodes[i].IsRoot && nodes[i].ID != rootID && nodes[i].RootRef() == rootID {
			sold = sold.Add(nodes[i].SharePercentage)
		}
	}
	return sold
}

func findNode(nodes []models.ShareNode, id string) *models.ShareNode {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
	}
	return nil
}

func clampFloor(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func describeParent(parentID *string) string {
	if parentID == nil {
		return "null"
	}
	return *parentID
}
