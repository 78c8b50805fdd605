// internal/ledger/integrity_test.go
package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coral-ledger/internal/models"
)

func rules(res ValidationResult) []string {
	out := make([]string, 0, len(res.Violations))
	for _, v := range res.Violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestValidateNodeConsistentTree(t *testing.T) {
	root := rootNode("R1", "A1", "0xaaa", "40", "30", "400")
	child := childNode("C1", "A1", "R1", "R1", "0xbbb", "30", "300")
	nodes := []models.ShareNode{root, child}

	res, err := ValidateNode(root, nil, nodes)
	require.NoError(t, err)
	assert.True(t, res.OK, rules(res))

	res, err = ValidateNode(child, &root, nodes)
	require.NoError(t, err)
	assert.True(t, res.OK, rules(res))
}

func TestValidateNodeRootWithoutChildren(t *testing.T) {
	res, err := ValidateNode(rootNode("R1", "A1", "0xaaa", "40", "60", "400"), nil, nil)
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = ValidateNode(rootNode("R1", "A1", "0xaaa", "40", "50", "400"), nil, nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, []string{RuleRemaining}, rules(res))
}

func TestValidateNodeReportsEveryViolation(t *testing.T) {
	node := rootNode("R1", "A1", "0xaaa", "0", "-5", "0")
	node.ParentID = strPtr("P0")

	res, err := ValidateNode(node, nil, nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.ElementsMatch(t, []string{RuleRootFlag, RuleShareRange, RuleRemaining, RuleRemainingFloor}, rules(res))
}

func TestValidateNodeLinkage(t *testing.T) {
	root := rootNode("R1", "A1", "0xaaa", "40", "30", "400")
	otherRoot := rootNode("R2", "A2", "0xaaa", "40", "60", "400")

	child := childNode("C1", "A1", "R1", "R1", "0xbbb", "30", "300")
	child.ParentID = nil
	res, err := ValidateNode(child, &root, []models.ShareNode{root})
	require.NoError(t, err)
	assert.Contains(t, rules(res), RuleRootFlag)

	stray := childNode("C2", "A1", "GONE", "R2", "0xbbb", "120", "300")
	res, err = ValidateNode(stray, &otherRoot, []models.ShareNode{root, otherRoot})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{RuleShareRange, RuleRootLinkage, RuleParentLinkage}, rules(res))
}

func TestValidateNodeStructuralErrors(t *testing.T) {
	node := rootNode("R1", "A1", "", "40", "60", "400")
	_, err := ValidateNode(node, nil, nil)
	require.Error(t, err)
	assert.True(t, IsStructural(err))

	node = rootNode("", "A1", "0xaaa", "40", "60", "400")
	_, err = ValidateNode(node, nil, nil)
	assert.True(t, IsStructural(err))
}

func TestValidateAsset(t *testing.T) {
	nodes := []models.ShareNode{
		rootNode("R1", "A1", "0xaaa", "40", "30", "400"),
		childNode("C1", "A1", "R1", "R1", "0xbbb", "30", "300"),
		rootNode("R9", "A9", "0xaaa", "10", "90", "100"),
	}

	report, err := ValidateAsset("A1", nodes)
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Equal(t, "R1", report.RootID)
	assert.Len(t, report.Nodes, 2)

	dup := append(nodes, rootNode("R2", "A1", "0xccc", "10", "90", "100"))
	report, err = ValidateAsset("A1", dup)
	require.NoError(t, err)
	assert.False(t, report.OK)
	require.NotEmpty(t, report.Violations)
	assert.Equal(t, RuleSingleRoot, report.Violations[0].Rule)

	report, err = ValidateAsset("A1", nodes[1:2])
	require.NoError(t, err)
	assert.False(t, report.OK)
	assert.Equal(t, RuleMissingRoot, report.Violations[0].Rule)
}
