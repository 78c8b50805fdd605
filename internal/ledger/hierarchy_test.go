// internal/ledger/hierarchy_test.go
package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coral-ledger/internal/models"
)

func TestBuildHierarchy(t *testing.T) {
	nodes := []models.ShareNode{
		childNode("G1", "A1", "C1", "R1", "0xddd", "6", "60"),
		rootNode("R1", "A1", "0xaaa", "40", "14", "400"),
		childNode("C1", "A1", "R1", "R1", "0xbbb", "30", "300"),
		childNode("C2", "A1", "R1", "R1", "0xccc", "10", "100"),
		childNode("O1", "A1", "MISSING", "R1", "0xeee", "1", "1"),
		rootNode("R2", "A2", "0xaaa", "50", "50", "10"),
	}

	h := BuildHierarchy("A1", nodes)

	require.NotNil(t, h.Root)
	assert.Equal(t, "R1", h.Root.Node.ID)
	require.Len(t, h.Root.Children, 2)
	assert.Equal(t, "C1", h.Root.Children[0].Node.ID)
	require.Len(t, h.Root.Children[0].Children, 1)
	assert.Equal(t, "G1", h.Root.Children[0].Children[0].Node.ID)
	assert.Len(t, h.Derived, 4)
	require.Len(t, h.Orphans, 1)
	assert.Equal(t, "O1", h.Orphans[0].ID)
	assertDecimal(t, "87", h.SoldPercentage)
	assertDecimal(t, "53", h.RemainingSellable)
}

func TestBuildHierarchyEmptyAsset(t *testing.T) {
	h := BuildHierarchy("A1", nil)

	assert.Nil(t, h.Root)
	assert.Empty(t, h.Derived)
	assertDecimal(t, "0", h.SoldPercentage)
	assertDecimal(t, "100", h.RemainingSellable)
}

func TestOwnershipByHolder(t *testing.T) {
	nodes := []models.ShareNode{
		rootNode("R1", "A1", "0xaaa", "40", "20", "400"),
		childNode("C1", "A1", "R1", "R1", "0xbbb", "10", "100"),
		childNode("C2", "A1", "R1", "R1", "0xccc", "20", "200"),
		childNode("C3", "A1", "R1", "R1", "0xbbb", "15", "150"),
		rootNode("R2", "A2", "0xbbb", "90", "10", "10"),
	}

	holdings := OwnershipByHolder("A1", nodes)

	require.Len(t, holdings, 3)
	assert.Equal(t, "0xaaa", holdings[0].OwnerID)
	assert.Equal(t, "0xbbb", holdings[1].OwnerID)
	assertDecimal(t, "25", holdings[1].Percentage)
	assert.Equal(t, 2, holdings[1].Nodes)
	assert.Equal(t, "0xccc", holdings[2].OwnerID)
}

func TestGroupByAsset(t *testing.T) {
	groups := GroupByAsset([]models.ShareNode{
		rootNode("R1", "A1", "0xaaa", "40", "60", "400"),
		rootNode("R2", "A2", "0xaaa", "40", "60", "400"),
		childNode("C1", "A1", "R1", "R1", "0xbbb", "10", "100"),
	})

	assert.Len(t, groups, 2)
	assert.Len(t, groups["A1"], 2)
}
