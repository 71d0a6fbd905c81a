package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// KeyValueBlock
// ---------------------------------------------------------------------------

func TestKeyValueBlockContainsTitleAndPairs(t *testing.T) {
	result := KeyValueBlock("Room", [][2]string{
		{"Your CLEAN", "1,234,568"},
		{"Available NFTs", "3"},
	})
	assert.Contains(t, result, "Room")
	assert.Contains(t, result, "Your CLEAN")
	assert.Contains(t, result, "1,234,568")
	assert.Contains(t, result, "Available NFTs")
}

func TestKeyValueBlockPreservesOrder(t *testing.T) {
	result := KeyValueBlock("", [][2]string{{"First", "A"}, {"Second", "B"}, {"Third", "C"}})
	i1, i2, i3 := strings.Index(result, "First"), strings.Index(result, "Second"), strings.Index(result, "Third")
	require.Greater(t, i1, -1)
	assert.Less(t, i1, i2)
	assert.Less(t, i2, i3)
}

func TestKeyValueBlockHasBorder(t *testing.T) {
	result := KeyValueBlock("Bordered", [][2]string{{"Key", "Val"}})
	assert.Contains(t, result, "╭")
	assert.Contains(t, result, "╰")
}

// ---------------------------------------------------------------------------
// Table
// ---------------------------------------------------------------------------

func TestNewTableCreatesEmptyTable(t *testing.T) {
	tbl := NewTable([]Column{{Title: "Name", Width: 10}, {Title: "Address", Width: 20}})
	assert.Len(t, tbl.Columns, 2)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, -1, tbl.SelIdx)
}

func TestTableRender(t *testing.T) {
	tbl := NewTable([]Column{{Title: "Name", Width: 8}, {Title: "Type", Width: 10}})
	tbl.AddRow(Row{"main", "signing"})
	tbl.AddRow(Row{"viewer", "watch-only"})
	tbl.SelIdx = 0

	result := tbl.Render()
	for _, want := range []string{"Name", "Type", "main", "signing", "viewer", "watch-only", "--------"} {
		assert.Contains(t, result, want)
	}
	assert.Less(t, strings.Index(result, "main"), strings.Index(result, "viewer"))
}

func TestTableRenderRowShorterThanColumns(t *testing.T) {
	tbl := NewTable([]Column{{Title: "A", Width: 5}, {Title: "B", Width: 5}})
	tbl.AddRow(Row{"only1"})
	assert.Contains(t, tbl.Render(), "only1")
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab   ", fit("ab", 5))
	assert.Equal(t, "hello", fit("hello", 5))
	assert.Equal(t, "hell…", fit("hello!", 5))
	assert.Equal(t, "", fit("x", 0))
	assert.Equal(t, "0x12…", fit("0x1234…5678", 5), "multi-byte runes count once")
}
