package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGroupedSums(t *testing.T) {
	g := BuildGrouped([]Record{
		rec("100.01.00001", "A", "10", "1"),
		rec("100.01.00002", "B", "15", "2"),
		rec("100.02.00003", "C", "5", "0"),
		rec("120.01.00004", "D", "0", "9"),
	})

	require.Contains(t, g.Level1, "100")
	l1 := g.Level1["100"]
	assert.Equal(t, "100", l1.Code)
	assert.True(t, l1.Debit.Equal(dec("30")))
	assert.True(t, l1.Credit.Equal(dec("3")))

	require.Contains(t, l1.Level2, "100.0")
	l2 := l1.Level2["100.0"]
	assert.Equal(t, "100.0", l2.Code)
	// "100.01" and "100.02" share the five character prefix
	assert.Len(t, l2.Level3, 3)
	assert.True(t, l2.Debit.Equal(dec("30")))

	leaf := l2.Level3["100.01.00001"]
	assert.Equal(t, "A", leaf.AccountName)
	assert.True(t, leaf.Debit.Equal(dec("10")))

	assert.True(t, g.Level1["120"].Credit.Equal(dec("9")))
	assert.Len(t, g.Level1, 2)
}

func TestBuildGroupedOnlyOwnLeaves(t *testing.T) {
	g := BuildGrouped([]Record{
		rec("100.01.00001", "A", "1", "0"),
		rec("100.01.00002", "B", "2", "0"),
		rec("101.01.00003", "C", "4", "0"),
	})
	l2 := g.Level1["100"].Level2["100.0"]
	assert.Len(t, l2.Level3, 2)
	assert.True(t, l2.Debit.Equal(dec("3")))
}

func TestBuildGroupedRepeatedCode(t *testing.T) {
	g := BuildGrouped([]Record{
		rec("100.01.00001", "old", "1", "0"),
		rec("100.01.00001", "new", "2", "0"),
	})
	l2 := g.Level1["100"].Level2["100.0"]
	assert.Len(t, l2.Level3, 1)
	assert.Equal(t, "new", l2.Level3["100.01.00001"].AccountName)
	assert.True(t, l2.Debit.Equal(dec("3")))
}

func TestBuildGroupedShortCodes(t *testing.T) {
	g := BuildGrouped([]Record{rec("10", "short", "1", "0")})
	require.Contains(t, g.Level1, "10")
	assert.Contains(t, g.Level1["10"].Level2, "10")
}
