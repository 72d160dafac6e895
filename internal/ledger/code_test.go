package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepth(t *testing.T) {
	assert.Equal(t, 1, Depth("100"))
	assert.Equal(t, 2, Depth("100.01"))
	assert.Equal(t, 3, Depth("100.01.00001001"))
	assert.Equal(t, 4, Depth("100.01.0001.9"))
}

func TestParentCode(t *testing.T) {
	tests := []struct {
		code   string
		parent string
		ok     bool
	}{
		{"100", "", false},
		{"100.01", "100", true},
		{"100.01.00001001", "100.01", true},
		{"100.01.0001.9", "", false},
		{".01", "", false},
		{" .01", "", false},
		{"100..5", "100.", true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			parent, ok := ParentCode(tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.parent, parent)
		})
	}
}

func TestAncestors(t *testing.T) {
	assert.Equal(t, []string{"100.01", "100"}, Ancestors("100.01.00001001"))
	assert.Equal(t, []string{"100"}, Ancestors("100.01"))
	assert.Empty(t, Ancestors("100"))
	assert.Empty(t, Ancestors(".01"))
	assert.Equal(t, []string{"100.", "100"}, Ancestors("100..5"))
}

func TestParseAmount(t *testing.T) {
	assert.True(t, ParseAmount("12.50").Equal(dec("12.5")))
	assert.True(t, ParseAmount(" 7 ").Equal(dec("7")))
	assert.True(t, ParseAmount(3.25).Equal(dec("3.25")))
	assert.True(t, ParseAmount(4).Equal(dec("4")))
	assert.True(t, ParseAmount("abc").IsZero())
	assert.True(t, ParseAmount("").IsZero())
	assert.True(t, ParseAmount(nil).IsZero())
	assert.True(t, ParseAmount([]int{1}).IsZero())
}
