package expr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentation(t *testing.T) {
	doc := DocString()

	assert.Contains(t, doc, " 1. ~ - +")
	assert.Contains(t, doc, " 7. |")
	assert.Equal(t, len(Precedence), strings.Count(doc, ". "))
}

// The documented table must agree with the evaluator: each level binds
// tighter than the next one.
func TestPrecedenceTable(t *testing.T) {
	tests := []struct {
		expr     string
		expected Word
	}{
		{"-2 * 3", -6},
		{"2 + 3 * 4", 14},
		{"1 << 2 + 1", 8},
		{"6 & 3 << 1", 6},
		{"1 ^ 3 & 1", 0},
		{"1 | 1 ^ 1", 1},
	}

	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			value, err := Eval(test.expr, nil)
			assert.NoError(t, err)
			assert.Equal(t, test.expected, value)
		})
	}
}
