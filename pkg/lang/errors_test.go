package lang

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeError(t *testing.T) {
	err := MakeError(ErrUndefinedRegister, "register %q not defined", "C")

	assert.ErrorIs(t, err, ErrUndefinedRegister)
	assert.Contains(t, err.Error(), `register "C" not defined`)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{MakeError(ErrUndefinedRegister, "x"), "UndefinedRegister"},
		{MakeError(ErrArityMismatch, "x"), "ArityMismatch"},
		{AtLine(3, "LOOP 2 {", MakeError(ErrMissingLoopClose, "x")), "MissingLoopClose"},
		{errors.New("boom"), "Error"},
	}

	for _, test := range tests {
		t.Run(test.kind, func(t *testing.T) {
			assert.Equal(t, test.kind, Kind(test.err))
		})
	}
}

func TestIsStructural(t *testing.T) {
	assert.True(t, IsStructural(MakeError(ErrUnsupportedNesting, "x")))
	assert.True(t, IsStructural(AtLine(1, "CALL F", MakeError(ErrUndefinedFunction, "F"))))
	assert.False(t, IsStructural(MakeError(ErrUndefinedRegister, "A")))
	assert.False(t, IsStructural(MakeError(ErrInvalidDelayFormat, "DELAY x")))
}

func TestAtLine(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, AtLine(1, "A = 1", nil))
	})

	t.Run("wraps", func(t *testing.T) {
		err := AtLine(7, "A = C", MakeError(ErrUndefinedRegister, "C"))

		var located *LineError
		require.ErrorAs(t, err, &located)
		assert.Equal(t, 7, located.Line)
		assert.Equal(t, "A = C", located.Text)
		assert.ErrorIs(t, err, ErrUndefinedRegister)
	})

	t.Run("innermost location wins", func(t *testing.T) {
		inner := AtLine(2, "A = C", MakeError(ErrUndefinedRegister, "C"))
		outer := AtLine(9, "CALL F A", fmt.Errorf("wrapped: %w", inner))

		var located *LineError
		require.ErrorAs(t, outer, &located)
		assert.Equal(t, 2, located.Line)
	})
}

func TestErrorsDocumentation(t *testing.T) {
	doc := ErrorsDocumentation(2)

	assert.True(t, strings.HasPrefix(doc, "  Error kinds:\n\n"))
	assert.Contains(t, doc, "UndefinedRegister")
	assert.Contains(t, doc, "undefined register (instruction error, execution continues)")
	assert.Contains(t, doc, "arity mismatch (expansion error, nothing is executed)")
	assert.Equal(t, len(kinds)+2, strings.Count(ErrorsDocString(), "\n"))
}
