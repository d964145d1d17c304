package expr

import (
	"testing"

	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// starlarkEval evaluates expr as a Starlark integer expression with the
// given registers predeclared.
func starlarkEval(t *testing.T, expr string, values map[registers.Register]Word) Word {
	t.Helper()

	predeclared := starlark.StringDict{}
	for r, v := range values {
		predeclared[r.String()] = starlark.MakeInt(int(v))
	}

	thread := &starlark.Thread{Name: "expr"}
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, "expr.star", "rc = "+expr+"\n", predeclared)
	require.NoError(t, err, expr)

	rc, err := starlark.AsInt32(globals["rc"])
	require.NoError(t, err, expr)

	return Word(rc)
}

// Expressions without division or overflow share semantics and operator
// precedence with Starlark integers.
func TestEvalMatchesStarlark(t *testing.T) {
	values := map[registers.Register]Word{
		'A': 5,
		'B': 3,
		'C': -8,
		'D': 0x5A,
	}

	exprs := []string{
		"A + B * C",
		"(A + B) * C",
		"A - B - C",
		"A << 3 | B",
		"D & 0xF0 >> 4",
		"(D & 0xF0) >> 4",
		"D ^ A & B | C",
		"~D & 0xFF",
		"-A * -B",
		"C >> 2",
		"A * B + C * D - 0b1010",
		"1 + 2 << 3 & 0x7F ^ 0b101 | 8",
		"~(A | B) & D",
		"-(C) + +A",
	}

	for _, e := range exprs {
		t.Run(e, func(t *testing.T) {
			got, err := Eval(e, registers.ScopeOf(values))
			require.NoError(t, err)
			assert.Equal(t, starlarkEval(t, e, values), got)
		})
	}
}
