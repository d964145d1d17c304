package preprocessor

import (
	"testing"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/lang/source"
	"github.com/Manu343726/binlang/pkg/lang/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(text string) []source.Line {
	return source.Split(text, source.DefaultCommentMarker)
}

func word(t *testing.T, scope *registers.Scope, r registers.Register) registers.Word {
	t.Helper()
	value, err := scope.Read(r)
	require.NoError(t, err)
	return value
}

// expand collects definitions and expands program from an empty global scope
func expand(t *testing.T, program string, opts ...Option) ([]ExpandedInstruction, *Expander, error) {
	t.Helper()

	table, err := CollectDefinitions(lines(program))
	if err != nil {
		return nil, nil, err
	}

	expander := NewExpander(table, opts...)
	instructions, err := expander.Expand(lines(program), registers.NewScope())
	return instructions, expander, err
}

func texts(instructions []ExpandedInstruction) []string {
	result := make([]string, len(instructions))
	for i := range instructions {
		result[i] = instructions[i].Line.Text
	}
	return result
}

func TestCollectDefinitions(t *testing.T) {
	program := `
CALL INC A
INC A {
  A = A + 1
}
SHL A, N {
  LOOP 2 {
    A = A << 1
  }
  R = A
}
inc B {
  B = B + 2
}
`
	table, err := CollectDefinitions(lines(program))
	require.NoError(t, err)

	assert.Equal(t, []string{"INC", "SHL"}, table.Names())

	inc, ok := table.Lookup("Inc")
	require.True(t, ok)
	assert.Equal(t, []registers.Register{'B'}, inc.Params, "last definition wins")
	assert.Equal(t, 12, inc.Line)

	shl, ok := table.Lookup("SHL")
	require.True(t, ok)
	assert.Equal(t, "SHL A, N", shl.Signature())
	assert.Equal(t, []string{"LOOP 2 {", "A = A << 1", "}", "R = A"}, source.Texts(shl.Body))
	assert.Equal(t, 9, shl.Body[2].Number)

	_, ok = table.Lookup("DEC")
	assert.False(t, ok)
}

func TestCollectDefinitionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		program string
		kind    error
		line    int
	}{
		{
			name:    "unterminated function",
			program: "INC A {\nA = A + 1",
			kind:    lang.ErrUnterminatedBlock,
			line:    1,
		},
		{
			name:    "unterminated loop in function",
			program: "INC A {\nLOOP 2 {\nA = A + 1\n}",
			kind:    lang.ErrUnterminatedBlock,
			line:    1,
		},
		{
			name:    "stray close",
			program: "A = 1\n}",
			kind:    lang.ErrUnterminatedBlock,
			line:    2,
		},
		{
			name:    "definition inside function",
			program: "OUTER A {\nINNER B {\nB = 1\n}\n}",
			kind:    lang.ErrUnsupportedNesting,
			line:    2,
		},
		{
			name:    "definition inside loop",
			program: "LOOP 2 {\nINC A {\nA = A + 1\n}\n}",
			kind:    lang.ErrUnsupportedNesting,
			line:    2,
		},
		{
			name:    "call inside function",
			program: "INC A {\nA = A + 1\n}\nTWICE A {\nCALL INC A\n}",
			kind:    lang.ErrUnsupportedNesting,
			line:    5,
		},
		{
			name:    "call inside loop inside function",
			program: "TWICE A {\nLOOP 2 {\nCALL INC A\n}\n}",
			kind:    lang.ErrUnsupportedNesting,
			line:    3,
		},
		{
			name:    "loop inside loop",
			program: "LOOP 2 {\nLOOP 2 {\nA = 1\n}\n}",
			kind:    lang.ErrUnsupportedNesting,
			line:    2,
		},
		{
			name:    "single letter function name",
			program: "F A {\nA = 1\n}",
			kind:    lang.ErrInvalidFunctionName,
			line:    1,
		},
		{
			name:    "register named function",
			program: "A B {\nB = 1\n}",
			kind:    lang.ErrInvalidFunctionName,
			line:    1,
		},
		{
			name:    "keyword named function",
			program: "CALL A {\nA = 1\n}",
			kind:    lang.ErrInvalidFunctionName,
			line:    1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := CollectDefinitions(lines(test.program))
			require.ErrorIs(t, err, test.kind)

			var located *lang.LineError
			require.ErrorAs(t, err, &located)
			assert.Equal(t, test.line, located.Line)
		})
	}
}

func TestCollectNestedLoopInFunction(t *testing.T) {
	_, err := CollectDefinitions(lines("FN A {\nLOOP 2 {\nLOOP 2 {\nA = 1\n}\n}\n}"))
	require.ErrorIs(t, err, lang.ErrUnsupportedNesting)
}

func TestExpandPlain(t *testing.T) {
	instructions, expander, err := expand(t, "A = 5\nB = A + 3\nDELAY 10\nB")
	require.NoError(t, err)

	assert.Equal(t, []string{"A = 5", "B = A + 3", "DELAY 10", "B"}, texts(instructions))

	assert.Equal(t, 0, instructions[0].Scope.Len())
	assert.Equal(t, registers.Word(5), word(t, instructions[1].Scope, 'A'))
	assert.Equal(t, registers.Word(8), word(t, instructions[3].Scope, 'B'))

	for _, i := range instructions {
		assert.True(t, i.Global)
		assert.Empty(t, i.Context)
	}

	assert.Equal(t, registers.Word(8), word(t, expander.Globals(), 'B'))
}

func TestExpandLoop(t *testing.T) {
	instructions, expander, err := expand(t, "A = 0\nLOOP 3 {\n  A = A + 1\n}")
	require.NoError(t, err)

	require.Len(t, instructions, 4)
	for k := 1; k <= 3; k++ {
		i := instructions[k]
		assert.Equal(t, "A = A + 1", i.Line.Text)
		assert.Equal(t, 3, i.Line.Number)
		assert.True(t, i.Global)
		assert.Equal(t, registers.Word(k-1), word(t, i.Scope, 'A'), "iteration %d sees the previous one", k)
	}

	assert.Equal(t, "LOOP 3 [2/3]", instructions[2].Context)
	assert.Equal(t, registers.Word(3), word(t, expander.Globals(), 'A'))
}

func TestExpandLoopZero(t *testing.T) {
	instructions, _, err := expand(t, "LOOP 0 {\nA = 1\n}\nB = 2")
	require.NoError(t, err)
	assert.Equal(t, []string{"B = 2"}, texts(instructions))
}

func TestExpandCallLocalScope(t *testing.T) {
	instructions, expander, err := expand(t, "INC A {\n  A = A + 1\n}\nB = 10\nCALL INC B")
	require.NoError(t, err)

	require.Len(t, instructions, 2)
	body := instructions[1]
	assert.Equal(t, "A = A + 1", body.Line.Text)
	assert.False(t, body.Global)
	assert.Equal(t, "CALL INC", body.Context)
	assert.Equal(t, registers.Word(10), word(t, body.Scope, 'A'))
	assert.Equal(t, registers.Word(10), word(t, body.Scope, 'B'))

	assert.False(t, expander.Globals().Has('A'), "parameters stay local")
	assert.Equal(t, registers.Word(10), word(t, expander.Globals(), 'B'))
}

func TestExpandCallProjection(t *testing.T) {
	program := `
INC A {
  A = A + 1
  T = 1
}
A = 1
CALL INC A
B = A
`
	instructions, expander, err := expand(t, program)
	require.NoError(t, err)

	assert.Equal(t, []string{"A = 1", "A = A + 1", "T = 1", "B = A"}, texts(instructions))
	assert.Equal(t, registers.Word(2), word(t, instructions[3].Scope, 'A'))
	assert.Equal(t, registers.Word(2), word(t, expander.Globals(), 'B'))
	assert.False(t, expander.Globals().Has('T'), "registers created by the call are not projected")
}

func TestExpandCallLiteralArguments(t *testing.T) {
	instructions, _, err := expand(t, "ADD X, Y {\nZ = X + Y\n}\nCALL ADD 0b101, 0x10\nCALL add -3, 7")
	require.NoError(t, err)

	require.Len(t, instructions, 2)
	assert.Equal(t, registers.Word(5), word(t, instructions[0].Scope, 'X'))
	assert.Equal(t, registers.Word(16), word(t, instructions[0].Scope, 'Y'))
	assert.Equal(t, registers.Word(-3), word(t, instructions[1].Scope, 'X'))
	assert.Equal(t, registers.Word(7), word(t, instructions[1].Scope, 'Y'))
}

func TestExpandCallBeforeDefinition(t *testing.T) {
	instructions, _, err := expand(t, "A = 1\nCALL DOUBLE A\nDOUBLE X {\nA = X * 2\n}")
	require.NoError(t, err)
	assert.Equal(t, []string{"A = 1", "A = X * 2"}, texts(instructions))
}

func TestExpandCallInsideLoop(t *testing.T) {
	program := `
BUMP X {
  C = X + 1
}
C = 0
LOOP 3 {
  CALL BUMP C
}
D = C
`
	instructions, expander, err := expand(t, program)
	require.NoError(t, err)

	assert.Equal(t, []string{"C = 0", "C = X + 1", "C = X + 1", "C = X + 1", "D = C"}, texts(instructions))

	for k := 1; k <= 3; k++ {
		i := instructions[k]
		assert.False(t, i.Global)
		assert.Equal(t, registers.Word(k-1), word(t, i.Scope, 'X'), "call %d sees the projection of the previous one", k)
	}

	assert.Equal(t, "LOOP 3 [2/3] > CALL BUMP", instructions[2].Context)
	assert.Equal(t, registers.Word(3), word(t, instructions[4].Scope, 'C'))
	assert.Equal(t, registers.Word(3), word(t, expander.Globals(), 'D'))
}

func TestExpandLoopInsideFunction(t *testing.T) {
	program := `
SHL A, N {
  LOOP 2 {
    A = A << 1
  }
  R = A + N
}
R = 0
CALL SHL 1, 10
`
	instructions, expander, err := expand(t, program)
	require.NoError(t, err)

	assert.Equal(t, []string{"R = 0", "A = A << 1", "A = A << 1", "R = A + N"}, texts(instructions))
	assert.Equal(t, registers.Word(2), word(t, instructions[2].Scope, 'A'))
	assert.Equal(t, "CALL SHL > LOOP 2 [2/2]", instructions[2].Context)
	assert.Equal(t, registers.Word(4), word(t, instructions[3].Scope, 'A'))

	assert.Equal(t, registers.Word(14), word(t, expander.Globals(), 'R'))
	assert.False(t, expander.Globals().Has('A'))
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name    string
		program string
		kind    error
	}{
		{"undefined function", "A = 1\nCALL NOPE A", lang.ErrUndefinedFunction},
		{"too few arguments", "FOO A, B, C {\nA = B\n}\nA = 1\nB = 2\nCALL FOO A, B", lang.ErrArityMismatch},
		{"too many arguments", "INC A {\nA = A + 1\n}\nCALL INC 1, 2", lang.ErrArityMismatch},
		{"undefined register argument", "INC A {\nA = A + 1\n}\nCALL INC Q", lang.ErrInvalidArgument},
		{"garbage argument", "INC A {\nA = A + 1\n}\nCALL INC 0xZZ", lang.ErrInvalidArgument},
		{"missing loop close", "A = 0\nLOOP 2 {\nA = A + 1", lang.ErrMissingLoopClose},
		{"bad loop count", "LOOP X {\nA = 1\n}", lang.ErrInvalidArgument},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			table, _ := CollectDefinitions(lines(test.program))
			instructions, err := Expand(lines(test.program), table, registers.NewScope())
			assert.ErrorIs(t, err, test.kind)
			assert.Nil(t, instructions, "no partial expansion")
		})
	}
}

func TestExpandKeepsExecutionErrors(t *testing.T) {
	// Undefined registers and malformed delays are execution errors, reported
	// per instruction
	instructions, _, err := expand(t, "A = Q + 1\nDELAY soon\nB = A")
	require.NoError(t, err)
	assert.Len(t, instructions, 3)
	assert.False(t, instructions[2].Scope.Has('A'))
}

func TestExpandMaxInstructions(t *testing.T) {
	_, _, err := expand(t, "LOOP 3 {\nA = 1\n}", WithMaxInstructions(2))
	assert.ErrorIs(t, err, lang.ErrInvalidArgument)

	instructions, _, err := expand(t, "LOOP 3 {\nA = 1\n}", WithMaxInstructions(3))
	require.NoError(t, err)
	assert.Len(t, instructions, 3)
}

func TestExpandDoesNotModifyGlobals(t *testing.T) {
	globals := registers.ScopeOf(map[registers.Register]registers.Word{'A': 1})

	instructions, err := Expand(lines("A = A + 1\nB = A"), NewFunctionTable(), globals)
	require.NoError(t, err)

	assert.Equal(t, registers.Word(1), word(t, instructions[0].Scope, 'A'))
	assert.Equal(t, registers.Word(2), word(t, instructions[1].Scope, 'A'))
	assert.Equal(t, registers.Word(1), word(t, globals, 'A'))
	assert.False(t, globals.Has('B'))
}

func TestExpandSnapshotsAreIndependent(t *testing.T) {
	instructions, _, err := expand(t, "A = 1\nA = 2")
	require.NoError(t, err)

	instructions[1].Scope.Write(100, 'A')
	assert.Equal(t, 0, instructions[0].Scope.Len())
}

func TestExpandTracing(t *testing.T) {
	recorder := &trace.Recorder{}
	_, _, err := expand(t, "INC A {\nA = A + 1\n}\nA = 1\nLOOP 2 {\nCALL INC A\n}", WithTracer(recorder))
	require.NoError(t, err)

	assert.Len(t, recorder.Operations("Emit"), 3)

	projections := recorder.Operations("Project")
	require.Len(t, projections, 2)
	assert.Equal(t, "A", projections[1].Operands["register"])
	assert.Equal(t, "3", projections[1].Result)
	assert.Equal(t, []string{"root", "LOOP 2 [2/2]"}, projections[1].ContextStack)
}

func TestExpandedInstructionString(t *testing.T) {
	instructions, _, err := expand(t, "A = 1\nINC A {\nA = A + 1\n}\nCALL INC A")
	require.NoError(t, err)

	assert.Equal(t, "1: A = 1 (global {})", instructions[0].String())
	assert.Equal(t, "3: A = A + 1 (local {A: 1}) [CALL INC]", instructions[1].String())
}
