package expr

import (
	"math"
	"testing"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenize tests the expression tokenizer
func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected []Token
		wantErr  bool
	}{
		// Numbers
		{
			name: "decimal number",
			expr: "123",
			expected: []Token{
				{Type: TokenNumber, Value: "123", Num: 123},
			},
		},
		{
			name: "hex number lowercase",
			expr: "0x1a2b",
			expected: []Token{
				{Type: TokenNumber, Value: "0x1a2b", Num: 0x1a2b},
			},
		},
		{
			name: "hex number uppercase",
			expr: "0X1A2B",
			expected: []Token{
				{Type: TokenNumber, Value: "0X1A2B", Num: 0x1a2b},
			},
		},
		{
			name: "binary number",
			expr: "0b1010",
			expected: []Token{
				{Type: TokenNumber, Value: "0b1010", Num: 10},
			},
		},
		{
			name: "full width hex wraps",
			expr: "0xFFFFFFFF",
			expected: []Token{
				{Type: TokenNumber, Value: "0xFFFFFFFF", Num: -1},
			},
		},

		// Registers
		{
			name: "register",
			expr: "A",
			expected: []Token{
				{Type: TokenRegister, Value: "A", Register: 'A'},
			},
		},

		// Operators
		{
			name: "shifts",
			expr: "A << 2 >> B",
			expected: []Token{
				{Type: TokenRegister, Value: "A", Register: 'A'},
				{Type: TokenShiftLeft, Value: "<<"},
				{Type: TokenNumber, Value: "2", Num: 2},
				{Type: TokenShiftRight, Value: ">>"},
				{Type: TokenRegister, Value: "B", Register: 'B'},
			},
		},
		{
			name: "no whitespace",
			expr: "(A+1)&~B",
			expected: []Token{
				{Type: TokenLParen, Value: "("},
				{Type: TokenRegister, Value: "A", Register: 'A'},
				{Type: TokenPlus, Value: "+"},
				{Type: TokenNumber, Value: "1", Num: 1},
				{Type: TokenRParen, Value: ")"},
				{Type: TokenAnd, Value: "&"},
				{Type: TokenNot, Value: "~"},
				{Type: TokenRegister, Value: "B", Register: 'B'},
			},
		},

		// Errors
		{name: "single angle bracket", expr: "A < B", wantErr: true},
		{name: "empty hex literal", expr: "0x", wantErr: true},
		{name: "empty binary literal", expr: "0b", wantErr: true},
		{name: "decimal out of range", expr: "4294967296", wantErr: true},
		{name: "multi letter identifier", expr: "AB + 1", wantErr: true},
		{name: "lowercase identifier", expr: "a", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens, err := Tokenize(test.expr)
			if test.wantErr {
				assert.ErrorIs(t, err, lang.ErrInvalidExpression)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, tokens)
		})
	}
}

func testScope() *registers.Scope {
	return registers.ScopeOf(map[registers.Register]Word{
		'A': 5,
		'B': 3,
		'C': -8,
		'F': 0xFF,
	})
}

// TestEval tests full expression evaluation
func TestEval(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected Word
	}{
		{"literal", "42", 42},
		{"hex literal", "0xFF", 255},
		{"binary literal", "0b1010", 10},
		{"register", "A", 5},
		{"addition", "A + B", 8},
		{"subtraction", "A - B", 2},
		{"multiplication", "A * B", 15},
		{"division", "A / B", 1},
		{"division truncates toward zero", "C / B", -2},
		{"and", "0b1100 & 0b1010", 0b1000},
		{"or", "0b1100 | 0b1010", 0b1110},
		{"xor", "0b1100 ^ 0b1010", 0b0110},
		{"not", "~0", -1},
		{"not register", "~A", -6},
		{"negate", "-A", -5},
		{"unary plus", "+A", 5},
		{"double negate", "- -A", 5},
		{"shift left", "1 << 4", 16},
		{"shift right", "F >> 4", 0x0F},
		{"arithmetic shift right", "C >> 1", -4},
		{"shift count masked", "1 << 33", 2},
		{"mul before add", "1 + 2 * 3", 7},
		{"add before shift", "1 << 1 + 1", 4},
		{"shift before and", "F & 1 << 4", 0x10},
		{"and before xor", "1 ^ 3 & 2", 3},
		{"xor before or", "4 | 1 ^ 1", 4},
		{"parentheses", "(1 + 2) * 3", 9},
		{"nested parentheses", "((A))", 5},
		{"left associative subtraction", "10 - 3 - 2", 5},
		{"left associative division", "100 / 10 / 5", 2},
		{"overflow wraps", "0x7FFFFFFF + 1", math.MinInt32},
		{"multiplication wraps", "0x10000 * 0x10000", 0},
		{"min int division", "(0x80000000) / -1", math.MinInt32},
		{"mask byte", "A & 0xFF", 5},
		{"combined", "(A << 2) | (B & 1)", 21},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := Eval(test.expr, testScope())
			require.NoError(t, err)
			assert.Equal(t, test.expected, result)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		kind error
	}{
		{"empty", "", lang.ErrInvalidExpression},
		{"blank", "   ", lang.ErrInvalidExpression},
		{"undefined register", "A + Z", lang.ErrUndefinedRegister},
		{"undefined register before syntax error", "Z +", lang.ErrUndefinedRegister},
		{"disallowed character", "A % 2", lang.ErrInvalidExpression},
		{"disallowed before undefined", "Z = 1", lang.ErrInvalidExpression},
		{"host code", "__import__('os')", lang.ErrInvalidExpression},
		{"division by zero", "A / 0", lang.ErrInvalidExpression},
		{"division by zero register", "A / (B - 3)", lang.ErrInvalidExpression},
		{"dangling operator", "A +", lang.ErrInvalidExpression},
		{"missing close paren", "(A + 1", lang.ErrInvalidExpression},
		{"stray close paren", "A + 1)", lang.ErrInvalidExpression},
		{"adjacent operands", "A B", lang.ErrInvalidExpression},
		{"function name", "ADD", lang.ErrInvalidExpression},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Eval(test.expr, testScope())
			assert.ErrorIs(t, err, test.kind)
		})
	}
}

func TestEvalDoesNotModifyScope(t *testing.T) {
	scope := testScope()
	before := scope.Values()

	_, err := Eval("A + B * C", scope)
	require.NoError(t, err)

	assert.Equal(t, before, scope.Values())
}

func TestEvalNilScope(t *testing.T) {
	value, err := Eval("1 + 1", nil)
	require.NoError(t, err)
	assert.Equal(t, Word(2), value)

	_, err = Eval("A", nil)
	assert.ErrorIs(t, err, lang.ErrUndefinedRegister)
}

func TestRegisters(t *testing.T) {
	regs, err := Registers("A + B * A - 0xB")
	require.NoError(t, err)
	assert.Equal(t, []registers.Register{'A', 'B'}, regs)

	_, err = Registers("A < B")
	assert.Error(t, err)
}

func TestCheckAllowed(t *testing.T) {
	assert.NoError(t, CheckAllowed("0xDEADbeef + 0b1 - (A << 2)"))
	assert.Error(t, CheckAllowed("A = 1"))
	assert.Error(t, CheckAllowed("A; B"))
	assert.Error(t, CheckAllowed("z"))
}
