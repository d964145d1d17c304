// Package expr evaluates binlang expressions: integer literals (decimal, 0x hex,
// 0b binary), single letter registers, the arithmetic operators + - * / and the
// bitwise operators & | ^ ~ << >>, with parentheses.
//
// Evaluation never executes host code. Input is first checked against an allow
// list of characters, then tokenized, then every register token is resolved
// against the current scope, and finally a recursive descent parser computes
// the value.
package expr

import (
	"strings"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/lang/registers"
)

type Word = registers.Word

// Token types for expression parsing
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenRegister
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenAnd
	TokenOr
	TokenXor
	TokenNot
	TokenShiftLeft
	TokenShiftRight
	TokenLParen
	TokenRParen
)

// Token represents a lexical token in an expression
type Token struct {
	Type     TokenType
	Value    string
	Num      Word               // For number tokens, and registers once resolved
	Register registers.Register // For register tokens
}

// Resolver gives access to register values during evaluation.
type Resolver interface {
	Read(r registers.Register) (Word, error)
}

// Evaluator evaluates expressions against a register scope
type Evaluator struct {
	scope Resolver
}

// NewEvaluator creates an evaluator reading registers from scope
func NewEvaluator(scope Resolver) *Evaluator {
	return &Evaluator{scope: scope}
}

// Eval evaluates expr against scope.
func Eval(expr string, scope Resolver) (Word, error) {
	return NewEvaluator(scope).Eval(expr)
}

func invalid(message string, args ...any) error {
	return lang.MakeError(lang.ErrInvalidExpression, message, args...)
}

// Eval evaluates an expression string and returns the result
func (e *Evaluator) Eval(expr string) (Word, error) {
	if err := CheckAllowed(expr); err != nil {
		return 0, err
	}

	tokens, err := Tokenize(expr)
	if err != nil {
		return 0, err
	}

	if len(tokens) == 0 {
		return 0, invalid("empty expression")
	}

	if err := e.resolve(tokens); err != nil {
		return 0, err
	}

	result, remaining, err := parseOr(tokens)
	if err != nil {
		return 0, err
	}

	if len(remaining) > 0 {
		return 0, invalid("unexpected token: %s", remaining[0].Value)
	}

	return result, nil
}

// resolve replaces the value of every register token with the register's
// current value. The first undefined register aborts the evaluation.
func (e *Evaluator) resolve(tokens []Token) error {
	for i := range tokens {
		if tokens[i].Type != TokenRegister {
			continue
		}

		if e.scope == nil {
			return lang.MakeError(lang.ErrUndefinedRegister, "register %q not defined", tokens[i].Value)
		}

		value, err := e.scope.Read(tokens[i].Register)
		if err != nil {
			return err
		}

		tokens[i].Num = value
	}

	return nil
}

// IsAllowed reports whether c may appear in an expression at all.
func IsAllowed(c byte) bool {
	switch {
	case IsDigit(c), c >= 'A' && c <= 'Z', c >= 'a' && c <= 'f', c == 'x':
		return true
	}

	return strings.IndexByte("+-*/&|^~<>() \t", c) >= 0
}

// CheckAllowed rejects expressions containing any character outside the allow
// list, before any other processing.
func CheckAllowed(expr string) error {
	for i := 0; i < len(expr); i++ {
		if !IsAllowed(expr[i]) {
			return invalid("character %q not allowed, use only binary, hex, decimal, uppercase registers and bitwise/math operators", expr[i])
		}
	}

	return nil
}

// Character classification helpers
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func IsHexDigit(c byte) bool {
	return IsDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func IsBinaryDigit(c byte) bool {
	return c == '0' || c == '1'
}

func IsAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func IsAlphaNum(c byte) bool {
	return IsAlpha(c) || IsDigit(c) || c == '_'
}

var operators = map[byte]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMul,
	'/': TokenDiv,
	'&': TokenAnd,
	'|': TokenOr,
	'^': TokenXor,
	'~': TokenNot,
	'(': TokenLParen,
	')': TokenRParen,
}

// scanLiteral scans a prefixed literal ("0x...", "0b...") starting at expr[0]
func scanLiteral(expr string, isDigit func(byte) bool, base int) (Token, string, error) {
	end := 2
	for end < len(expr) && isDigit(expr[end]) {
		end++
	}

	num, err := registers.ParseUnsigned(expr[2:end], base)
	if err != nil {
		return Token{}, "", invalid("invalid literal: %s", expr[:end])
	}

	return Token{Type: TokenNumber, Value: expr[:end], Num: num}, expr[end:], nil
}

// Tokenize breaks an expression into tokens
func Tokenize(expr string) ([]Token, error) {
	var tokens []Token
	expr = strings.TrimSpace(expr)

	for len(expr) > 0 {
		expr = strings.TrimLeft(expr, " \t")
		if len(expr) == 0 {
			break
		}

		if tokenType, ok := operators[expr[0]]; ok {
			tokens = append(tokens, Token{Type: tokenType, Value: expr[:1]})
			expr = expr[1:]
			continue
		}

		switch expr[0] {
		case '<':
			if len(expr) >= 2 && expr[1] == '<' {
				tokens = append(tokens, Token{Type: TokenShiftLeft, Value: "<<"})
				expr = expr[2:]
				continue
			}
			return nil, invalid("unexpected character: %c", expr[0])
		case '>':
			if len(expr) >= 2 && expr[1] == '>' {
				tokens = append(tokens, Token{Type: TokenShiftRight, Value: ">>"})
				expr = expr[2:]
				continue
			}
			return nil, invalid("unexpected character: %c", expr[0])
		}

		// Check for hex number (0x...)
		if len(expr) >= 2 && expr[0] == '0' && (expr[1] == 'x' || expr[1] == 'X') {
			token, rest, err := scanLiteral(expr, IsHexDigit, 16)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)
			expr = rest
			continue
		}

		// Check for binary number (0b...)
		if len(expr) >= 2 && expr[0] == '0' && (expr[1] == 'b' || expr[1] == 'B') {
			token, rest, err := scanLiteral(expr, IsBinaryDigit, 2)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token)
			expr = rest
			continue
		}

		// Check for decimal number
		if IsDigit(expr[0]) {
			end := 0
			for end < len(expr) && IsDigit(expr[end]) {
				end++
			}
			num, err := registers.ParseUnsigned(expr[:end], 10)
			if err != nil {
				return nil, invalid("invalid number: %s", expr[:end])
			}
			tokens = append(tokens, Token{Type: TokenNumber, Value: expr[:end], Num: num})
			expr = expr[end:]
			continue
		}

		// Check for register (single uppercase letter identifier)
		if IsAlpha(expr[0]) {
			end := 0
			for end < len(expr) && IsAlphaNum(expr[end]) {
				end++
			}
			name := expr[:end]
			r, ok := registers.ParseRegister(name)
			if !ok {
				return nil, invalid("unknown identifier: %s", name)
			}
			tokens = append(tokens, Token{Type: TokenRegister, Value: name, Register: r})
			expr = expr[end:]
			continue
		}

		return nil, invalid("unexpected character: %c", expr[0])
	}

	return tokens, nil
}

// Registers returns the registers referenced by an expression, in order of
// appearance and without duplicates.
func Registers(expr string) ([]registers.Register, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return nil, err
	}

	var result []registers.Register
	seen := make(map[registers.Register]bool)

	for _, token := range tokens {
		if token.Type == TokenRegister && !seen[token.Register] {
			seen[token.Register] = true
			result = append(result, token.Register)
		}
	}

	return result, nil
}
