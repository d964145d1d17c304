// Package lang holds the error kinds shared by every stage of the binlang
// pipeline (lexing, expansion and execution).
package lang

import (
	"errors"
	"fmt"

	"github.com/Manu343726/binlang/internal/translate"
)

var f = translate.From

var (
	// Execution errors, scoped to one instruction
	ErrUndefinedRegister  = errors.New(f("undefined register"))
	ErrInvalidExpression  = errors.New(f("invalid expression"))
	ErrInvalidDelayFormat = errors.New(f("invalid DELAY format"))

	// Expansion errors, abort the whole run
	ErrUndefinedFunction   = errors.New(f("undefined function"))
	ErrArityMismatch       = errors.New(f("arity mismatch"))
	ErrInvalidArgument     = errors.New(f("invalid argument"))
	ErrUnterminatedBlock   = errors.New(f("unterminated block"))
	ErrMissingLoopClose    = errors.New(f("missing closing '}' for LOOP"))
	ErrUnsupportedNesting  = errors.New(f("unsupported nesting"))
	ErrInvalidFunctionName = errors.New(f("invalid function name"))
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrUndefinedRegister, "UndefinedRegister"},
	{ErrInvalidExpression, "InvalidExpression"},
	{ErrInvalidDelayFormat, "InvalidDelayFormat"},
	{ErrUndefinedFunction, "UndefinedFunction"},
	{ErrArityMismatch, "ArityMismatch"},
	{ErrInvalidArgument, "InvalidArgument"},
	{ErrUnterminatedBlock, "UnterminatedBlock"},
	{ErrMissingLoopClose, "MissingLoopClose"},
	{ErrUnsupportedNesting, "UnsupportedNesting"},
	{ErrInvalidFunctionName, "InvalidFunctionName"},
}

// MakeError wraps one of the error kinds with a formatted detail message.
func MakeError(kind error, message string, args ...any) error {
	return fmt.Errorf("%w: "+message, append([]any{kind}, args...)...)
}

// Kind returns the name of the error kind wrapped by err, or "Error" if err
// is not a binlang error.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}

	return "Error"
}

// IsStructural reports whether err is an expansion error, which invalidates
// the whole instruction stream.
func IsStructural(err error) bool {
	switch {
	case errors.Is(err, ErrUndefinedFunction),
		errors.Is(err, ErrArityMismatch),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrUnterminatedBlock),
		errors.Is(err, ErrMissingLoopClose),
		errors.Is(err, ErrUnsupportedNesting),
		errors.Is(err, ErrInvalidFunctionName):
		return true
	}

	return false
}

// LineError locates an error at a source line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// AtLine wraps err with its source location. Errors already located are
// returned unchanged so the innermost location wins.
func AtLine(line int, text string, err error) error {
	if err == nil {
		return nil
	}

	var located *LineError
	if errors.As(err, &located) {
		return err
	}

	return &LineError{Line: line, Text: text, Err: err}
}
