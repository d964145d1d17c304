// Package registers implements the register file of the binlang machine: single
// letter registers holding signed 32-bit words, grouped into scopes.
package registers

import (
	"strings"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/utils"
)

// Word is the value held by a register. Arithmetic wraps at 32 bits.
type Word = int32

// Register names one of the 26 registers, 'A' to 'Z'.
type Register byte

func (r Register) String() string {
	return string(rune(r))
}

// Valid reports whether r is one of the 26 register letters.
func (r Register) Valid() bool {
	return r >= 'A' && r <= 'Z'
}

// ParseRegister parses a register name. Only a single uppercase letter is a
// register.
func ParseRegister(name string) (Register, bool) {
	if len(name) != 1 || !Register(name[0]).Valid() {
		return 0, false
	}

	return Register(name[0]), true
}

// RegisterBank is anything registers can be read from and written to.
type RegisterBank interface {
	Read(r Register) (Word, error)
	Write(value Word, r Register)
}

// Scope maps registers to values. Scopes have value semantics: Clone returns an
// independent copy, and mutations of the copy never reach the original.
type Scope struct {
	values map[Register]Word
}

var _ RegisterBank = (*Scope)(nil)

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{values: make(map[Register]Word)}
}

// ScopeOf creates a scope holding the given values.
func ScopeOf(values map[Register]Word) *Scope {
	s := NewScope()
	for r, v := range values {
		s.values[r] = v
	}
	return s
}

// Read returns the value of a register, or ErrUndefinedRegister if it was
// never assigned.
func (s *Scope) Read(r Register) (Word, error) {
	if value, ok := s.values[r]; ok {
		return value, nil
	}

	return 0, lang.MakeError(lang.ErrUndefinedRegister, "register %q not defined", r.String())
}

// Write assigns a register, creating it if needed.
func (s *Scope) Write(value Word, r Register) {
	s.values[r] = value
}

// Has reports whether a register has been assigned in this scope.
func (s *Scope) Has(r Register) bool {
	_, ok := s.values[r]
	return ok
}

// Len returns the number of assigned registers.
func (s *Scope) Len() int {
	return len(s.values)
}

// Registers returns the assigned registers in alphabetical order.
func (s *Scope) Registers() []Register {
	return utils.SortedKeys(s.values)
}

// Values returns a copy of the register values.
func (s *Scope) Values() map[Register]Word {
	values := make(map[Register]Word, len(s.values))
	for r, v := range s.values {
		values[r] = v
	}
	return values
}

// Clone returns an independent copy of the scope.
func (s *Scope) Clone() *Scope {
	return ScopeOf(s.values)
}

// Clear removes every register.
func (s *Scope) Clear() {
	clear(s.values)
}

func (s *Scope) String() string {
	var builder strings.Builder
	builder.WriteString("{")

	for i, r := range s.Registers() {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(r.String() + ": " + FormatDecimal(s.values[r]))
	}

	builder.WriteString("}")
	return builder.String()
}
