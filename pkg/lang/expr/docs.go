package expr

import (
	"fmt"
	"strings"
)

// OperatorLevel is a group of operators sharing precedence
type OperatorLevel struct {
	Operators []string
	Name      string
}

// Precedence lists the operator levels, tightest first
var Precedence = []OperatorLevel{
	{[]string{"~", "-", "+"}, "unary not, negation and plus"},
	{[]string{"*", "/"}, "multiplication and division (truncates toward zero)"},
	{[]string{"+", "-"}, "addition and subtraction (wrapping)"},
	{[]string{"<<", ">>"}, "shifts (count masked to 5 bits, >> is arithmetic)"},
	{[]string{"&"}, "bitwise and"},
	{[]string{"^"}, "bitwise xor"},
	{[]string{"|"}, "bitwise or"},
}

// Documentation describes the expression language, left padded by leftpad
// spaces
func Documentation(leftpad int) string {
	pad := strings.Repeat(" ", leftpad)

	var builder strings.Builder
	builder.WriteString(pad + "Values: signed 32-bit words, arithmetic wraps.\n")
	builder.WriteString(pad + "Literals: decimal (42), hexadecimal (0x2A) and binary (0b101010).\n")
	builder.WriteString(pad + "Registers: single uppercase letters A to Z.\n\n")
	builder.WriteString(pad + "Operators, tightest first (binary operators are left associative):\n\n")

	for i, level := range Precedence {
		builder.WriteString(fmt.Sprintf("%s %d. %-10s %s\n", pad, i+1, strings.Join(level.Operators, " "), level.Name))
	}

	return builder.String()
}

// Like Documentation(), but with zero leftpad
func DocString() string {
	return Documentation(0)
}
