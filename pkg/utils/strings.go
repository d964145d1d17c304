package utils

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Formats an integer as the binary digits of its unsigned two's complement view,
// zero padded to at least minDigits digits
func FormatBinary[T constraints.Integer](value T, minDigits int) string {
	return padLeft(strconv.FormatUint(Unsigned(value), 2), minDigits)
}

// Formats an integer as the uppercase hex digits of its unsigned two's complement
// view, zero padded to at least minDigits digits
func FormatHex[T constraints.Integer](value T, minDigits int) string {
	return padLeft(strings.ToUpper(strconv.FormatUint(Unsigned(value), 16)), minDigits)
}

func padLeft(digits string, minDigits int) string {
	if len(digits) >= minDigits {
		return digits
	}

	return strings.Repeat("0", minDigits-len(digits)) + digits
}

// Returns an string containing all formatted sequence items separated by a given separator
func FormatSlice[T any](input []T, separator string) string {
	var builder strings.Builder

	for i, value := range input {
		builder.WriteString(fmt.Sprint(value))

		if i < len(input)-1 {
			builder.WriteString(separator)
		}
	}

	return builder.String()
}
