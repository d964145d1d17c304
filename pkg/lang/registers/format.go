package registers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Manu343726/binlang/pkg/utils"
)

const (
	// Minimum binary digits shown for assignments and history entries
	HistoryBinaryDigits = 8
	// Minimum hex digits shown in history entries
	HistoryHexDigits = 2
)

// FormatDecimal formats a word as a signed decimal integer.
func FormatDecimal(value Word) string {
	return strconv.FormatInt(int64(value), 10)
}

// FormatBinary formats a word as "0b" followed by its 32-bit two's complement
// digits, zero padded to at least minDigits.
func FormatBinary(value Word, minDigits int) string {
	return "0b" + utils.FormatBinary(value, minDigits)
}

// FormatHex formats a word as "0x" followed by its 32-bit two's complement
// uppercase hex digits, zero padded to at least minDigits.
func FormatHex(value Word, minDigits int) string {
	return "0x" + utils.FormatHex(value, minDigits)
}

// FormatHistory formats a word the way history entries show it:
// "0b00000101 0x05 5".
func FormatHistory(value Word) string {
	return fmt.Sprintf("%s %s %s",
		FormatBinary(value, HistoryBinaryDigits),
		FormatHex(value, HistoryHexDigits),
		FormatDecimal(value))
}

// ParseUnsigned parses digits in the given base as an unsigned 32-bit value and
// reinterprets it as a word.
func ParseUnsigned(digits string, base int) (Word, error) {
	value, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return 0, err
	}

	return Word(uint32(value)), nil
}

// ParseValue parses a literal produced by any of the Format functions. The
// format is detected in this order: "0b" binary, "0x" hex, decimal with an
// optional leading '-'.
func ParseValue(text string) (Word, error) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lower, "0b"):
		return ParseUnsigned(text[2:], 2)
	case strings.HasPrefix(lower, "0x"):
		return ParseUnsigned(text[2:], 16)
	case strings.HasPrefix(text, "-"):
		value, err := strconv.ParseInt(text, 10, 32)
		return Word(value), err
	default:
		return ParseUnsigned(text, 10)
	}
}

// BitFrame draws the 32 bits of a word as four byte fields.
func BitFrame(value Word) string {
	fields := make([]utils.BitField, 0, 4)

	for b := 0; b < 4; b++ {
		fields = append(fields, utils.BitField{
			Name:  utils.FormatBinary(utils.ReadBits(value, b*8, 8), 8),
			Begin: b * 8,
			Width: 8,
		})
	}

	return utils.DrawBitFields(fields, 32, "bits")
}
