package registers

import (
	"math"
	"testing"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegister(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"uppercase letter", "A", true},
		{"last letter", "Z", true},
		{"lowercase letter", "a", false},
		{"two letters", "AB", false},
		{"digit", "1", false},
		{"empty", "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, ok := ParseRegister(test.input)
			assert.Equal(t, test.valid, ok)
			if ok {
				assert.Equal(t, test.input, r.String())
			}
		})
	}
}

func TestScope_ReadWrite(t *testing.T) {
	s := NewScope()

	_, err := s.Read('A')
	assert.ErrorIs(t, err, lang.ErrUndefinedRegister)
	assert.False(t, s.Has('A'))

	s.Write(5, 'A')
	value, err := s.Read('A')
	require.NoError(t, err)
	assert.Equal(t, Word(5), value)
	assert.True(t, s.Has('A'))
	assert.Equal(t, 1, s.Len())
}

func TestScope_CloneIsIndependent(t *testing.T) {
	global := ScopeOf(map[Register]Word{'A': 1, 'B': 2})
	local := global.Clone()

	local.Write(10, 'A')
	local.Write(3, 'C')

	a, _ := global.Read('A')
	assert.Equal(t, Word(1), a)
	assert.False(t, global.Has('C'))

	a, _ = local.Read('A')
	assert.Equal(t, Word(10), a)
}

func TestScope_Registers(t *testing.T) {
	s := ScopeOf(map[Register]Word{'C': 1, 'A': 2, 'B': 3})
	assert.Equal(t, []Register{'A', 'B', 'C'}, s.Registers())

	s.Clear()
	assert.Empty(t, s.Registers())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		value   Word
		decimal string
		binary  string
		hex     string
		history string
	}{
		{"zero", 0, "0", "0b00000000", "0x00", "0b00000000 0x00 0"},
		{"five", 5, "5", "0b00000101", "0x05", "0b00000101 0x05 5"},
		{"byte", 255, "255", "0b11111111", "0xFF", "0b11111111 0xFF 255"},
		{"wide", 0x1234, "4660", "0b1001000110100", "0x1234", "0b1001000110100 0x1234 4660"},
		{"negative", -1, "-1", "0b11111111111111111111111111111111", "0xFFFFFFFF", "0b11111111111111111111111111111111 0xFFFFFFFF -1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.decimal, FormatDecimal(test.value))
			assert.Equal(t, test.binary, FormatBinary(test.value, HistoryBinaryDigits))
			assert.Equal(t, test.hex, FormatHex(test.value, HistoryHexDigits))
			assert.Equal(t, test.history, FormatHistory(test.value))
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected Word
		wantErr  bool
	}{
		{input: "0b1010", expected: 10},
		{input: "0B11", expected: 3},
		{input: "0xFF", expected: 255},
		{input: "0xff", expected: 255},
		{input: "42", expected: 42},
		{input: "-42", expected: -42},
		{input: "0xFFFFFFFF", expected: -1},
		{input: "4294967295", expected: -1},
		{input: "-2147483648", expected: math.MinInt32},
		{input: "0b", wantErr: true},
		{input: "0x1G", wantErr: true},
		{input: "0b102", wantErr: true},
		{input: "4294967296", wantErr: true},
		{input: "A", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			value, err := ParseValue(test.input)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, value)
		})
	}
}

func TestFormatParseSymmetry(t *testing.T) {
	values := []Word{0, 1, 5, 10, 255, 256, 0x7FFFFFFF, -1, -5, math.MinInt32}

	for _, value := range values {
		for _, text := range []string{
			FormatDecimal(value),
			FormatBinary(value, 0),
			FormatBinary(value, HistoryBinaryDigits),
			FormatHex(value, 0),
			FormatHex(value, HistoryHexDigits),
		} {
			parsed, err := ParseValue(text)
			require.NoError(t, err, text)
			assert.Equal(t, value, parsed, text)
		}
	}
}

func TestBitFrame(t *testing.T) {
	frame := BitFrame(0x0102F0FF)

	assert.Contains(t, frame, "|  00000001  |  00000010  |  11110000  |  11111111  |")
	assert.Contains(t, frame, "31")
	assert.Contains(t, frame, " <- 8 bits ->")
}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "{}", NewScope().String())
	assert.Equal(t, "{A: 1, B: -2}", ScopeOf(map[Register]Word{'B': -2, 'A': 1}).String())
}
