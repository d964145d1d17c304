package utils

import (
	"fmt"
	"strings"
)

// A named range of contiguous units (usually bits) within a frame
type BitField struct {
	Name string

	// First unit of the field within the frame
	Begin int

	// Field width, in units
	Width int
}

// The last unit within the frame used by this field
func (f BitField) TopUnit() int {
	return f.Begin + f.Width - 1
}

// Fills the holes between sorted, non overlapping fields with "(unused)" fields
func fillBitFieldGaps(fields []BitField, frameWidth int) []BitField {
	result := make([]BitField, 0, len(fields))
	current := 0

	for _, field := range fields {
		if field.Begin > current {
			result = append(result, BitField{Name: "(unused)", Begin: current, Width: field.Begin - current})
		} else if field.Begin < current {
			panic("make sure fields are sorted by position and are not overlapping")
		}

		result = append(result, field)
		current = field.Begin + field.Width
	}

	if current < frameWidth {
		result = append(result, BitField{Name: "(unused)", Begin: current, Width: frameWidth - current})
	}

	return result
}

// Centers text in a row of the given length, filling both sides with filler
func centered(text string, length int, filler string) string {
	if len(text) > length {
		panic(fmt.Errorf("text '%v' is %v chars long but target length is only %v chars", text, len(text), length))
	}

	left := (length - len(text)) / 2
	right := length - len(text) - left

	return strings.Repeat(filler, left) + text + strings.Repeat(filler, right)
}

// Draws an ascii diagram of a frame made of contiguous fields, most significant
// unit on the left:
//
//	7            0
//	+------------+
//	|  11111111  |
//	+------------+
//	 <- 8 bits ->
func DrawBitFields(fields []BitField, frameWidth int, unit string) string {
	const (
		arrowLeft  = "<-"
		arrowRight = "->"
	)

	all := fillBitFieldGaps(fields, frameWidth)

	var indices, border, body, widths strings.Builder

	for i := len(all) - 1; i >= 0; i-- {
		field := all[i]

		index := fmt.Sprint(field.TopUnit())
		name := " " + field.Name + " "
		width := fmt.Sprintf(" %v %v ", field.Width, unit)
		cell := max(len(index), len(name), len(arrowLeft)+len(width)+len(arrowRight))

		indices.WriteString(index)
		indices.WriteString(strings.Repeat(" ", cell-len(index)+1))
		border.WriteString("+")
		border.WriteString(strings.Repeat("-", cell))
		body.WriteString("|")
		body.WriteString(centered(name, cell, " "))
		widths.WriteString(" ")
		widths.WriteString(arrowLeft)
		widths.WriteString(centered(width, cell-len(arrowLeft)-len(arrowRight), "-"))
		widths.WriteString(arrowRight)
	}

	indices.WriteString("0")
	border.WriteString("+")
	body.WriteString("|")
	widths.WriteString(" ")

	return strings.Join([]string{
		indices.String(),
		border.String(),
		body.String(),
		border.String(),
		widths.String(),
	}, "\n") + "\n"
}
