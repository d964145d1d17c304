// Package source splits binlang source text into logical lines.
package source

import (
	"strings"
)

// DefaultCommentMarker starts a comment that runs to the end of the line.
const DefaultCommentMarker = "//"

// Line is a trimmed, non-empty logical line together with its 1-based line
// number in the original text.
type Line struct {
	Number int
	Text   string
}

func (l Line) String() string {
	return l.Text
}

// Split splits raw text into trimmed, non-empty lines. Full-line comments and
// trailing comments starting with marker are removed; an empty marker uses
// DefaultCommentMarker. Split never fails.
func Split(text string, marker string) []Line {
	if marker == "" {
		marker = DefaultCommentMarker
	}

	var lines []Line

	for i, raw := range strings.Split(text, "\n") {
		if index := strings.Index(raw, marker); index >= 0 {
			raw = raw[:index]
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lines = append(lines, Line{Number: i + 1, Text: line})
	}

	return lines
}

// Texts returns the text of every line.
func Texts(lines []Line) []string {
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}
	return texts
}
