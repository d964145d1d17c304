// Package utils provides utility functions for the binlang project.
package utils

import (
	"regexp"
	"strings"

	"github.com/fatih/color"
)

// binlang syntax highlighting colors
var (
	keywordColor  = color.New(color.FgMagenta, color.Bold)
	registerColor = color.New(color.FgGreen)
	numberColor   = color.New(color.FgYellow)
	commentColor  = color.New(color.FgHiBlack)
	operatorColor = color.New(color.FgRed)
	functionColor = color.New(color.FgHiYellow)
	braceColor    = color.New(color.FgCyan)
)

var keywords = map[string]bool{
	"LOOP":  true,
	"CALL":  true,
	"DELAY": true,
}

// Patterns for syntax elements
var (
	commentPattern    = regexp.MustCompile(`//.*$`)
	numberPattern     = regexp.MustCompile(`\b(?:0[xX][0-9a-fA-F]+|0[bB][01]+|[0-9]+)\b`)
	identifierPattern = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
	operatorPattern   = regexp.MustCompile(`<<|>>|[+\-*/&|^~=]`)
	bracePattern      = regexp.MustCompile(`[{}()]`)
)

// token represents a syntax-highlighted token
type token struct {
	color *color.Color
	start int
	end   int
}

// HighlightLine applies syntax highlighting to one line of binlang source.
// Keywords, registers, function names (after CALL or in a definition header),
// numbers, operators and comments get their own colors.
func HighlightLine(line string) string {
	if line == "" {
		return ""
	}

	var tokens []token
	add := func(matches [][]int, c *color.Color) {
		for _, match := range matches {
			if !overlapsAny(match[0], match[1], tokens) {
				tokens = append(tokens, token{color: c, start: match[0], end: match[1]})
			}
		}
	}

	add(commentPattern.FindAllStringIndex(line, -1), commentColor)
	add(numberPattern.FindAllStringIndex(line, -1), numberColor)

	for i, match := range identifierPattern.FindAllStringIndex(line, -1) {
		if overlapsAny(match[0], match[1], tokens) {
			continue
		}

		word := line[match[0]:match[1]]
		var c *color.Color
		switch {
		case keywords[strings.ToUpper(word)]:
			c = keywordColor
		case len(word) == 1 && word[0] >= 'A' && word[0] <= 'Z':
			c = registerColor
		case i == 0 || i == 1:
			// CALL NAME or NAME A, B {
			c = functionColor
		}

		if c != nil {
			tokens = append(tokens, token{color: c, start: match[0], end: match[1]})
		}
	}

	add(operatorPattern.FindAllStringIndex(line, -1), operatorColor)
	add(bracePattern.FindAllStringIndex(line, -1), braceColor)

	return buildHighlightedString(line, tokens)
}

// overlapsAny checks if a range overlaps with any existing token
func overlapsAny(start, end int, tokens []token) bool {
	for _, t := range tokens {
		if start < t.end && end > t.start {
			return true
		}
	}
	return false
}

// buildHighlightedString constructs the final string with color codes
func buildHighlightedString(code string, tokens []token) string {
	if len(tokens) == 0 {
		return code
	}

	sortTokens(tokens)

	var result strings.Builder
	pos := 0

	for _, t := range tokens {
		if t.start > pos {
			result.WriteString(code[pos:t.start])
		}
		result.WriteString(t.color.Sprint(code[t.start:t.end]))
		pos = t.end
	}

	if pos < len(code) {
		result.WriteString(code[pos:])
	}

	return result.String()
}

// sortTokens sorts tokens by start position (simple insertion sort for small arrays)
func sortTokens(tokens []token) {
	for i := 1; i < len(tokens); i++ {
		key := tokens[i]
		j := i - 1
		for j >= 0 && tokens[j].start > key.start {
			tokens[j+1] = tokens[j]
			j--
		}
		tokens[j+1] = key
	}
}
