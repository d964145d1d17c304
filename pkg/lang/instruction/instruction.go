// Package instruction classifies binlang source lines: plain instructions
// (assignments, bare expressions and delays) and the block lines that the
// preprocessor expands (loop and function headers, calls and block closes).
package instruction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/lang/registers"
)

// Reserved words. Keywords are matched case-insensitively.
const (
	KeywordLoop  = "LOOP"
	KeywordCall  = "CALL"
	KeywordDelay = "DELAY"
)

// IsKeyword reports whether word is a reserved word, in any case.
func IsKeyword(word string) bool {
	switch strings.ToUpper(word) {
	case KeywordLoop, KeywordCall, KeywordDelay:
		return true
	}

	return false
}

// firstWord returns the first whitespace separated word of text and the rest
func firstWord(text string) (string, string) {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		return text[:i], strings.TrimSpace(text[i+1:])
	}
	return text, ""
}

type Kind int

const (
	Expression Kind = iota
	Assignment
	Delay
)

func (k Kind) String() string {
	switch k {
	case Expression:
		return "Expression"
	case Assignment:
		return "Assignment"
	case Delay:
		return "Delay"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Instruction is one executable line
type Instruction struct {
	Kind Kind
	Text string
	// Assignment target
	Target registers.Register
	// Expression to evaluate, for assignments and bare expressions
	Expr string
	// Delay duration in milliseconds
	Milliseconds int
}

func (i Instruction) String() string {
	return i.Text
}

var assignmentPattern = regexp.MustCompile(`^([A-Z])\s*=(.*)$`)

// Parse classifies an executable line. Only delays can fail to parse here,
// with ErrInvalidDelayFormat; expression errors surface on evaluation.
func Parse(text string) (Instruction, error) {
	text = strings.TrimSpace(text)

	if word, rest := firstWord(text); strings.EqualFold(word, KeywordDelay) {
		ms, err := parseDelay(rest)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Kind: Delay, Text: text, Milliseconds: ms}, nil
	}

	if match := assignmentPattern.FindStringSubmatch(text); match != nil {
		return Instruction{
			Kind:   Assignment,
			Text:   text,
			Target: registers.Register(match[1][0]),
			Expr:   strings.TrimSpace(match[2]),
		}, nil
	}

	return Instruction{Kind: Expression, Text: text, Expr: text}, nil
}

func parseDelay(arg string) (int, error) {
	if arg == "" || strings.ContainsAny(arg, " \t") {
		return 0, lang.MakeError(lang.ErrInvalidDelayFormat, "expected DELAY <milliseconds>, got %q", "DELAY "+arg)
	}

	for i := 0; i < len(arg); i++ {
		if arg[i] < '0' || arg[i] > '9' {
			return 0, lang.MakeError(lang.ErrInvalidDelayFormat, "delay %q is not a non-negative integer", arg)
		}
	}

	ms, err := strconv.Atoi(arg)
	if err != nil {
		return 0, lang.MakeError(lang.ErrInvalidDelayFormat, "delay %q out of range", arg)
	}

	return ms, nil
}
