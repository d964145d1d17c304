// Package preprocessor turns binlang source lines into a flat stream of
// executable instructions: function definitions are collected, loops are
// unrolled and calls are inlined with their own register scope.
package preprocessor

import (
	"strings"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/lang/instruction"
	"github.com/Manu343726/binlang/pkg/lang/source"
)

// frame tells which blocks enclose a line
type frame int

const (
	topLevel frame = iota
	inLoop
	inFunction
	inFunctionLoop
)

// node is a source line and, for blocks, the parsed block body
type node struct {
	line   source.Line
	header instruction.Line
	body   []node
	// Closing brace of a block
	end source.Line
}

func opensBlock(text string) bool {
	return strings.HasSuffix(text, "{")
}

func closesBlock(text string) bool {
	return text == "}"
}

// readBlock returns the body of the block opened at lines[start] and the index
// of the line following its closing brace. Braces are matched, so nested
// blocks stay inside the body.
func readBlock(lines []source.Line, start int) ([]source.Line, int, bool) {
	depth := 1

	for j := start + 1; j < len(lines); j++ {
		switch text := lines[j].Text; {
		case opensBlock(text):
			depth++
		case closesBlock(text):
			depth--
			if depth == 0 {
				return lines[start+1 : j], j + 1, true
			}
		}
	}

	return nil, len(lines), false
}

// parseBlocks builds the block tree of lines, checking the nesting rules: a
// loop body holds plain lines and calls, a function body holds plain lines and
// loops of plain lines, definitions only appear at the top level.
func parseBlocks(lines []source.Line, f frame) ([]node, error) {
	var nodes []node

	for i := 0; i < len(lines); {
		line := lines[i]

		header, err := instruction.Classify(line.Text)
		if err != nil {
			return nil, lang.AtLine(line.Number, line.Text, err)
		}

		n := node{line: line, header: header}

		switch header.Kind {
		case instruction.BlockClose:
			return nil, lang.AtLine(line.Number, line.Text,
				lang.MakeError(lang.ErrUnterminatedBlock, "unexpected '}' without an open block"))

		case instruction.LoopOpen:
			if f == inLoop || f == inFunctionLoop {
				return nil, lang.AtLine(line.Number, line.Text,
					lang.MakeError(lang.ErrUnsupportedNesting, "LOOP inside LOOP"))
			}

			body, next, ok := readBlock(lines, i)
			if !ok {
				return nil, lang.AtLine(line.Number, line.Text,
					lang.MakeError(lang.ErrMissingLoopClose, "LOOP %d", header.Count))
			}

			child := inLoop
			if f == inFunction {
				child = inFunctionLoop
			}

			if n.body, err = parseBlocks(body, child); err != nil {
				return nil, err
			}

			n.end = lines[next-1]
			nodes = append(nodes, n)
			i = next
			continue

		case instruction.FunctionOpen:
			if f != topLevel {
				return nil, lang.AtLine(line.Number, line.Text,
					lang.MakeError(lang.ErrUnsupportedNesting, "function %s defined inside a block", header.Name))
			}

			body, next, ok := readBlock(lines, i)
			if !ok {
				return nil, lang.AtLine(line.Number, line.Text,
					lang.MakeError(lang.ErrUnterminatedBlock, "function %s is missing its closing '}'", header.Name))
			}

			if n.body, err = parseBlocks(body, inFunction); err != nil {
				return nil, err
			}

			n.end = lines[next-1]
			nodes = append(nodes, n)
			i = next
			continue

		case instruction.Call:
			if f == inFunction || f == inFunctionLoop {
				return nil, lang.AtLine(line.Number, line.Text,
					lang.MakeError(lang.ErrUnsupportedNesting, "CALL %s inside a function body", header.Name))
			}
		}

		nodes = append(nodes, n)
		i++
	}

	return nodes, nil
}
