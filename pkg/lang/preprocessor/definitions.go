package preprocessor

import (
	"fmt"
	"strings"

	"github.com/Manu343726/binlang/pkg/lang/instruction"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/lang/source"
	"github.com/Manu343726/binlang/pkg/utils"
)

// FunctionDef is a collected function definition. Definitions are immutable
// once collected.
type FunctionDef struct {
	Name   string
	Params []registers.Register
	// Raw body lines, without the header and the closing brace
	Body []source.Line
	// Line of the definition header
	Line int

	nodes []node
}

// Signature returns the definition header, e.g. "INC A, B"
func (d *FunctionDef) Signature() string {
	return fmt.Sprintf("%s %s", d.Name, utils.FormatSlice(d.Params, ", "))
}

// FunctionTable maps upper-cased function names to their definitions
type FunctionTable struct {
	functions map[string]*FunctionDef
}

func NewFunctionTable() *FunctionTable {
	return &FunctionTable{
		functions: make(map[string]*FunctionDef),
	}
}

// Define adds a definition. A previous definition with the same name is
// replaced.
func (t *FunctionTable) Define(def *FunctionDef) {
	t.functions[strings.ToUpper(def.Name)] = def
}

// Lookup finds a function by name, in any case
func (t *FunctionTable) Lookup(name string) (*FunctionDef, bool) {
	def, ok := t.functions[strings.ToUpper(name)]
	return def, ok
}

// Names returns the defined function names in alphabetical order
func (t *FunctionTable) Names() []string {
	return utils.SortedKeys(t.functions)
}

func (t *FunctionTable) Len() int {
	return len(t.functions)
}

// Clear removes every definition
func (t *FunctionTable) Clear() {
	clear(t.functions)
}

// Collect adds every function defined in lines to the table. Collection is a
// pre-pass over the whole program, so calls may appear before the definition
// they use. When a name is defined twice the last definition wins.
func (t *FunctionTable) Collect(lines []source.Line) error {
	nodes, err := parseBlocks(lines, topLevel)
	if err != nil {
		return err
	}

	for _, n := range nodes {
		if n.header.Kind != instruction.FunctionOpen {
			continue
		}

		t.Define(&FunctionDef{
			Name:   n.header.Name,
			Params: n.header.Params,
			Body:   bodyLines(n),
			Line:   n.line.Number,
			nodes:  n.body,
		})
	}

	return nil
}

// CollectDefinitions builds a function table from every definition in lines
func CollectDefinitions(lines []source.Line) (*FunctionTable, error) {
	table := NewFunctionTable()

	if err := table.Collect(lines); err != nil {
		return nil, err
	}

	return table, nil
}

// bodyLines flattens a block body back into its source lines, closing braces
// included
func bodyLines(n node) []source.Line {
	var lines []source.Line

	for _, child := range n.body {
		lines = append(lines, child.line)
		if child.header.Kind == instruction.LoopOpen {
			lines = append(lines, bodyLines(child)...)
			lines = append(lines, child.end)
		}
	}

	return lines
}
