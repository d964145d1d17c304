package instruction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/lang/registers"
)

type LineKind int

const (
	// Plain executable line, see Parse
	Plain LineKind = iota
	// LOOP n {
	LoopOpen
	// NAME p1, p2 {
	FunctionOpen
	// CALL NAME a1, a2
	Call
	// }
	BlockClose
)

func (k LineKind) String() string {
	switch k {
	case Plain:
		return "Plain"
	case LoopOpen:
		return "LoopOpen"
	case FunctionOpen:
		return "FunctionOpen"
	case Call:
		return "Call"
	case BlockClose:
		return "BlockClose"
	}

	return fmt.Sprintf("LineKind(%d)", int(k))
}

// Line is the block structure of one source line
type Line struct {
	Kind LineKind
	// Loop iteration count
	Count int
	// Function name, upper-cased, for definitions and calls
	Name string
	// Definition parameters
	Params []registers.Register
	// Raw call arguments
	Args []string
}

var functionNamePattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// FunctionName validates and normalizes (upper-cases) a function name. Single
// register letters and reserved words are rejected with ErrInvalidFunctionName.
func FunctionName(name string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))

	switch {
	case !functionNamePattern.MatchString(upper):
		return "", lang.MakeError(lang.ErrInvalidFunctionName, "%q is not a valid function name", name)
	case IsKeyword(upper):
		return "", lang.MakeError(lang.ErrInvalidFunctionName, "%q is a reserved word", name)
	case len(upper) == 1:
		return "", lang.MakeError(lang.ErrInvalidFunctionName, "%q is a register name", name)
	}

	return upper, nil
}

// splitList splits a comma separated list, trimming every item
func splitList(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	items := strings.Split(text, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

// Classify returns the block structure of a line. Any line ending in '{' is a
// block header: a loop when it starts with LOOP, a function definition
// otherwise.
func Classify(text string) (Line, error) {
	text = strings.TrimSpace(text)
	word, rest := firstWord(text)

	switch {
	case text == "}":
		return Line{Kind: BlockClose}, nil

	case strings.EqualFold(word, KeywordLoop):
		return classifyLoop(text, rest)

	case strings.EqualFold(word, KeywordCall):
		return classifyCall(rest)

	case strings.HasSuffix(text, "{"):
		return classifyFunction(strings.TrimSpace(strings.TrimSuffix(text, "{")))
	}

	return Line{Kind: Plain}, nil
}

func classifyLoop(text, rest string) (Line, error) {
	if !strings.HasSuffix(rest, "{") {
		return Line{}, lang.MakeError(lang.ErrInvalidArgument, "expected LOOP <count> {, got %q", text)
	}

	arg := strings.TrimSpace(strings.TrimSuffix(rest, "{"))
	count, err := strconv.ParseUint(arg, 10, 31)
	if err != nil {
		return Line{}, lang.MakeError(lang.ErrInvalidArgument, "loop count %q is not a non-negative integer", arg)
	}

	return Line{Kind: LoopOpen, Count: int(count)}, nil
}

func classifyCall(rest string) (Line, error) {
	name, args := firstWord(rest)
	if name == "" {
		return Line{}, lang.MakeError(lang.ErrInvalidFunctionName, "CALL without a function name")
	}

	// Tolerate "CALL F, A, B"
	name = strings.TrimSuffix(name, ",")

	normalized, err := FunctionName(name)
	if err != nil {
		return Line{}, err
	}

	return Line{Kind: Call, Name: normalized, Args: splitList(args)}, nil
}

func classifyFunction(header string) (Line, error) {
	name, params := firstWord(header)

	normalized, err := FunctionName(name)
	if err != nil {
		return Line{}, err
	}

	items := splitList(params)
	if len(items) == 0 {
		return Line{}, lang.MakeError(lang.ErrInvalidArgument, "function %s declares no parameters", normalized)
	}

	result := Line{Kind: FunctionOpen, Name: normalized}
	seen := make(map[registers.Register]bool)

	for _, item := range items {
		r, ok := registers.ParseRegister(item)
		if !ok {
			return Line{}, lang.MakeError(lang.ErrInvalidArgument, "parameter %q of %s is not a register", item, normalized)
		}
		if seen[r] {
			return Line{}, lang.MakeError(lang.ErrInvalidArgument, "parameter %s of %s declared twice", item, normalized)
		}
		seen[r] = true
		result.Params = append(result.Params, r)
	}

	return result, nil
}
