package preprocessor

import (
	"fmt"
	"log/slog"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/lang/expr"
	"github.com/Manu343726/binlang/pkg/lang/instruction"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/lang/source"
	"github.com/Manu343726/binlang/pkg/lang/trace"
	"github.com/Manu343726/binlang/pkg/utils"
)

// DefaultMaxInstructions bounds the length of an expanded program
const DefaultMaxInstructions = 1 << 20

// ExpandedInstruction is one executable line of the flat program, with the
// register scope it must be evaluated against.
type ExpandedInstruction struct {
	Line source.Line
	// Snapshot of the registers visible to the instruction
	Scope *registers.Scope
	// Whether the instruction runs in the global frame instead of a call
	Global bool
	// Enclosing loop iterations and calls, e.g. "LOOP 3 [2/3] > CALL INC"
	Context string
}

func (i *ExpandedInstruction) String() string {
	frame := "global"
	if !i.Global {
		frame = "local"
	}

	if i.Context == "" {
		return fmt.Sprintf("%d: %s (%s %s)", i.Line.Number, i.Line.Text, frame, i.Scope)
	}

	return fmt.Sprintf("%d: %s (%s %s) [%s]", i.Line.Number, i.Line.Text, frame, i.Scope, i.Context)
}

// callFrame is the register scope of an inlined call
type callFrame struct {
	scope   *registers.Scope
	written map[registers.Register]bool
}

type Expander struct {
	table   *FunctionTable
	globals *registers.Scope
	tracer  trace.TracerWithContextStack
	logger  *slog.Logger
	max     int
	out     []ExpandedInstruction
}

type Option func(*Expander)

// WithTracer traces every emitted instruction, loop iteration, call and
// register projection
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Expander) {
		e.tracer = trace.MakeTracerWithContextStack(tracer)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) {
		e.logger = logger
	}
}

// WithMaxInstructions fails the expansion when it would emit more than max
// instructions. Zero or less disables the limit.
func WithMaxInstructions(max int) Option {
	return func(e *Expander) {
		e.max = max
	}
}

func NewExpander(table *FunctionTable, opts ...Option) *Expander {
	e := &Expander{
		table:  table,
		tracer: trace.MakeTracerWithContextStack(trace.Nop()),
		logger: slog.Default(),
		max:    DefaultMaxInstructions,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.table == nil {
		e.table = NewFunctionTable()
	}

	return e
}

// Expand expands lines into a flat instruction stream, see Expander.Expand
func Expand(lines []source.Line, table *FunctionTable, globals *registers.Scope, opts ...Option) ([]ExpandedInstruction, error) {
	return NewExpander(table, opts...).Expand(lines, globals)
}

// Expand turns lines into a flat instruction stream. Definitions are skipped,
// loops are unrolled and calls are inlined. globals holds the registers at the
// start of the program and is not modified.
//
// The expander evaluates assignments as it emits them, without running delays,
// so that every instruction is paired with the scope it will observe. Any error
// aborts the expansion and no instruction is returned.
func (e *Expander) Expand(lines []source.Line, globals *registers.Scope) ([]ExpandedInstruction, error) {
	nodes, err := parseBlocks(lines, topLevel)
	if err != nil {
		return nil, err
	}

	if globals == nil {
		globals = registers.NewScope()
	}

	e.globals = globals.Clone()
	e.out = nil

	if err := e.walk(nodes, nil); err != nil {
		e.logger.Debug("expansion failed", slog.Any("error", err))
		return nil, err
	}

	e.logger.Debug("expansion done",
		slog.Int("lines", len(lines)),
		slog.Int("instructions", len(e.out)),
		slog.Int("functions", e.table.Len()))

	return e.out, nil
}

// Globals returns the register state the program leaves behind, as modelled
// by the last expansion
func (e *Expander) Globals() *registers.Scope {
	return e.globals
}

func (e *Expander) walk(nodes []node, call *callFrame) error {
	for _, n := range nodes {
		var err error

		switch n.header.Kind {
		case instruction.FunctionOpen:
			// Collected beforehand
			continue
		case instruction.LoopOpen:
			err = e.expandLoop(n, call)
		case instruction.Call:
			err = e.expandCall(n)
		default:
			err = e.emit(n.line, call)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Expander) expandLoop(n node, call *callFrame) error {
	count := n.header.Count

	for k := 1; k <= count; k++ {
		e.tracer.PushContext("LOOP %d [%d/%d]", count, k, count)
		err := e.walk(n.body, call)
		e.tracer.PopContext()

		if err != nil {
			return err
		}
	}

	return nil
}

// argument resolves a call argument: a defined global register, or a binary,
// hex or decimal literal
func (e *Expander) argument(arg string) (registers.Word, error) {
	if r, ok := registers.ParseRegister(arg); ok {
		value, err := e.globals.Read(r)
		if err != nil {
			return 0, lang.MakeError(lang.ErrInvalidArgument, "register %s is not defined", arg)
		}
		return value, nil
	}

	value, err := registers.ParseValue(arg)
	if err != nil {
		return 0, lang.MakeError(lang.ErrInvalidArgument, "%q is neither a register nor a literal", arg)
	}

	return value, nil
}

func (e *Expander) expandCall(n node) error {
	located := func(err error) error {
		return lang.AtLine(n.line.Number, n.line.Text, err)
	}

	def, ok := e.table.Lookup(n.header.Name)
	if !ok {
		return located(lang.MakeError(lang.ErrUndefinedFunction, "function %s is not defined", n.header.Name))
	}

	if len(n.header.Args) != len(def.Params) {
		return located(lang.MakeError(lang.ErrArityMismatch, "%s expects %d arguments, got %d",
			def.Signature(), len(def.Params), len(n.header.Args)))
	}

	call := &callFrame{
		scope:   e.globals.Clone(),
		written: make(map[registers.Register]bool),
	}

	for i, arg := range n.header.Args {
		value, err := e.argument(arg)
		if err != nil {
			return located(err)
		}
		call.scope.Write(value, def.Params[i])
	}

	e.tracer.PushContext("CALL %s", def.Name)
	err := e.walk(def.nodes, call)
	e.tracer.PopContext()

	if err != nil {
		return err
	}

	// Registers written by the call that also exist globally are projected
	// back to the global scope
	for _, r := range utils.SortedKeys(call.written) {
		if !e.globals.Has(r) {
			continue
		}

		value, _ := call.scope.Read(r)
		e.globals.Write(value, r)

		e.tracer.SaveTrace(&trace.Trace{
			Operation: "Project",
			Operands: map[string]string{
				"function": def.Name,
				"register": r.String(),
			},
			Result: registers.FormatDecimal(value),
		})
	}

	return nil
}

// emit appends an instruction paired with a snapshot of the current frame's
// scope, then applies it to the frame if it is an assignment
func (e *Expander) emit(line source.Line, call *callFrame) error {
	if e.max > 0 && len(e.out) >= e.max {
		return lang.AtLine(line.Number, line.Text,
			lang.MakeError(lang.ErrInvalidArgument, "program expands to more than %d instructions", e.max))
	}

	scope := e.globals
	if call != nil {
		scope = call.scope
	}

	e.out = append(e.out, ExpandedInstruction{
		Line:    line,
		Scope:   scope.Clone(),
		Global:  call == nil,
		Context: e.tracer.Path(),
	})

	e.tracer.SaveTrace(&trace.Trace{
		Operation: "Emit",
		Operands: map[string]string{
			"line":  fmt.Sprint(line.Number),
			"text":  line.Text,
			"scope": scope.String(),
		},
	})

	// Errors are reported when the instruction executes
	inst, err := instruction.Parse(line.Text)
	if err != nil || inst.Kind != instruction.Assignment {
		return nil
	}

	value, err := expr.Eval(inst.Expr, scope)
	if err != nil {
		return nil
	}

	scope.Write(value, inst.Target)
	if call != nil {
		call.written[inst.Target] = true
	}

	return nil
}
