// Package interpreter executes expanded binlang programs against the global
// register file.
//
// The typical execution flow is:
//
//  1. Create a Session with NewSession(options...)
//  2. Run a whole program with session.Run(ctx, source), or feed it chunk by
//     chunk with session.Eval(ctx, chunk)
//  3. Read the Report: one StepResult per executed instruction, the final
//     registers and their history
package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Manu343726/binlang/pkg/lang"
	"github.com/Manu343726/binlang/pkg/lang/expr"
	"github.com/Manu343726/binlang/pkg/lang/instruction"
	"github.com/Manu343726/binlang/pkg/lang/preprocessor"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/lang/trace"
)

// StepResult is the outcome of one executed instruction. Exactly one of
// Output and Error is set.
type StepResult struct {
	Step        int    `yaml:"step"`
	Line        int    `yaml:"line"`
	Instruction string `yaml:"instruction"`
	Context     string `yaml:"context,omitempty"`
	Kind        string `yaml:"kind"`
	// Assignment target
	Target string `yaml:"target,omitempty"`
	// Evaluated value, for assignments and expressions
	Value *registers.Word `yaml:"value,omitempty"`
	// Delay in milliseconds, as written in the source
	Milliseconds int    `yaml:"delay_ms,omitempty"`
	Output       string `yaml:"output,omitempty"`
	Error        string `yaml:"error,omitempty"`
	ErrorKind    string `yaml:"error_kind,omitempty"`

	Err error `yaml:"-"`
}

func (s *StepResult) Failed() bool {
	return s.Err != nil
}

// ExecutionResult contains the result of executing a program
type ExecutionResult struct {
	Steps      []StepResult
	StopReason StopReason
	// Context error when cancelled
	Error error
}

// SleepFunc waits for d or until ctx is done, whichever happens first
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Engine executes expanded instructions in order. Each instruction is
// evaluated against its own scope snapshot; assignments reach the global
// registers when the instruction runs in the global frame or when the target
// register already exists globally.
type Engine struct {
	globals  *registers.Scope
	bank     registers.RegisterBank
	history  *History
	callback EventCallback
	logger   *slog.Logger
	sleep    SleepFunc
	scale    float64
	maxDelay time.Duration
	steps    int
}

type EngineOption func(*Engine)

// WithDelayScale multiplies every delay by scale. Zero skips delays.
func WithDelayScale(scale float64) EngineOption {
	return func(e *Engine) {
		e.scale = scale
	}
}

// WithMaxDelay caps every delay. Zero or less means no cap.
func WithMaxDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.maxDelay = d
	}
}

func WithSleep(sleep SleepFunc) EngineOption {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

func WithEventCallback(callback EventCallback) EngineOption {
	return func(e *Engine) {
		e.callback = callback
	}
}

func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEngineTracer traces every write to the global registers
func WithEngineTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.bank = trace.MakeTracedRegisterBank(e.globals, "globals", trace.MakeTracerWithContextStack(tracer))
	}
}

func NewEngine(globals *registers.Scope, history *History, opts ...EngineOption) *Engine {
	if globals == nil {
		globals = registers.NewScope()
	}
	if history == nil {
		history = NewHistory()
	}

	e := &Engine{
		globals: globals,
		bank:    globals,
		history: history,
		logger:  slog.Default(),
		sleep:   sleepContext,
		scale:   1,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) Globals() *registers.Scope {
	return e.globals
}

func (e *Engine) History() *History {
	return e.history
}

// Steps returns the number of steps executed since the last reset
func (e *Engine) Steps() int {
	return e.steps
}

// Reset restarts step numbering. Registers and history belong to the caller.
func (e *Engine) Reset() {
	e.steps = 0
}

// delayFor returns the wall time a DELAY of ms milliseconds waits
func (e *Engine) delayFor(ms int) time.Duration {
	d := time.Duration(float64(ms) * e.scale * float64(time.Millisecond))

	if e.maxDelay > 0 && d > e.maxDelay {
		return e.maxDelay
	}

	return d
}

// Execute runs program until it completes, ctx is cancelled or the event
// callback asks to stop. Instruction errors are recorded in their step and
// execution continues.
func (e *Engine) Execute(ctx context.Context, program []preprocessor.ExpandedInstruction) *ExecutionResult {
	result := &ExecutionResult{StopReason: StopCompleted}

	for i := range program {
		if err := ctx.Err(); err != nil {
			return e.cancelled(result, err)
		}

		step, err := e.Step(ctx, &program[i])
		if err != nil {
			return e.cancelled(result, err)
		}

		result.Steps = append(result.Steps, *step)

		event := EventStep
		switch {
		case step.Failed():
			event = EventError
		case step.Kind == instruction.Delay.String():
			event = EventDelay
		}

		if e.callback != nil && !e.callback(event, step) {
			result.StopReason = StopCallback
			return result
		}
	}

	return result
}

func (e *Engine) cancelled(result *ExecutionResult, err error) *ExecutionResult {
	e.logger.Info("execution cancelled", slog.Int("steps", len(result.Steps)), slog.Any("error", err))

	result.StopReason = StopCancelled
	result.Error = err

	if e.callback != nil {
		e.callback(EventCancelled, nil)
	}

	return result
}

// Step executes a single instruction and records it in the history. The
// returned error is only set when ctx is cancelled during a delay; the
// step is then discarded.
func (e *Engine) Step(ctx context.Context, inst *preprocessor.ExpandedInstruction) (*StepResult, error) {
	step := &StepResult{
		Step:        e.steps + 1,
		Line:        inst.Line.Number,
		Instruction: inst.Line.Text,
		Context:     inst.Context,
	}

	parsed, err := instruction.Parse(inst.Line.Text)
	if err != nil {
		step.Kind = instruction.Delay.String()
		e.fail(step, err)
	} else {
		step.Kind = parsed.Kind.String()

		switch parsed.Kind {
		case instruction.Delay:
			step.Milliseconds = parsed.Milliseconds
			if err := e.sleep(ctx, e.delayFor(parsed.Milliseconds)); err != nil {
				return nil, err
			}
			step.Output = fmt.Sprintf("Delayed for %dms", parsed.Milliseconds)

		case instruction.Assignment:
			e.assign(step, inst, parsed)

		default:
			e.evaluate(step, inst, parsed)
		}
	}

	e.steps = step.Step
	e.history.Record(step.Step, step.Line, e.globals)

	e.logger.Debug("step",
		slog.Int("step", step.Step),
		slog.Int("line", step.Line),
		slog.String("instruction", step.Instruction),
		slog.String("context", step.Context),
		slog.Bool("failed", step.Failed()))

	return step, nil
}

func (e *Engine) fail(step *StepResult, err error) {
	step.Err = lang.AtLine(step.Line, step.Instruction, err)
	step.Error = err.Error()
	step.ErrorKind = lang.Kind(err)
}

func (e *Engine) assign(step *StepResult, inst *preprocessor.ExpandedInstruction, parsed instruction.Instruction) {
	step.Target = parsed.Target.String()

	value, err := expr.Eval(parsed.Expr, inst.Scope)
	if err != nil {
		e.fail(step, err)
		return
	}

	if inst.Global || e.globals.Has(parsed.Target) {
		e.bank.Write(value, parsed.Target)
	}

	step.Value = &value
	step.Output = FormatAssignment(parsed.Target, value)
}

func (e *Engine) evaluate(step *StepResult, inst *preprocessor.ExpandedInstruction, parsed instruction.Instruction) {
	value, err := expr.Eval(parsed.Expr, inst.Scope)
	if err != nil {
		e.fail(step, err)
		return
	}

	step.Value = &value
	step.Output = FormatValue(value)
}

// FormatAssignment formats the result of an assignment:
//
//	A = 5
//	Decimal: 5
//	Binary : 0b00000101
//	Hex    : 0x5
func FormatAssignment(target registers.Register, value registers.Word) string {
	return strings.Join([]string{
		fmt.Sprintf("  %s = %s", target, registers.FormatDecimal(value)),
		formatValue(value, registers.HistoryBinaryDigits),
	}, "\n")
}

// FormatValue formats the result of a bare expression
func FormatValue(value registers.Word) string {
	return formatValue(value, 0)
}

func formatValue(value registers.Word, binaryDigits int) string {
	return strings.Join([]string{
		"  Decimal: " + registers.FormatDecimal(value),
		"  Binary : " + registers.FormatBinary(value, binaryDigits),
		"  Hex    : " + registers.FormatHex(value, 0),
	}, "\n")
}
