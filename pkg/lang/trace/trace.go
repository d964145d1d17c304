// Package trace records what the binlang expander and engine do, with a stack
// of contexts (loop iterations, function calls) attached to every trace.
package trace

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Manu343726/binlang/pkg/utils"
)

type Trace struct {
	Operation    string
	ContextStack []string
	Operands     map[string]string
	Result       string
	Error        error
}

func (t *Trace) Depth() int {
	return len(t.ContextStack)
}

func (t *Trace) Context() string {
	if len(t.ContextStack) > 0 {
		return t.ContextStack[len(t.ContextStack)-1]
	} else {
		return ""
	}
}

func (t *Trace) resultString() string {
	if t.Error != nil {
		return fmt.Sprintf("error: %v", t.Error.Error())
	} else if len(t.Result) > 0 {
		return fmt.Sprintf("result: %v", t.Result)
	} else {
		return ""
	}
}

func (t *Trace) joinOperands() string {
	fields := make([]string, 0, len(t.Operands))

	for _, name := range utils.SortedKeys(t.Operands) {
		fields = append(fields, fmt.Sprintf("%v: %v", name, t.Operands[name]))
	}

	return strings.Join(fields, ", ")
}

func (t *Trace) String() string {
	return strings.TrimSpace(fmt.Sprintf("%v %v %s", t.Operation, t.joinOperands(), t.resultString()))
}

func (t *Trace) backtrace(buffer *strings.Builder, prefix ...string) {
	for i := range t.ContextStack {
		frame := t.ContextStack[i]

		for _, p := range prefix {
			buffer.WriteString(p)
		}
		buffer.WriteString(fmt.Sprintf("[%v] %v", len(t.ContextStack)-i-1, frame))
		buffer.WriteString("\n")
	}
}

func (t *Trace) Backtrace() string {
	buffer := strings.Builder{}
	t.backtrace(&buffer)
	return buffer.String()
}

func (t *Trace) VerboseString() string {
	buffer := strings.Builder{}
	buffer.WriteString("Trace:\n")
	t.backtrace(&buffer, " ... ")
	buffer.WriteString(t.String())

	return buffer.String()
}

type Tracer interface {
	SaveTrace(t *Trace)
}

type TracerWithContextStack interface {
	Tracer
	CurrentContext() string
	// Path returns every context below the root, outermost first, joined
	// with " > "
	Path() string
	PushContext(body string, args ...any)
	PopContext()
}

type tracerWithContextStack struct {
	Tracer
	ContextStack
}

func MakeTracerWithContextStack(tracer Tracer) TracerWithContextStack {
	if tracer == nil {
		tracer = Nop()
	}

	return &tracerWithContextStack{
		Tracer:       tracer,
		ContextStack: MakeContextStack(),
	}
}

func (t *tracerWithContextStack) SaveTrace(trace *Trace) {
	trace.ContextStack = append([]string{}, t.stack...)
	t.Tracer.SaveTrace(trace)
}

func (t *tracerWithContextStack) PushContext(body string, args ...any) {
	context := fmt.Sprintf(body, args...)

	t.SaveTrace(&Trace{
		Operation: "BeginContext",
		Operands: map[string]string{
			"context": context,
		},
	})

	t.ContextStack.PushContext("%s", context)
}

func (t *tracerWithContextStack) PopContext() {
	context := t.ContextStack.CurrentContext()
	t.ContextStack.PopContext()

	t.SaveTrace(&Trace{
		Operation: "EndContext",
		Operands: map[string]string{
			"context": context,
		},
	})
}

type ContextStack struct {
	stack []string
}

func MakeContextStack() ContextStack {
	stack := ContextStack{
		stack: make([]string, 0, 8),
	}

	stack.PushContext("root")

	return stack
}

func (s *ContextStack) PushContext(body string, args ...any) {
	s.stack = append(s.stack, fmt.Sprintf(body, args...))
}

func (s *ContextStack) PopContext() {
	if len(s.stack) <= 1 {
		return
	}

	s.stack = s.stack[:len(s.stack)-1]
}

func (s *ContextStack) CurrentContext() string {
	return s.stack[len(s.stack)-1]
}

func (s *ContextStack) Path() string {
	return strings.Join(s.stack[1:], " > ")
}

type nopTracer struct{}

func (nopTracer) SaveTrace(*Trace) {}

// Nop returns a tracer that discards every trace
func Nop() Tracer {
	return nopTracer{}
}

type slogTracer struct {
	logger *slog.Logger
}

// Slog returns a tracer logging every trace at debug level
func Slog(logger *slog.Logger) Tracer {
	if logger == nil {
		logger = slog.Default()
	}

	return &slogTracer{logger: logger}
}

func (t *slogTracer) SaveTrace(trace *Trace) {
	attrs := []any{
		slog.String("context", strings.Join(trace.ContextStack, " > ")),
	}

	for _, name := range utils.SortedKeys(trace.Operands) {
		attrs = append(attrs, slog.String(name, trace.Operands[name]))
	}

	if trace.Result != "" {
		attrs = append(attrs, slog.String("result", trace.Result))
	}

	if trace.Error != nil {
		attrs = append(attrs, slog.Any("error", trace.Error))
	}

	t.logger.Debug(trace.Operation, attrs...)
}

// Recorder keeps every trace in memory
type Recorder struct {
	Traces []*Trace
}

func (r *Recorder) SaveTrace(trace *Trace) {
	r.Traces = append(r.Traces, trace)
}

// Operations returns the traces with the given operation name
func (r *Recorder) Operations(operation string) []*Trace {
	var result []*Trace

	for _, t := range r.Traces {
		if t.Operation == operation {
			result = append(result, t)
		}
	}

	return result
}

type multiTracer []Tracer

func (m multiTracer) SaveTrace(trace *Trace) {
	for _, t := range m {
		t.SaveTrace(trace)
	}
}

// Multi returns a tracer forwarding every trace to all of tracers
func Multi(tracers ...Tracer) Tracer {
	return multiTracer(tracers)
}
