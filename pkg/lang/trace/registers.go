package trace

import (
	"github.com/Manu343726/binlang/pkg/lang/registers"
)

type tracedModule struct {
	TracerWithContextStack
	name string
}

func makeTracedModule(name string, tracer TracerWithContextStack) tracedModule {
	return tracedModule{
		TracerWithContextStack: tracer,
		name:                   name,
	}
}

func (t *tracedModule) PushContext(body string, args ...any) {
	t.TracerWithContextStack.PushContext(t.name+" "+body, args...)
}

type tracedRegisterBank struct {
	tracedModule
	registers.RegisterBank
}

// MakeTracedRegisterBank wraps a register bank so every read and write is
// traced
func MakeTracedRegisterBank(impl registers.RegisterBank, name string, tracer TracerWithContextStack) registers.RegisterBank {
	return &tracedRegisterBank{
		tracedModule: makeTracedModule(name, tracer),
		RegisterBank: impl,
	}
}

func (t *tracedRegisterBank) Read(r registers.Register) (registers.Word, error) {
	t.PushContext("Read(r: %v)", r)

	result, err := t.RegisterBank.Read(r)

	trace := &Trace{
		Operation: "Read",
		Operands: map[string]string{
			"r": r.String(),
		},
		Error: err,
	}
	if err == nil {
		trace.Result = registers.FormatDecimal(result)
	}
	t.SaveTrace(trace)

	t.PopContext()

	return result, err
}

func (t *tracedRegisterBank) Write(value registers.Word, dest registers.Register) {
	t.PushContext("Write(value: %v, dest: %v)", value, dest)

	t.RegisterBank.Write(value, dest)

	t.SaveTrace(&Trace{
		Operation: "Write",
		Operands: map[string]string{
			"value": registers.FormatDecimal(value),
			"dest":  dest.String(),
		},
	})

	t.PopContext()
}
