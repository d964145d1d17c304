package interpreter

import (
	"fmt"
	"strings"

	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/utils"
)

// Snapshot is the whole global register file after one step
type Snapshot struct {
	Step      int                       `yaml:"step"`
	Line      int                       `yaml:"line"`
	Registers map[string]registers.Word `yaml:"registers"`
}

func (s Snapshot) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "After step %d (line %d):", s.Step, s.Line)

	if len(s.Registers) == 0 {
		builder.WriteString(" no registers")
		return builder.String()
	}

	for i, name := range utils.SortedKeys(s.Registers) {
		if i > 0 {
			builder.WriteString(" |")
		}
		fmt.Fprintf(&builder, " %s: %s", name, registers.FormatHistory(s.Registers[name]))
	}

	return builder.String()
}

// History keeps, for every register, a log of its value after each step, and
// the snapshot of all registers after each step. Entries are only appended.
type History struct {
	registers map[registers.Register][]string
	steps     []Snapshot
}

func NewHistory() *History {
	return &History{
		registers: make(map[registers.Register][]string),
	}
}

// Record appends the state of globals after a step
func (h *History) Record(step int, line int, globals *registers.Scope) {
	snapshot := Snapshot{
		Step:      step,
		Line:      line,
		Registers: make(map[string]registers.Word, globals.Len()),
	}

	for _, r := range globals.Registers() {
		value, _ := globals.Read(r)
		snapshot.Registers[r.String()] = value
		h.registers[r] = append(h.registers[r],
			fmt.Sprintf("Step %d (line %d): %s", step, line, registers.FormatHistory(value)))
	}

	h.steps = append(h.steps, snapshot)
}

// Register returns the log of a register, oldest first
func (h *History) Register(r registers.Register) []string {
	return h.registers[r]
}

// Registers returns the registers that have a log, in alphabetical order
func (h *History) Registers() []registers.Register {
	return utils.SortedKeys(h.registers)
}

// Steps returns every step snapshot, oldest first
func (h *History) Steps() []Snapshot {
	return h.steps
}

// Logs returns the log of every register, keyed by register name
func (h *History) Logs() map[string][]string {
	logs := make(map[string][]string, len(h.registers))
	for r, log := range h.registers {
		logs[r.String()] = append([]string(nil), log...)
	}
	return logs
}

func (h *History) Clear() {
	clear(h.registers)
	h.steps = nil
}
