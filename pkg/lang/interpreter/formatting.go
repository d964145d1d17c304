package interpreter

import (
	"fmt"
	"strings"

	"github.com/Manu343726/binlang/pkg/lang/instruction"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/utils"
	"github.com/fatih/color"
)

// FormatStyle controls the output style for formatting functions
type FormatStyle int

const (
	// StylePlain produces plain text output without colors
	StylePlain FormatStyle = iota
	// StyleColored produces colorized output using ANSI escape codes
	StyleColored
)

var (
	lineColor    = color.New(color.FgCyan)
	errorColor   = color.New(color.FgRed, color.Bold)
	outputColor  = color.New(color.FgWhite)
	delayColor   = color.New(color.FgMagenta)
	contextColor = color.New(color.FgHiBlack)
	nameColor    = color.New(color.FgGreen, color.Bold)
)

// ReportFormatter formats execution reports for display
type ReportFormatter struct {
	style FormatStyle
}

// NewReportFormatter creates a new report formatter
func NewReportFormatter(style FormatStyle) *ReportFormatter {
	return &ReportFormatter{style: style}
}

func (f *ReportFormatter) paint(c *color.Color, text string) string {
	if f.style == StylePlain {
		return text
	}
	// Force colors even when stdout is not a terminal, the caller chose
	// the style
	c.EnableColor()
	return c.Sprint(text)
}

// FormatStep formats one step:
//
//	Line 3: A = A + 1
//	  A = 1
//	  ...
//
// or "Error on line 3: <message>" for failed steps.
func (f *ReportFormatter) FormatStep(step *StepResult) string {
	if step.Failed() {
		return f.paint(errorColor, fmt.Sprintf("Error on line %d: %s", step.Line, step.Error))
	}

	instr := step.Instruction
	if f.style == StyleColored {
		instr = utils.HighlightLine(instr)
	}

	header := f.paint(lineColor, fmt.Sprintf("Line %d:", step.Line)) + " " + instr
	if step.Context != "" {
		header += " " + f.paint(contextColor, "["+step.Context+"]")
	}

	c := outputColor
	if step.Kind == instruction.Delay.String() {
		c = delayColor
	}

	return header + "\n" + f.paint(c, step.Output)
}

// FormatSteps formats every step, separated by blank lines
func (f *ReportFormatter) FormatSteps(steps []StepResult) string {
	blocks := make([]string, len(steps))
	for i := range steps {
		blocks[i] = f.FormatStep(&steps[i])
	}
	return strings.Join(blocks, "\n\n")
}

// FormatRegisters formats register values, one per line:
//
//	A = 5 (0b00000101, 0x05)
func (f *ReportFormatter) FormatRegisters(values map[string]registers.Word) string {
	var lines []string

	for _, name := range utils.SortedKeys(values) {
		value := values[name]
		lines = append(lines, fmt.Sprintf("%s = %s (%s, %s)",
			f.paint(nameColor, name),
			registers.FormatDecimal(value),
			registers.FormatBinary(value, registers.HistoryBinaryDigits),
			registers.FormatHex(value, registers.HistoryHexDigits)))
	}

	return strings.Join(lines, "\n")
}

// FormatHistory formats the log of one register
func (f *ReportFormatter) FormatHistory(name string, log []string) string {
	var sb strings.Builder

	sb.WriteString(f.paint(nameColor, fmt.Sprintf("History of %s:", name)))
	for _, entry := range log {
		sb.WriteString("\n  " + entry)
	}

	return sb.String()
}

// FormatReport formats the steps of a report followed by the final registers
func (f *ReportFormatter) FormatReport(report *Report) string {
	var sb strings.Builder

	sb.WriteString(f.FormatSteps(report.Steps))

	if len(report.Registers) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(f.paint(lineColor, "Registers:"))
		sb.WriteString("\n")
		sb.WriteString(f.FormatRegisters(report.Registers))
	}

	return sb.String()
}
