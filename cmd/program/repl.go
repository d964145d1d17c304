package program

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Manu343726/binlang/pkg/config"
	"github.com/Manu343726/binlang/pkg/lang/instruction"
	"github.com/Manu343726/binlang/pkg/lang/interpreter"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/lang/source"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var (
	replTrace bool
	replLoad  string
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive binlang session",
	Long: `Starts an interactive session. Every line is run as soon as it is complete;
LOOP blocks and function definitions are read until their closing brace.
Registers and functions persist between inputs.

Type :help for the list of session commands.`,
	Args: cobra.NoArgs,
	Run:  runRepl,
}

func init() {
	replCmd.Flags().BoolVarP(&replTrace, "trace", "t", false, "Log every expanded instruction and global register write at debug level")
	replCmd.Flags().StringVarP(&replLoad, "load", "l", "", "Run a program file before the first prompt")
}

// replCommand is a session command, typed with a leading ':'
type replCommand struct {
	names []string
	args  string
	help  string
	run   func(r *repl, args []string) (quit bool)
}

var replCommands []replCommand

func init() {
	replCommands = []replCommand{
		{[]string{"help", "h"}, "", "Show this help", (*repl).cmdHelp},
		{[]string{"regs", "r"}, "", "Show the global registers", (*repl).cmdRegs},
		{[]string{"history", "hi"}, "<register>", "Show the history of a register", (*repl).cmdHistory},
		{[]string{"steps"}, "", "Show the registers after every step", (*repl).cmdSteps},
		{[]string{"bits", "b"}, "<register>", "Draw the bits of a register", (*repl).cmdBits},
		{[]string{"funcs", "f"}, "", "List the defined functions", (*repl).cmdFuncs},
		{[]string{"load", "l"}, "<file>", "Run a program file in this session", (*repl).cmdLoad},
		{[]string{"reset"}, "", "Forget registers, functions and history", (*repl).cmdReset},
		{[]string{"quit", "q", "exit"}, "", "Leave the session", (*repl).cmdQuit},
	}
}

// repl reads binlang source line by line and runs every complete chunk in a
// persistent session
type repl struct {
	session   *interpreter.Session
	formatter *interpreter.ReportFormatter
	colored   bool
	out       io.Writer
	marker    string

	// Lines of an unfinished block
	pending []string
	depth   int

	width      int
	resizeStop chan struct{}
	resizeMu   sync.Mutex
}

func newRepl(session *interpreter.Session, marker string, out io.Writer, colored bool) *repl {
	style := interpreter.StylePlain
	if colored {
		style = interpreter.StyleColored
	}

	if marker == "" {
		marker = source.DefaultCommentMarker
	}

	return &repl{
		session:   session,
		formatter: interpreter.NewReportFormatter(style),
		colored:   colored,
		out:       out,
		marker:    marker,
		width:     80,
	}
}

func (r *repl) printf(c interface{ Fprintf(io.Writer, string, ...any) (int, error) }, format string, args ...any) {
	if r.colored {
		c.Fprintf(r.out, format, args...)
		return
	}
	fmt.Fprintf(r.out, format, args...)
}

// Prompt returns the prompt for the next line
func (r *repl) Prompt() string {
	if len(r.pending) > 0 {
		return "...   "
	}
	return "(binlang) "
}

// Pending tells whether a block is waiting for its closing brace
func (r *repl) Pending() bool {
	return len(r.pending) > 0
}

// Discard drops an unfinished block
func (r *repl) Discard() {
	r.pending = nil
	r.depth = 0
}

// Handle processes one input line. It returns true when the session should
// end.
func (r *repl) Handle(ctx context.Context, input string) bool {
	trimmed := strings.TrimSpace(input)

	if len(r.pending) == 0 && strings.HasPrefix(trimmed, ":") {
		return r.command(trimmed[1:])
	}

	lines := source.Split(input, r.marker)
	if len(lines) == 0 {
		if len(r.pending) > 0 {
			r.pending = append(r.pending, input)
		}
		return false
	}

	code := lines[0].Text
	switch {
	case strings.HasSuffix(code, "{"):
		r.depth++
	case code == "}":
		r.depth--
	}

	r.pending = append(r.pending, input)
	if r.depth > 0 {
		return false
	}

	chunk := strings.Join(r.pending, "\n")
	r.Discard()
	r.eval(ctx, chunk)

	return false
}

func (r *repl) eval(ctx context.Context, chunk string) {
	report, err := r.session.Eval(ctx, chunk)
	if report == nil {
		r.printf(colorError, "Error: %v\n", err)
		return
	}

	if text := r.formatter.FormatSteps(report.Steps); text != "" {
		fmt.Fprintln(r.out, text)
	}

	if err != nil {
		r.printf(colorWarning, "Interrupted after %d steps\n", len(report.Steps))
	}
}

func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return r.cmdHelp(nil)
	}

	name := strings.ToLower(fields[0])
	for _, cmd := range replCommands {
		for _, alias := range cmd.names {
			if alias == name {
				return cmd.run(r, fields[1:])
			}
		}
	}

	r.printf(colorError, "Unknown command :%s, type :help for the list of commands\n", name)
	return false
}

func (r *repl) cmdHelp(args []string) bool {
	fmt.Fprintln(r.out, "Type binlang source to run it. Session commands:")

	for _, cmd := range replCommands {
		usage := ":" + strings.Join(cmd.names, ", :")
		if cmd.args != "" {
			usage += " " + cmd.args
		}
		fmt.Fprintf(r.out, "  %-28s %s\n", usage, cmd.help)
	}

	return false
}

func (r *repl) cmdRegs(args []string) bool {
	values := r.session.Globals().Values()
	if len(values) == 0 {
		r.printf(colorHiBlack, "No registers defined\n")
		return false
	}

	byName := make(map[string]registers.Word, len(values))
	for reg, value := range values {
		byName[reg.String()] = value
	}

	lines := strings.Split(r.formatter.FormatRegisters(byName), "\n")
	fmt.Fprintln(r.out, columns(lines, r.terminalWidth()))

	return false
}

// register parses the single register argument of a command
func (r *repl) register(args []string) (registers.Register, bool) {
	if len(args) != 1 {
		r.printf(colorError, "Expected one register\n")
		return 0, false
	}

	reg, ok := registers.ParseRegister(strings.ToUpper(args[0]))
	if !ok {
		r.printf(colorError, "Invalid register %q\n", args[0])
		return 0, false
	}

	return reg, true
}

func (r *repl) cmdHistory(args []string) bool {
	reg, ok := r.register(args)
	if !ok {
		return false
	}

	log := r.session.History().Register(reg)
	if len(log) == 0 {
		r.printf(colorHiBlack, "Register %s was never assigned\n", reg)
		return false
	}

	fmt.Fprintln(r.out, r.formatter.FormatHistory(reg.String(), log))
	return false
}

func (r *repl) cmdSteps(args []string) bool {
	for _, snapshot := range r.session.History().Steps() {
		fmt.Fprintln(r.out, snapshot.String())
	}
	return false
}

func (r *repl) cmdBits(args []string) bool {
	reg, ok := r.register(args)
	if !ok {
		return false
	}

	value, err := r.session.Globals().Read(reg)
	if err != nil {
		r.printf(colorError, "%v\n", err)
		return false
	}

	fmt.Fprintf(r.out, "%s = %s\n%s\n", reg, registers.FormatDecimal(value), registers.BitFrame(value))
	return false
}

func (r *repl) cmdFuncs(args []string) bool {
	if r.session.Functions().Len() == 0 {
		r.printf(colorHiBlack, "No functions defined\n")
		return false
	}

	writeFunctions(r.out, r.session.Functions(), r.colored)
	return false
}

func (r *repl) cmdLoad(args []string) bool {
	if len(args) != 1 {
		r.printf(colorError, "Expected one file\n")
		return false
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		r.printf(colorError, "Error loading program: %v\n", err)
		return false
	}

	ctx, stop := interruptContext()
	defer stop()

	r.eval(ctx, string(text))
	return false
}

func (r *repl) cmdReset(args []string) bool {
	r.session.Reset()
	r.printf(colorSuccess, "Session reset\n")
	return false
}

func (r *repl) cmdQuit(args []string) bool {
	return true
}

// Complete returns the completions of a partial input line
func (r *repl) Complete(input string) []string {
	var candidates []string

	if strings.HasPrefix(input, ":") {
		for _, cmd := range replCommands {
			candidates = append(candidates, ":"+cmd.names[0])
		}
	} else {
		candidates = append(candidates, instruction.KeywordLoop+" ", instruction.KeywordCall+" ", instruction.KeywordDelay+" ")
		for _, name := range r.session.Functions().Names() {
			candidates = append(candidates, instruction.KeywordCall+" "+name+" ")
		}
	}

	var completions []string
	for _, candidate := range candidates {
		if strings.HasPrefix(strings.ToUpper(candidate), strings.ToUpper(input)) {
			completions = append(completions, candidate)
		}
	}
	sort.Strings(completions)

	return completions
}

func (r *repl) terminalWidth() int {
	r.resizeMu.Lock()
	defer r.resizeMu.Unlock()
	return r.width
}

func (r *repl) setTerminalWidth(width int) {
	r.resizeMu.Lock()
	defer r.resizeMu.Unlock()
	r.width = width
}

// startResizeMonitor keeps the terminal width up to date
func (r *repl) startResizeMonitor() {
	width, _ := getTerminalSize()
	r.setTerminalWidth(width)

	r.resizeStop = make(chan struct{})
	go r.monitorResize(r.resizeStop)
}

func (r *repl) stopResizeMonitor() {
	if r.resizeStop != nil {
		close(r.resizeStop)
		r.resizeStop = nil
	}
}

// columns lays lines out in as many columns as fit in width
func columns(lines []string, width int) string {
	cell := 0
	for _, line := range lines {
		cell = max(cell, visibleLen(line))
	}
	cell += 4

	perRow := max(1, width/cell)
	if perRow == 1 {
		return strings.Join(lines, "\n")
	}

	rows := (len(lines) + perRow - 1) / perRow
	var sb strings.Builder

	for row := 0; row < rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < perRow; col++ {
			i := col*rows + row
			if i >= len(lines) {
				break
			}
			sb.WriteString(lines[i])
			if col < perRow-1 && i+rows < len(lines) {
				sb.WriteString(strings.Repeat(" ", cell-visibleLen(lines[i])))
			}
		}
	}

	return sb.String()
}

// visibleLen is the length of text without ANSI escape sequences
func visibleLen(text string) int {
	n := 0
	escape := false

	for _, c := range text {
		switch {
		case escape:
			if c == 'm' {
				escape = false
			}
		case c == '\x1b':
			escape = true
		default:
			n++
		}
	}

	return n
}

func getHistoryFilePath(cfg *config.Config) string {
	if cfg.Repl.HistoryFile != "" {
		return cfg.Repl.HistoryFile
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".binlang_history"
	}
	return filepath.Join(homeDir, ".binlang_history")
}

func runRepl(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	colored := setupColor(cfg)

	session := newSession(cfg, replTrace)
	r := newRepl(session, cfg.CommentMarker, os.Stdout, colored)

	r.startResizeMonitor()
	defer r.stopResizeMonitor()

	if replLoad != "" {
		r.cmdLoad([]string{replLoad})
	}

	line := liner.NewLiner()
	defer line.Close()

	// Ctrl+C at the prompt drops an unfinished block; during a run it
	// interrupts the run
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(false)
	line.SetCompleter(r.Complete)

	historyFile := getHistoryFilePath(cfg)
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	colorSuccess.Println("Type :help for available commands.")

	for {
		input, err := line.Prompt(r.Prompt())
		if err != nil {
			if err == io.EOF {
				colorSuccess.Println("\nExiting session.")
				break
			}
			if err == liner.ErrPromptAborted {
				if r.Pending() {
					r.Discard()
					colorWarning.Println("Block discarded.")
				} else {
					colorWarning.Println("Use :quit or Ctrl+D to leave the session.")
				}
				continue
			}
			colorError.Printf("Error reading input: %v\n", err)
			break
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		ctx, stop := interruptContext()
		quit := r.Handle(ctx, input)
		stop()

		if quit {
			break
		}
	}

	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
