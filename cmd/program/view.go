package program

import (
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/binlang/pkg/lang/interpreter"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/utils"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <file|->",
	Short: "Run a binlang program and browse its results",
	Long: `Runs a binlang program and opens a terminal viewer with the program results,
the final registers and the history of the register picked in the register
dropdown.

Keys:
  Tab / Shift+Tab  move between panes
  q / Esc          quit`,
	Args: cobra.ExactArgs(1),
	Run:  runView,
}

// viewer is the terminal UI of binlang view
type viewer struct {
	app       *tview.Application
	root      *tview.Flex
	results   *tview.TextView
	registers *tview.TextView
	dropdown  *tview.DropDown
	history   *tview.TextView
	snapshots *tview.TextView
	focus     []tview.Primitive

	report    *interpreter.Report
	formatter *interpreter.ReportFormatter
}

func newViewer(report *interpreter.Report) *viewer {
	v := &viewer{
		app:       tview.NewApplication(),
		report:    report,
		formatter: interpreter.NewReportFormatter(interpreter.StylePlain),
	}

	v.results = newPane(" Results ")
	v.results.SetText(v.formatter.FormatSteps(report.Steps))

	v.registers = newPane(" Registers ")
	v.registers.SetText(v.formatter.FormatRegisters(report.Registers))

	v.history = newPane(" History ")

	v.snapshots = newPane(" Steps ")
	lines := make([]string, len(report.Snapshots))
	for i, snapshot := range report.Snapshots {
		lines[i] = snapshot.String()
	}
	v.snapshots.SetText(strings.Join(lines, "\n"))

	v.dropdown = tview.NewDropDown().SetLabel("Register: ")
	names := utils.SortedKeys(report.History)
	if len(names) == 0 {
		v.history.SetText("No register was assigned")
	} else {
		v.dropdown.SetOptions(names, func(name string, index int) {
			v.selectRegister(name)
		})
		v.dropdown.SetCurrentOption(0)
	}

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.registers, 0, 1, false).
		AddItem(v.dropdown, 1, 0, false).
		AddItem(v.history, 0, 2, false)

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.results, 0, 3, true).
		AddItem(v.snapshots, 0, 1, false)

	v.root = tview.NewFlex().
		AddItem(left, 0, 2, true).
		AddItem(side, 0, 1, false)

	v.focus = []tview.Primitive{v.results, v.snapshots, v.registers, v.dropdown, v.history}

	v.app.SetRoot(v.root, true).SetFocus(v.results)
	v.app.SetInputCapture(v.handleKey)

	return v
}

func newPane(title string) *tview.TextView {
	pane := tview.NewTextView().
		SetScrollable(true).
		SetWrap(false)
	pane.SetBorder(true).SetTitle(title)
	return pane
}

// selectRegister shows the history of a register
func (v *viewer) selectRegister(name string) {
	log := v.report.History[name]

	text := v.formatter.FormatHistory(name, log)
	if r, ok := registers.ParseRegister(name); ok {
		if value, found := v.report.Registers[name]; found {
			text += "\n\n" + fmt.Sprintf("%s = %s\n", r, registers.FormatDecimal(value)) + registers.BitFrame(value)
		}
	}

	v.history.SetText(text)
	v.history.ScrollToBeginning()
}

func (v *viewer) cycleFocus(delta int) {
	current := v.app.GetFocus()

	for i, p := range v.focus {
		if p == current {
			next := (i + delta + len(v.focus)) % len(v.focus)
			v.app.SetFocus(v.focus[next])
			return
		}
	}

	v.app.SetFocus(v.focus[0])
}

func (v *viewer) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyTab:
		v.cycleFocus(1)
		return nil
	case tcell.KeyBacktab:
		v.cycleFocus(-1)
		return nil
	}

	// The dropdown uses Esc and letters itself
	if _, onPane := v.app.GetFocus().(*tview.TextView); !onPane {
		return event
	}

	if event.Key() == tcell.KeyEscape || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
		v.app.Stop()
		return nil
	}

	return event
}

func (v *viewer) Run() error {
	return v.app.Run()
}

func runView(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	text := mustLoadProgram(args[0])

	ctx, stop := interruptContext()
	defer stop()

	session := newSession(cfg, false)

	report, err := session.Run(ctx, text)
	if report == nil {
		fmt.Fprintf(os.Stderr, "Error expanding program: %v\n", err)
		os.Exit(exitExpansion)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Interrupted after %d steps\n", len(report.Steps))
		os.Exit(exitCancelled)
	}

	if err := newViewer(report).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", err)
		os.Exit(exitOutput)
	}
}
