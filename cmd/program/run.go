package program

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Manu343726/binlang/pkg/config"
	"github.com/Manu343726/binlang/pkg/lang/interpreter"
	"github.com/Manu343726/binlang/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runFollow    bool
	runTrace     bool
	runHistory   bool
	runSnapshots bool
	runMaxSteps  int
)

var runCmd = &cobra.Command{
	Use:   "run <file|->",
	Short: "Run a binlang program",
	Long: `Expands and runs a binlang program, then prints one result per executed
instruction followed by the final registers.

The program is read from the given file, or from stdin when the file is "-".
Instruction errors are reported and execution continues with the next
instruction. Errors in blocks, calls or definitions abort the run before
anything executes.

Exit codes:
  0  every instruction succeeded
  1  some instruction failed
  2  the program could not be read
  3  the configuration is invalid
  4  the program could not be expanded
  5  the run was interrupted
  6  the report could not be written

Example:
  binlang run program.bl
  binlang run --format yaml program.bl
  echo "A = 0b101 << 2" | binlang run -`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().StringP("format", "f", config.FormatText, "Output format: text or yaml")
	runCmd.Flags().BoolVarP(&runFollow, "follow", "F", false, "Print each result as soon as it executes (text format only)")
	runCmd.Flags().BoolVarP(&runTrace, "trace", "t", false, "Log every expanded instruction and global register write at debug level")
	runCmd.Flags().BoolVarP(&runHistory, "history", "H", false, "Print the history of every register after the report")
	runCmd.Flags().BoolVarP(&runSnapshots, "snapshots", "s", false, "Print the registers after every step")
	runCmd.Flags().IntVarP(&runMaxSteps, "max-steps", "n", 0, "Maximum number of steps to execute (0 = unlimited)")

	viper.BindPFlag(config.KeyOutputFormat, runCmd.Flags().Lookup("format"))
}

// reportOptions selects the optional sections of a text report
type reportOptions struct {
	style     interpreter.FormatStyle
	history   bool
	snapshots bool
	// Steps were already printed while running
	skipSteps bool
}

func runRun(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	text := mustLoadProgram(args[0])

	opts := reportOptions{
		style:     interpreter.StylePlain,
		history:   runHistory,
		snapshots: runSnapshots,
	}
	if setupColor(cfg) {
		opts.style = interpreter.StyleColored
	}

	ctx, stop := interruptContext()
	defer stop()

	var sessionOpts []interpreter.Option
	if callback := runCallback(cfg, opts.style); callback != nil {
		sessionOpts = append(sessionOpts, interpreter.WithCallback(callback))
		opts.skipSteps = runFollow && cfg.Output.Format == config.FormatText
	}

	session := newSession(cfg, runTrace, sessionOpts...)

	report, err := session.Run(ctx, text)
	if report == nil {
		fmt.Fprintf(os.Stderr, "Error expanding program: %v\n", err)
		os.Exit(exitExpansion)
	}

	if werr := writeReport(os.Stdout, report, cfg.Output.Format, opts); werr != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", werr)
		os.Exit(exitOutput)
	}

	if err != nil {
		colorWarning.Fprintf(os.Stderr, "\nInterrupted after %d steps\n", len(report.Steps))
		os.Exit(exitCancelled)
	}

	if len(report.Errors()) > 0 {
		os.Exit(exitLineErrors)
	}
}

// runCallback returns the event callback implementing --follow and
// --max-steps, nil if neither is set
func runCallback(cfg *config.Config, style interpreter.FormatStyle) interpreter.EventCallback {
	follow := runFollow && cfg.Output.Format == config.FormatText
	if !follow && runMaxSteps <= 0 {
		return nil
	}

	formatter := interpreter.NewReportFormatter(style)
	printed := 0

	return func(event interpreter.ExecutionEvent, step *interpreter.StepResult) bool {
		if step == nil {
			return false
		}

		if follow {
			if printed > 0 {
				fmt.Println()
			}
			fmt.Println(formatter.FormatStep(step))
		}

		printed++
		return runMaxSteps <= 0 || printed < runMaxSteps
	}
}

// writeReport writes report to w in the given format
func writeReport(w io.Writer, report *interpreter.Report, format string, opts reportOptions) error {
	if format == config.FormatYAML {
		data, err := report.YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	formatter := interpreter.NewReportFormatter(opts.style)
	var sections []string

	if opts.skipSteps {
		if len(report.Registers) > 0 {
			sections = append(sections, "Registers:\n"+formatter.FormatRegisters(report.Registers))
		}
	} else if text := formatter.FormatReport(report); text != "" {
		sections = append(sections, text)
	}

	if opts.snapshots && len(report.Snapshots) > 0 {
		lines := make([]string, len(report.Snapshots))
		for i, snapshot := range report.Snapshots {
			lines[i] = snapshot.String()
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if opts.history {
		for _, name := range utils.SortedKeys(report.History) {
			sections = append(sections, formatter.FormatHistory(name, report.History[name]))
		}
	}

	if len(sections) == 0 {
		return nil
	}

	_, err := fmt.Fprintln(w, strings.Join(sections, "\n\n"))
	return err
}
