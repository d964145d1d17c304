package program

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Manu343726/binlang/pkg/lang/preprocessor"
	"github.com/Manu343726/binlang/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	expandTrace     bool
	expandFunctions bool
)

var expandCmd = &cobra.Command{
	Use:   "expand <file|->",
	Short: "Print the expanded instruction stream of a binlang program",
	Long: `Collects the function definitions of a program and expands its loops and
calls into the flat instruction stream the engine executes, without running it.

Each instruction is printed with its source line, the registers it can read
and the loop iterations and calls it comes from.

Example:
  binlang expand program.bl
  binlang expand --functions program.bl`,
	Args: cobra.ExactArgs(1),
	Run:  runExpand,
}

func init() {
	expandCmd.Flags().BoolVarP(&expandTrace, "trace", "t", false, "Log every emitted instruction at debug level")
	expandCmd.Flags().BoolVar(&expandFunctions, "functions", false, "List the collected function definitions first")
}

func runExpand(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	text := mustLoadProgram(args[0])
	colored := setupColor(cfg)

	session := newSession(cfg, expandTrace)

	program, err := session.Expand(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error expanding program: %v\n", err)
		os.Exit(exitExpansion)
	}

	if expandFunctions {
		writeFunctions(os.Stdout, session.Functions(), colored)
	}

	writeExpansion(os.Stdout, program, colored)
}

// writeFunctions lists every collected function with its body
func writeFunctions(w io.Writer, table *preprocessor.FunctionTable, colored bool) {
	for _, name := range table.Names() {
		def, _ := table.Lookup(name)

		header := fmt.Sprintf("%s (line %d)", def.Signature(), def.Line)
		if colored {
			header = colorHeader.Sprint(header)
		}
		fmt.Fprintln(w, header)

		for _, line := range def.Body {
			text := line.Text
			if colored {
				text = utils.HighlightLine(text)
			}
			fmt.Fprintf(w, "  %4d  %s\n", line.Number, text)
		}

		fmt.Fprintln(w)
	}
}

// writeExpansion prints one expanded instruction per line
func writeExpansion(w io.Writer, program []preprocessor.ExpandedInstruction, colored bool) {
	width := len(fmt.Sprint(len(program)))

	for i := range program {
		inst := &program[i]

		if !colored {
			fmt.Fprintf(w, "%*d  %s\n", width, i+1, inst.String())
			continue
		}

		var sb strings.Builder
		sb.WriteString(colorHiBlack.Sprintf("%*d  %d:", width, i+1, inst.Line.Number))
		sb.WriteString(" " + utils.HighlightLine(inst.Line.Text))

		frame := "local"
		if inst.Global {
			frame = "global"
		}
		sb.WriteString(colorHiBlack.Sprintf(" (%s %s)", frame, inst.Scope.String()))

		if inst.Context != "" {
			sb.WriteString(" " + colorWarning.Sprintf("[%s]", inst.Context))
		}

		fmt.Fprintln(w, sb.String())
	}
}
