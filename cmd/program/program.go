// Package program implements the binlang commands working on programs: run,
// expand, repl and view.
package program

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Manu343726/binlang/pkg/config"
	"github.com/Manu343726/binlang/pkg/lang/interpreter"
	"github.com/Manu343726/binlang/pkg/lang/trace"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Exit codes
const (
	exitOK = iota
	exitLineErrors
	exitInput
	exitConfig
	exitExpansion
	exitCancelled
	exitOutput
)

var (
	colorSuccess = color.New(color.FgGreen)
	colorWarning = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed, color.Bold)
	colorPrompt  = color.New(color.FgBlue, color.Bold)
	colorHeader  = color.New(color.FgWhite, color.Bold, color.Underline)
	colorHiBlack = color.New(color.FgHiBlack)
)

// Commands returns every program command, to be added to the root command
func Commands() []*cobra.Command {
	return []*cobra.Command{runCmd, expandCmd, replCmd, viewCmd}
}

// readProgram reads a program file, or stdin when path is "-"
func readProgram(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}

	data, err := os.ReadFile(path)
	return string(data), err
}

// mustLoadProgram reads the program or exits
func mustLoadProgram(path string) string {
	text, err := readProgram(path, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(exitInput)
	}
	return text
}

// mustLoadConfig decodes the configuration or exits
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitConfig)
	}
	return cfg
}

// newSession builds a session from the configuration. With traceExpansion
// every emitted instruction and global register access is logged at debug
// level.
func newSession(cfg *config.Config, traceExpansion bool, opts ...interpreter.Option) *interpreter.Session {
	options := append(cfg.SessionOptions(), interpreter.WithLogger(slog.Default()))

	if traceExpansion {
		options = append(options, interpreter.WithTracer(trace.Slog(slog.Default())))
	}

	return interpreter.NewSession(append(options, opts...)...)
}

// interruptContext is cancelled on Ctrl+C
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// setupColor enables or disables fatih/color output following the
// configuration
func setupColor(cfg *config.Config) bool {
	enabled := cfg.UseColor(isTerminal(os.Stdout))
	color.NoColor = !enabled
	return enabled
}

// getTerminalSize returns terminal width and height, with fallback defaults
func getTerminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return 80, 24
	}
	return width, height
}
