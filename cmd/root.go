package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Manu343726/binlang/cmd/program"
	"github.com/Manu343726/binlang/cmd/tools"
	"github.com/Manu343726/binlang/pkg/config"
	"github.com/Manu343726/binlang/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Log file of the running command, if any
var logCloser io.Closer

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "binlang",
	Short: "A toy register machine language",
	Long: `Binlang is a toy register machine language: registers A to Z hold signed
32-bit words, updated by assignments of arithmetic and bitwise expressions,
timed delays, loops and parameterized functions.

This CLI runs binlang programs, prints their expansion, hosts an interactive
session and browses execution results.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()

	if logCloser != nil {
		logCloser.Close()
	}

	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(tools.ToolsCmd)
	RootCmd.AddCommand(program.Commands()...)
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.binlang.yaml)")
	flags.String("comment-marker", "", "Marker starting a comment (default \"//\")")
	flags.Float64("delay-scale", 1, "Multiplier applied to every DELAY, 0 skips delays")
	flags.Duration("max-delay", 0, "Longest single DELAY, 0 for no limit")
	flags.Int("max-instructions", 0, "Longest expanded program")
	flags.String("color", config.ColorAuto, "Colored output: auto, always or never")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.String("log-file", "", "Also write JSON logs to this file")

	for key, flag := range map[string]string{
		config.KeyCommentMarker:   "comment-marker",
		config.KeyDelayScale:      "delay-scale",
		config.KeyDelayMax:        "max-delay",
		config.KeyMaxInstructions: "max-instructions",
		config.KeyOutputColor:     "color",
		config.KeyLogLevel:        "log-level",
		config.KeyLogFile:         "log-file",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".binlang" (without extension).
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".binlang")
	}

	config.SetupEnv(v)

	readErr := v.ReadInConfig()
	if readErr != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", readErr)
		os.Exit(3)
	}

	setupLogging(v)

	if readErr == nil {
		slog.Info("using config file", slog.String("path", v.ConfigFileUsed()))
	}
}

// setupLogging installs the configured logger. Invalid configurations are
// reported by the commands themselves.
func setupLogging(v *viper.Viper) {
	cfg, err := config.Load(v)
	if err != nil {
		return
	}

	level, _ := cfg.LogLevel()

	closer, err := logging.Setup(logging.Options{Level: level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		return
	}

	logCloser = closer
}
