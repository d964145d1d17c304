// Package config holds the binlang configuration, read through viper from the
// config file, BINLANG_ environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Manu343726/binlang/pkg/lang/interpreter"
	"github.com/Manu343726/binlang/pkg/lang/preprocessor"
	"github.com/Manu343726/binlang/pkg/lang/source"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

func makeError(message string, args ...any) error {
	return fmt.Errorf("%w: "+message, append([]any{ErrInvalidConfig}, args...)...)
}

// Configuration keys
const (
	KeyCommentMarker   = "comment_marker"
	KeyDelayScale      = "delay.scale"
	KeyDelayMax        = "delay.max"
	KeyMaxInstructions = "expand.max_instructions"
	KeyOutputFormat    = "output.format"
	KeyOutputColor     = "output.color"
	KeyLogLevel        = "log.level"
	KeyLogFile         = "log.file"
	KeyReplHistoryFile = "repl.history_file"
)

// Output formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// EnvPrefix prefixes the environment variables overriding configuration
// keys, e.g. BINLANG_DELAY_SCALE
const EnvPrefix = "BINLANG"

type DelayConfig struct {
	// Multiplier applied to every DELAY, 0 skips delays
	Scale float64 `mapstructure:"scale"`
	// Longest single delay, 0 for no limit
	Max time.Duration `mapstructure:"max"`
}

type ExpandConfig struct {
	MaxInstructions int `mapstructure:"max_instructions"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  string `mapstructure:"color"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// JSON log file, none if empty
	File string `mapstructure:"file"`
}

type ReplConfig struct {
	// REPL line history, ~/.binlang_history if empty
	HistoryFile string `mapstructure:"history_file"`
}

type Config struct {
	CommentMarker string       `mapstructure:"comment_marker"`
	Delay         DelayConfig  `mapstructure:"delay"`
	Expand        ExpandConfig `mapstructure:"expand"`
	Output        OutputConfig `mapstructure:"output"`
	Log           LogConfig    `mapstructure:"log"`
	Repl          ReplConfig   `mapstructure:"repl"`
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyCommentMarker, source.DefaultCommentMarker)
	v.SetDefault(KeyDelayScale, 1.0)
	v.SetDefault(KeyDelayMax, time.Duration(0))
	v.SetDefault(KeyMaxInstructions, preprocessor.DefaultMaxInstructions)
	v.SetDefault(KeyOutputFormat, FormatText)
	v.SetDefault(KeyOutputColor, ColorAuto)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyReplHistoryFile, "")
}

// SetupEnv makes every key overridable through BINLANG_ environment variables
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, makeError("%v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the default configuration
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.CommentMarker) == "" {
		return makeError("%s must not be empty", KeyCommentMarker)
	}

	if c.Delay.Scale < 0 {
		return makeError("%s must not be negative, got %v", KeyDelayScale, c.Delay.Scale)
	}

	if c.Delay.Max < 0 {
		return makeError("%s must not be negative, got %v", KeyDelayMax, c.Delay.Max)
	}

	switch c.Output.Format {
	case FormatText, FormatYAML:
	default:
		return makeError("%s must be %q or %q, got %q", KeyOutputFormat, FormatText, FormatYAML, c.Output.Format)
	}

	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return makeError("%s must be %q, %q or %q, got %q", KeyOutputColor, ColorAuto, ColorAlways, ColorNever, c.Output.Color)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	return nil
}

// LogLevel parses the configured log level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, makeError("%s: %v", KeyLogLevel, err)
	}

	return level, nil
}

// UseColor tells whether output should be colored, given whether it goes to
// a terminal
func (c *Config) UseColor(terminal bool) bool {
	switch c.Output.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	return terminal
}

// SessionOptions returns the interpreter options matching the configuration
func (c *Config) SessionOptions() []interpreter.Option {
	return []interpreter.Option{
		interpreter.WithCommentMarker(c.CommentMarker),
		interpreter.WithDelays(c.Delay.Scale, c.Delay.Max),
		interpreter.WithMaxInstructions(c.Expand.MaxInstructions),
	}
}
