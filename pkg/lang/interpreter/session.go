package interpreter

import (
	"context"
	"log/slog"
	"time"

	"github.com/Manu343726/binlang/pkg/lang/preprocessor"
	"github.com/Manu343726/binlang/pkg/lang/registers"
	"github.com/Manu343726/binlang/pkg/lang/source"
	"github.com/Manu343726/binlang/pkg/lang/trace"
	"gopkg.in/yaml.v3"
)

// Report is the outcome of running a program or a chunk of one
type Report struct {
	Steps      []StepResult              `yaml:"steps"`
	StopReason StopReason                `yaml:"stop"`
	Registers  map[string]registers.Word `yaml:"registers"`
	History    map[string][]string       `yaml:"history"`
	Snapshots  []Snapshot                `yaml:"snapshots"`
}

// Text renders the steps and final registers without colors
func (r *Report) Text() string {
	return NewReportFormatter(StylePlain).FormatReport(r)
}

// YAML exports the report
func (r *Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Errors returns the failed steps
func (r *Report) Errors() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Failed() {
			failed = append(failed, step)
		}
	}
	return failed
}

// Options configures a session
type Options struct {
	// Marker starting a comment, DefaultCommentMarker if empty
	CommentMarker string
	// Delay multiplier, 1 runs delays in real time
	DelayScale float64
	// Longest wait of a single delay, zero for no limit
	MaxDelay time.Duration
	// Longest expanded program, zero for no limit
	MaxInstructions int
	Logger          *slog.Logger
	Tracer          trace.Tracer
	Sleep           SleepFunc
	Callback        EventCallback
}

type Option func(*Options)

func WithCommentMarker(marker string) Option {
	return func(o *Options) { o.CommentMarker = marker }
}

func WithDelays(scale float64, max time.Duration) Option {
	return func(o *Options) {
		o.DelayScale = scale
		o.MaxDelay = max
	}
}

func WithMaxInstructions(max int) Option {
	return func(o *Options) { o.MaxInstructions = max }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *Options) { o.Tracer = tracer }
}

func WithSleepFunc(sleep SleepFunc) Option {
	return func(o *Options) { o.Sleep = sleep }
}

func WithCallback(callback EventCallback) Option {
	return func(o *Options) { o.Callback = callback }
}

// Session owns the function table, the global registers and the history of
// one program. A session is not safe for concurrent use; concurrent runs need
// separate sessions.
type Session struct {
	options   Options
	functions *preprocessor.FunctionTable
	globals   *registers.Scope
	history   *History
	engine    *Engine
	logger    *slog.Logger
}

func NewSession(opts ...Option) *Session {
	options := Options{
		CommentMarker:   source.DefaultCommentMarker,
		DelayScale:      1,
		MaxInstructions: preprocessor.DefaultMaxInstructions,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	s := &Session{
		options:   options,
		functions: preprocessor.NewFunctionTable(),
		globals:   registers.NewScope(),
		history:   NewHistory(),
		logger:    options.Logger,
	}

	engineOpts := []EngineOption{
		WithDelayScale(options.DelayScale),
		WithMaxDelay(options.MaxDelay),
		WithEngineLogger(options.Logger),
	}
	if options.Sleep != nil {
		engineOpts = append(engineOpts, WithSleep(options.Sleep))
	}
	if options.Callback != nil {
		engineOpts = append(engineOpts, WithEventCallback(options.Callback))
	}
	if options.Tracer != nil {
		engineOpts = append(engineOpts, WithEngineTracer(options.Tracer))
	}

	s.engine = NewEngine(s.globals, s.history, engineOpts...)

	return s
}

func (s *Session) Globals() *registers.Scope {
	return s.globals
}

func (s *Session) History() *History {
	return s.history
}

func (s *Session) Functions() *preprocessor.FunctionTable {
	return s.functions
}

// Reset clears registers, functions and history
func (s *Session) Reset() {
	s.globals.Clear()
	s.functions.Clear()
	s.history.Clear()
	s.engine.Reset()
}

func (s *Session) expanderOptions() []preprocessor.Option {
	opts := []preprocessor.Option{
		preprocessor.WithLogger(s.logger),
		preprocessor.WithMaxInstructions(s.options.MaxInstructions),
	}

	if s.options.Tracer != nil {
		opts = append(opts, preprocessor.WithTracer(s.options.Tracer))
	}

	return opts
}

// expand collects the definitions of chunk into the session and expands it
// against the current registers
func (s *Session) expand(chunk string) ([]preprocessor.ExpandedInstruction, error) {
	lines := source.Split(chunk, s.options.CommentMarker)

	if err := s.functions.Collect(lines); err != nil {
		return nil, err
	}

	return preprocessor.Expand(lines, s.functions, s.globals, s.expanderOptions()...)
}

// Expand resets the session and expands program without executing it
func (s *Session) Expand(program string) ([]preprocessor.ExpandedInstruction, error) {
	s.Reset()
	return s.expand(program)
}

// Run resets the session and runs a whole program. Expansion errors abort the
// run before any instruction executes and are returned with a nil report.
// When ctx is cancelled the partial report is returned together with the
// context error.
func (s *Session) Run(ctx context.Context, program string) (*Report, error) {
	s.Reset()
	return s.Eval(ctx, program)
}

// Eval runs a chunk of source against the current session state: functions
// and registers from previous chunks remain visible.
func (s *Session) Eval(ctx context.Context, chunk string) (*Report, error) {
	program, err := s.expand(chunk)
	if err != nil {
		s.logger.Debug("expansion failed", slog.Any("error", err))
		return nil, err
	}

	result := s.engine.Execute(ctx, program)

	return &Report{
		Steps:      result.Steps,
		StopReason: result.StopReason,
		Registers:  registersByName(s.globals),
		History:    s.history.Logs(),
		Snapshots:  s.history.Steps(),
	}, result.Error
}

func registersByName(scope *registers.Scope) map[string]registers.Word {
	values := make(map[string]registers.Word, scope.Len())
	for r, v := range scope.Values() {
		values[r.String()] = v
	}
	return values
}
