// Package executor runs the external tools the release engine depends on
// (git fallbacks, gh, cargo, npm, git-cliff) through a single chokepoint,
// with output capture, retry logic, per-call timeouts, and context support
// for cancellation.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	forgeerrors "github.com/input-output-hk/catalyst-forge-release/errors"
)

// Result holds the output and exit state from a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
}

// Runner is the interface every external-tool invocation goes through.
// Implementations must populate Result even when returning an error so
// callers can inspect captured output on failure.
type Runner interface {
	// Run executes program with args. A non-zero exit returns both the
	// populated Result and a non-nil error.
	Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error)
}

// Local implements Runner using os/exec on the local machine.
type Local struct {
	base *Options
}

// Options configures command execution behavior.
type Options struct {
	// Output handling.
	CaptureCombined   bool
	RedirectToConsole bool

	// Retry configuration.
	MaxRetries int
	RetryDelay time.Duration
	RetryOn    func(error) bool

	// Timeout bounds a single attempt. Zero means no per-attempt limit
	// beyond the caller's context.
	Timeout time.Duration

	// WorkingDir is the directory the command runs in.
	WorkingDir string

	// Env is appended to the current process environment.
	Env map[string]string

	// Stdin is fed to the command when non-empty.
	Stdin string

	// Logger receives per-invocation debug records.
	Logger *slog.Logger

	// Custom stdout/stderr writers for streaming consumers.
	StdoutWriter io.Writer
	StderrWriter io.Writer
}

// Option is a function that modifies Options.
type Option func(*Options)

// DefaultOptions returns default execution options.
func DefaultOptions() *Options {
	return &Options{
		MaxRetries: 0,
		RetryDelay: time.Second,
		Env:        make(map[string]string),
		Logger:     slog.Default(),
	}
}

// NewLocal creates a Local runner. The given options become the base
// configuration; per-call options are merged on top.
func NewLocal(opts ...Option) *Local {
	base := DefaultOptions()
	for _, opt := range opts {
		opt(base)
	}
	return &Local{base: base}
}

// Run implements Runner.
func (l *Local) Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	options := l.mergeOptions(opts...)

	maxAttempts := options.MaxRetries + 1
	var lastResult *Result
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := runOnce(ctx, program, args, options)
		lastResult, lastErr = result, err

		if err == nil || attempt == maxAttempts {
			return result, err
		}
		if options.RetryOn != nil && !options.RetryOn(err) {
			return result, err
		}

		options.Logger.Debug("retrying command",
			"program", program,
			"attempt", attempt,
			"delay", options.RetryDelay)

		select {
		case <-ctx.Done():
			return result, forgeerrors.Wrapf(ctx.Err(), forgeerrors.CodeExecutionFailed,
				"context cancelled while retrying %s", program)
		case <-time.After(options.RetryDelay):
		}
	}

	return lastResult, lastErr
}

func runOnce(ctx context.Context, program string, args []string, options *Options) (*Result, error) {
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, program, args...)
	setupCommand(cmd, options)
	stdoutBuf, stderrBuf, combinedBuf := setupOutputCapture(cmd, options)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := buildResult(stdoutBuf, stderrBuf, combinedBuf, err)

	options.Logger.Debug("command finished",
		"program", program,
		"args", strings.Join(args, " "),
		"exit_code", result.ExitCode,
		"duration", elapsed)

	if err != nil {
		return result, classifyError(ctx, program, args, result, err)
	}
	return result, nil
}

// classifyError maps an execution failure onto the engine error taxonomy,
// carrying a stderr tail so failures are diagnosable without rerunning.
func classifyError(ctx context.Context, program string, args []string, result *Result, err error) error {
	msg := fmt.Sprintf("command %s failed", commandLine(program, args))

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return forgeerrors.Wrap(err, forgeerrors.CodeTimeout, msg)
	case errors.Is(err, exec.ErrNotFound):
		return forgeerrors.Wrap(err, forgeerrors.CodeNotFound, msg).
			WithHint(fmt.Sprintf("install %s and ensure it is on PATH", program))
	default:
		wrapped := forgeerrors.Wrap(err, forgeerrors.CodeExecutionFailed, msg)
		if tail := lastLines(result.Stderr, 5); tail != "" {
			wrapped = wrapped.WithContext("stderr", tail)
		}
		return wrapped
	}
}

func commandLine(program string, args []string) string {
	if len(args) == 0 {
		return program
	}
	return program + " " + strings.Join(args, " ")
}

// lastLines returns up to n trailing non-empty lines of s.
func lastLines(s string, n int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// setupCommand configures the exec.Cmd with working directory, environment, and input.
func setupCommand(cmd *exec.Cmd, options *Options) {
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if options.Stdin != "" {
		cmd.Stdin = strings.NewReader(options.Stdin)
	}
}

// setupOutputCapture configures stdout and stderr writers for the command.
func setupOutputCapture(cmd *exec.Cmd, options *Options) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	var stdoutBuf, stderrBuf, combinedBuf bytes.Buffer

	stdoutWriters := []io.Writer{&stdoutBuf}
	stderrWriters := []io.Writer{&stderrBuf}

	if options.CaptureCombined {
		stdoutWriters = append(stdoutWriters, &combinedBuf)
		stderrWriters = append(stderrWriters, &combinedBuf)
	}
	if options.RedirectToConsole {
		stdoutWriters = append(stdoutWriters, os.Stdout)
		stderrWriters = append(stderrWriters, os.Stderr)
	}
	if options.StdoutWriter != nil {
		stdoutWriters = append(stdoutWriters, options.StdoutWriter)
	}
	if options.StderrWriter != nil {
		stderrWriters = append(stderrWriters, options.StderrWriter)
	}

	cmd.Stdout = io.MultiWriter(stdoutWriters...)
	cmd.Stderr = io.MultiWriter(stderrWriters...)

	return &stdoutBuf, &stderrBuf, &combinedBuf
}

// buildResult creates a Result from captured output and the execution error.
func buildResult(stdoutBuf, stderrBuf, combinedBuf *bytes.Buffer, err error) *Result {
	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Combined: combinedBuf.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err != nil && errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err == nil:
		result.ExitCode = 0
	default:
		result.ExitCode = -1
	}

	return result
}

func (l *Local) mergeOptions(opts ...Option) *Options {
	merged := *l.base

	env := make(map[string]string, len(l.base.Env))
	for k, v := range l.base.Env {
		env[k] = v
	}
	merged.Env = env

	for _, opt := range opts {
		opt(&merged)
	}
	if merged.Logger == nil {
		merged.Logger = slog.Default()
	}

	return &merged
}

// Option functions for fluent configuration.

// WithCombined enables interleaved stdout/stderr capture into Result.Combined.
func WithCombined() Option {
	return func(o *Options) {
		o.CaptureCombined = true
	}
}

// WithConsoleRedirect mirrors output to the console while still capturing it.
func WithConsoleRedirect(redirect bool) Option {
	return func(o *Options) {
		o.RedirectToConsole = redirect
	}
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(o *Options) {
		o.MaxRetries = maxRetries
		o.RetryDelay = delay
	}
}

// WithRetryCondition sets a custom retry condition.
func WithRetryCondition(fn func(error) bool) Option {
	return func(o *Options) {
		o.RetryOn = fn
	}
}

// WithTimeout bounds a single command attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithStdin feeds the given string to the command's standard input.
func WithStdin(input string) Option {
	return func(o *Options) {
		o.Stdin = input
	}
}

// WithLogger sets the logger used for per-invocation debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithStdoutWriter sets a custom stdout writer.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = w
	}
}

// WithStderrWriter sets a custom stderr writer.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}
