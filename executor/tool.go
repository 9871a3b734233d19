package executor

import "context"

// Tool binds a Runner to a single program so call sites read as tool
// invocations: gh.Run(ctx, "release", "create", ...). The release engine
// builds one Tool per external dependency (gh, cargo, npm, git-cliff).
type Tool struct {
	runner  Runner
	program string
	opts    []Option
}

// NewTool creates a Tool for the given program. The options are applied to
// every invocation, before per-call options.
func NewTool(runner Runner, program string, opts ...Option) *Tool {
	return &Tool{runner: runner, program: program, opts: opts}
}

// Program returns the program name the tool invokes.
func (t *Tool) Program() string {
	return t.program
}

// Run executes the tool with the given arguments.
func (t *Tool) Run(ctx context.Context, args ...string) (*Result, error) {
	return t.runner.Run(ctx, t.program, args, t.opts...)
}

// RunWith executes the tool with per-call options appended to the tool's own.
func (t *Tool) RunWith(ctx context.Context, args []string, opts ...Option) (*Result, error) {
	merged := make([]Option, 0, len(t.opts)+len(opts))
	merged = append(merged, t.opts...)
	merged = append(merged, opts...)
	return t.runner.Run(ctx, t.program, args, merged...)
}

// Available reports whether the program can be invoked at all. It runs the
// tool with the given probe arguments (commonly "--version") and treats any
// start failure as unavailable.
func (t *Tool) Available(ctx context.Context, probeArgs ...string) bool {
	if len(probeArgs) == 0 {
		probeArgs = []string{"--version"}
	}
	_, err := t.runner.Run(ctx, t.program, probeArgs)
	return err == nil
}
