// Package validate provides the pre-release check framework: the Validator
// capability, graded results, and a process-wide registry that runs every
// registered check in one pass so the operator sees all problems at once.
package validate

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-release/config"
	"github.com/input-output-hk/catalyst-forge-release/git"
)

// Severity represents the severity level of a validation result.
type Severity string

const (
	// SeverityError indicates a finding that blocks the release.
	SeverityError Severity = "error"

	// SeverityWarning indicates a finding that should be addressed but
	// never blocks.
	SeverityWarning Severity = "warning"

	// SeverityInfo indicates an informational finding.
	SeverityInfo Severity = "info"
)

// Category groups validators for filtered runs.
type Category string

const (
	// CategoryGit covers repository-state checks.
	CategoryGit Category = "git"

	// CategoryVersion covers version and tag checks.
	CategoryVersion Category = "version"

	// CategoryFiles covers project file checks.
	CategoryFiles Category = "files"

	// CategorySecurity covers security checks.
	CategorySecurity Category = "security"
)

// Context carries the read-only release state handed to every validator.
// Validators never mutate it, the filesystem, or the repository.
type Context struct {
	// ProjectRoot is the absolute path of the project checkout.
	ProjectRoot string

	// FS is the project root filesystem.
	FS billy.Filesystem

	// Repo is the opened repository. Nil when the project root is not a
	// git checkout; git-category validators fail in that case.
	Repo *git.Repo

	// Config is the loaded release configuration.
	Config *config.Config

	// Version is the version the release would cut, when already computed.
	Version string

	// PreviousVersion is the currently released version, when known.
	PreviousVersion string

	// DryRun and Verbose mirror the command-line flags.
	DryRun  bool
	Verbose bool
}

// Result is the graded outcome of one validator invocation.
type Result struct {
	// Name is the validator that produced the result; populated by the
	// registry.
	Name string

	// Passed reports whether the check passed.
	Passed bool

	// Severity grades the finding. Only SeverityError with Passed=false
	// blocks a release.
	Severity Severity

	// Message is the operator-facing summary.
	Message string

	// Details carries supporting lines (offending files, values seen).
	Details []string

	// FixCommand is an optional concrete command that resolves the finding.
	FixCommand string

	// FilePath and LineNumber point at the finding when it is file-bound.
	FilePath   string
	LineNumber int
}

// Blocking reports whether this result alone blocks a release.
func (r Result) Blocking() bool {
	return !r.Passed && r.Severity == SeverityError
}

// Pass returns a passing result.
func Pass(message string) Result {
	return Result{Passed: true, Severity: SeverityInfo, Message: message}
}

// Fail returns a blocking failure.
func Fail(message string) Result {
	return Result{Passed: false, Severity: SeverityError, Message: message}
}

// Failf returns a blocking failure with a formatted message.
func Failf(format string, args ...interface{}) Result {
	return Fail(fmt.Sprintf(format, args...))
}

// Warn returns a non-blocking warning.
func Warn(message string) Result {
	return Result{Passed: false, Severity: SeverityWarning, Message: message}
}

// WithDetails attaches detail lines and returns the result.
func (r Result) WithDetails(details ...string) Result {
	r.Details = append(r.Details, details...)
	return r
}

// WithFix attaches a fix command and returns the result.
func (r Result) WithFix(command string) Result {
	r.FixCommand = command
	return r
}

// Passed reports whether a batch of results permits the release: no result
// may be a blocking error.
func Passed(results []Result) bool {
	for _, r := range results {
		if r.Blocking() {
			return false
		}
	}
	return true
}

// Validator is a single pre-release check. Implementations are read-only
// and must convert internal failures into error-severity results instead of
// panicking; panics are reserved for programmer errors.
type Validator interface {
	// Name returns the unique kebab-case identifier.
	Name() string

	// DisplayName returns the human-readable name.
	DisplayName() string

	// Category returns the validator's category.
	Category() Category

	// ShouldRun reports whether the check applies to this release. The
	// default implementation pattern consults Config to honor skips.
	ShouldRun(ctx context.Context, vctx *Context) bool

	// Validate runs the check.
	Validate(ctx context.Context, vctx *Context) Result
}
