// Package publish provides the artifact publishing framework: the Publisher
// capability, a process-wide registry, verification with a fixed retry
// schedule, and dependency-ordered batch publishing for multi-crate
// workspaces.
package publish

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-release/config"
)

// Status is the outcome class of a publish, verify, or rollback attempt.
type Status string

const (
	// StatusSuccess means the operation completed and the artifact is live.
	StatusSuccess Status = "success"

	// StatusFailed means the operation failed.
	StatusFailed Status = "failed"

	// StatusSkipped means the publisher did not apply and did nothing.
	StatusSkipped Status = "skipped"

	// StatusPending means the artifact was published but could not be
	// confirmed visible yet. Pending never fails a release.
	StatusPending Status = "pending"
)

// Context carries the release state handed to every publisher. It is built
// once per release; TagName is computed exactly once from the configured tag
// prefix and the version.
type Context struct {
	// ProjectRoot is the absolute path of the project checkout. External
	// tools run with this as their working directory.
	ProjectRoot string

	// FS is the project root filesystem.
	FS billy.Filesystem

	// Config is the loaded release configuration.
	Config *config.Config

	// Version is the version being released, without prefix.
	Version string

	// TagName is the git tag for this release.
	TagName string

	// ReleaseNotes is the generated changelog section for this release.
	ReleaseNotes string

	// DryRun and Verbose mirror the command-line flags. Publishers perform
	// zero external mutation when DryRun is set.
	DryRun  bool
	Verbose bool
}

// Result is the outcome of one publisher operation.
type Result struct {
	// Name is the publisher that produced the result; populated by the
	// registry.
	Name string

	// Status classifies the outcome.
	Status Status

	// Message is the operator-facing summary.
	Message string

	// RegistryURL and PackageURL locate the published artifact, when known.
	RegistryURL string
	PackageURL  string

	// Version is the version the result refers to.
	Version string

	// Details carries registry-specific key/value context.
	Details map[string]string
}

// Failed reports whether the result fails the release.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// WithDetail attaches one detail pair and returns the result.
func (r Result) WithDetail(key, value string) Result {
	if r.Details == nil {
		r.Details = make(map[string]string)
	}
	r.Details[key] = value
	return r
}

// Success returns a success result.
func Success(message string) Result {
	return Result{Status: StatusSuccess, Message: message}
}

// Successf returns a success result with a formatted message.
func Successf(format string, args ...interface{}) Result {
	return Success(fmt.Sprintf(format, args...))
}

// Failed returns a failure result.
func Failed(message string) Result {
	return Result{Status: StatusFailed, Message: message}
}

// Failedf returns a failure result with a formatted message.
func Failedf(format string, args ...interface{}) Result {
	return Failed(fmt.Sprintf(format, args...))
}

// Skipped returns a skipped result.
func Skipped(message string) Result {
	return Result{Status: StatusSkipped, Message: message}
}

// Pending returns a pending result.
func Pending(message string) Result {
	return Result{Status: StatusPending, Message: message}
}

// Pendingf returns a pending result with a formatted message.
func Pendingf(format string, args ...interface{}) Result {
	return Pending(fmt.Sprintf(format, args...))
}

// Publisher pushes a release artifact to one registry. Publishers convert
// internal failures into failed Results rather than returning errors, so a
// bulk run always yields one result per publisher.
type Publisher interface {
	// Name returns the unique kebab-case identifier.
	Name() string

	// DisplayName returns the human-readable name.
	DisplayName() string

	// Registry returns the registry identity the publisher targets
	// (e.g. "crates.io", "npmjs.org").
	Registry() string

	// ShouldPublish reports whether the publisher applies to this release.
	ShouldPublish(ctx context.Context, pctx *Context) bool

	// Publish pushes the artifact.
	Publish(ctx context.Context, pctx *Context) Result

	// Verify reports whether the published artifact is visible on the
	// registry. It never returns an error: an unreachable registry and a
	// not-yet-indexed artifact are both "not verified yet".
	Verify(ctx context.Context, pctx *Context) bool

	// CanRollback reports whether Rollback fully removes the artifact.
	// False for append-only registries, whose Rollback degrades to yank
	// or deprecate where the registry supports one.
	CanRollback() bool

	// Rollback reverses or degrades the publish.
	Rollback(ctx context.Context, pctx *Context) Result
}

// NoRollback is embedded by publishers targeting registries with no removal
// or yank mechanism at all.
type NoRollback struct{}

// CanRollback implements Publisher.
func (NoRollback) CanRollback() bool { return false }

// Rollback implements Publisher.
func (NoRollback) Rollback(ctx context.Context, pctx *Context) Result {
	return Skipped("registry does not support rollback")
}
