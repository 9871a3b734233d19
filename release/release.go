// Package release orchestrates a versioned release end to end: version bump,
// changelog, commit, tag, push, CI wait, and publishing, as a fixed sequence
// of named steps that halts on the first failure. Rollback is the separate
// user-invoked reversal.
package release

import (
	"context"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-release/changelog"
	"github.com/input-output-hk/catalyst-forge-release/ci"
	"github.com/input-output-hk/catalyst-forge-release/config"
	"github.com/input-output-hk/catalyst-forge-release/ecosystem"
	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/git"
	"github.com/input-output-hk/catalyst-forge-release/publish"
	"github.com/input-output-hk/catalyst-forge-release/version"
)

// StepResult is the uniform outcome of one workflow step.
type StepResult struct {
	// Name is the step's fixed name.
	Name string

	// Success reports whether the step completed.
	Success bool

	// Message is the operator-facing summary.
	Message string

	// Details carries supporting lines.
	Details []string
}

func stepOK(name, message string) StepResult {
	return StepResult{Name: name, Success: true, Message: message}
}

func stepFail(name, message string) StepResult {
	return StepResult{Name: name, Success: false, Message: message}
}

// GitRepo is the slice of repository operations the workflow needs. A
// *git.Repo satisfies it.
type GitRepo interface {
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, msg string, who git.Signature, opts git.CommitOpts) (string, error)
	Head(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
	CreateTag(ctx context.Context, name, target, message string, who git.Signature) error
	DeleteTag(ctx context.Context, name string) error
	PushBranch(ctx context.Context, remote, branch string) error
	PushTag(ctx context.Context, remote, tag string) error
	DeleteRemoteTag(ctx context.Context, remote, tag string) error
	LatestTag(ctx context.Context, prefix string) (string, error)
	CommitsSince(ctx context.Context, tag string) ([]git.Commit, error)
}

// Options configures a release workflow.
type Options struct {
	// FS is the REQUIRED project root filesystem.
	FS billy.Filesystem

	// ProjectRoot is the REQUIRED absolute project path; external tools run
	// with it as their working directory.
	ProjectRoot string

	// Config is the REQUIRED loaded release configuration.
	Config *config.Config

	// Repo is the REQUIRED repository.
	Repo GitRepo

	// Bump selects the version increment. Required for Run; ignored by
	// rollback.
	Bump version.BumpType

	// Runner executes external tools. Defaults to the local machine.
	Runner executor.Runner

	// Registry resolves publisher names. Defaults to the process-wide one.
	Registry *publish.Registry

	// Publishers overrides publisher selection entirely, bypassing both the
	// configured list and ecosystem discovery.
	Publishers []publish.Publisher

	// Monitor waits for CI. Defaults to one built from Runner and the CI
	// configuration.
	Monitor *ci.Monitor

	// Changelog generates release notes. Defaults to one backed by the
	// repository history and a git-cliff binding.
	Changelog *changelog.Generator

	// Verifier confirms published artifacts. Defaults to the standard
	// retry schedule.
	Verifier *publish.Verifier

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// DryRun reports every step without external mutation.
	DryRun bool

	// Verbose mirrors the command-line flag.
	Verbose bool
}

// discoveredPublisherNames runs ecosystem auto-discovery for publisher
// selection when the configuration names none explicitly.
func discoveredPublisherNames(opts Options) []string {
	return ecosystem.Discover(opts.FS, opts.Config).Publishers
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return errors.New(errors.CodeInvalidInput, "FS is required")
	}
	if o.ProjectRoot == "" {
		return errors.New(errors.CodeInvalidInput, "ProjectRoot is required")
	}
	if o.Config == nil {
		return errors.New(errors.CodeInvalidInput, "Config is required")
	}
	if o.Repo == nil {
		return errors.New(errors.CodeInvalidInput, "Repo is required")
	}
	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Runner == nil {
		o.Runner = executor.NewLocal()
	}
	if o.Registry == nil {
		o.Registry = publish.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Verifier == nil {
		o.Verifier = publish.NewVerifier()
	}
	if o.Monitor == nil {
		o.Monitor = ci.NewMonitor(o.Runner,
			ci.WithPollInterval(o.Config.CI.PollInterval.Std()),
			ci.WithTimeout(o.Config.CI.Timeout.Std()),
			ci.WithAllowSkipped(o.Config.CIAllowSkipped()),
			ci.WithLogger(o.Logger),
		)
	}
	if o.Changelog == nil {
		cliffOpts := []changelog.Option{
			changelog.WithCliff(executor.NewTool(o.Runner, "git-cliff")),
			changelog.WithLogger(o.Logger),
		}
		// A project-local cliff.toml takes precedence over the user-level
		// configuration.
		if _, err := o.FS.Stat("cliff.toml"); err != nil {
			if path := changelog.UserConfigFile(); path != "" {
				cliffOpts = append(cliffOpts, changelog.WithConfigFile(path))
			}
		}
		o.Changelog = changelog.NewGenerator(o.Repo, cliffOpts...)
	}
}
