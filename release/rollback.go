package release

import (
	"context"
	"fmt"

	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/git"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// RollbackReport summarizes a rollback run. Cleanup is best-effort: every
// action that could not be completed lands in Manual so the operator knows
// exactly what is left.
type RollbackReport struct {
	// Steps are the attempted cleanup actions in order.
	Steps []StepResult

	// Manual lists the remaining cleanup the operator must do by hand.
	Manual []string
}

// Clean reports whether the rollback left nothing to do manually.
func (r *RollbackReport) Clean() bool {
	return len(r.Manual) == 0
}

// Rollback reverses a released version: it deletes the local and remote
// tags, removes the hosted release record, and rolls back or degrades every
// selected publisher.
type Rollback struct {
	opts    Options
	version string
	tagName string
}

// NewRollback creates a rollback for a released version.
func NewRollback(version string, opts *Options) (*Rollback, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if version == "" {
		return nil, errors.New(errors.CodeInvalidInput, "version is required")
	}
	opts.applyDefaults()

	return &Rollback{
		opts:    *opts,
		version: version,
		tagName: opts.Config.TagFor(version),
	}, nil
}

// Run executes the cleanup. It never stops at a failure; failed actions are
// reported as manual steps instead.
func (r *Rollback) Run(ctx context.Context) *RollbackReport {
	report := &RollbackReport{}

	r.deleteLocalTag(ctx, report)
	r.deleteRemoteTag(ctx, report)
	r.rollbackPublishers(ctx, report)

	return report
}

func (r *Rollback) deleteLocalTag(ctx context.Context, report *RollbackReport) {
	const name = "delete local tag"

	if r.opts.DryRun {
		report.Steps = append(report.Steps, stepOK(name, "would delete tag "+r.tagName))
		return
	}

	err := r.opts.Repo.DeleteTag(ctx, r.tagName)
	switch {
	case err == nil:
		report.Steps = append(report.Steps, stepOK(name, "deleted tag "+r.tagName))
	case errors.Is(err, git.ErrTagMissing):
		report.Steps = append(report.Steps, stepOK(name, "tag "+r.tagName+" already absent"))
	default:
		report.Steps = append(report.Steps,
			stepFail(name, fmt.Sprintf("failed to delete tag %s: %v", r.tagName, err)))
		report.Manual = append(report.Manual, "delete the local tag: git tag -d "+r.tagName)
	}
}

func (r *Rollback) deleteRemoteTag(ctx context.Context, report *RollbackReport) {
	const name = "delete remote tag"

	remote := r.opts.Config.Git.Remote
	if r.opts.DryRun {
		report.Steps = append(report.Steps,
			stepOK(name, fmt.Sprintf("would delete tag %s from %s", r.tagName, remote)))
		return
	}

	err := r.opts.Repo.DeleteRemoteTag(ctx, remote, r.tagName)
	switch {
	case err == nil, errors.Is(err, git.ErrAlreadyUpToDate):
		report.Steps = append(report.Steps,
			stepOK(name, fmt.Sprintf("deleted tag %s from %s", r.tagName, remote)))
	default:
		report.Steps = append(report.Steps,
			stepFail(name, fmt.Sprintf("failed to delete remote tag %s: %v", r.tagName, err)))
		report.Manual = append(report.Manual,
			fmt.Sprintf("delete the remote tag: git push %s :refs/tags/%s", remote, r.tagName))
	}
}

func (r *Rollback) rollbackPublishers(ctx context.Context, report *RollbackReport) {
	publishers, err := r.selectPublishers()
	if err != nil {
		report.Steps = append(report.Steps,
			stepFail("select publishers", err.Error()))
		report.Manual = append(report.Manual,
			"review the configured publishers and roll back their artifacts by hand")
		return
	}

	pctx := r.publishContext()
	for _, p := range publishers {
		name := "roll back " + p.Name()

		if !p.ShouldPublish(ctx, pctx) {
			continue
		}

		result := p.Rollback(ctx, pctx)
		switch result.Status {
		case publish.StatusSuccess:
			report.Steps = append(report.Steps, stepOK(name, result.Message))
		case publish.StatusSkipped:
			report.Steps = append(report.Steps, stepOK(name, result.Message))
			report.Manual = append(report.Manual,
				fmt.Sprintf("%s cannot remove %s %s; contact the registry if removal is required",
					p.DisplayName(), p.Registry(), r.version))
		default:
			report.Steps = append(report.Steps, stepFail(name, result.Message))
			report.Manual = append(report.Manual,
				fmt.Sprintf("remove version %s from %s by hand: %s",
					r.version, p.Registry(), result.Message))
		}
	}
}

func (r *Rollback) selectPublishers() ([]publish.Publisher, error) {
	if r.opts.Publishers != nil {
		return r.opts.Publishers, nil
	}
	if r.opts.Config.HasExplicitPublishers() {
		return r.opts.Registry.Select(r.opts.Config.Publishers.Enabled)
	}

	// Without an explicit list, rollback only touches registries it can
	// identify from the project itself.
	names := discoveredPublisherNames(r.opts)
	return r.opts.Registry.Select(names)
}

func (r *Rollback) publishContext() *publish.Context {
	return &publish.Context{
		ProjectRoot: r.opts.ProjectRoot,
		FS:          r.opts.FS,
		Config:      r.opts.Config,
		Version:     r.version,
		TagName:     r.tagName,
		DryRun:      r.opts.DryRun,
		Verbose:     r.opts.Verbose,
	}
}
