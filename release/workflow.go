package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-release/changelog"
	"github.com/input-output-hk/catalyst-forge-release/ecosystem"
	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/git"
	"github.com/input-output-hk/catalyst-forge-release/publish"
	"github.com/input-output-hk/catalyst-forge-release/version"
)

// Workflow runs the release sequence.
type Workflow struct {
	opts Options

	// id correlates every log line of one release run.
	id string

	// State computed by earlier steps and consumed by later ones.
	previousVersion string
	previousTag     string
	nextVersion     string
	tagName         string
	changedFiles    []string
	releaseNotes    string
	commitHash      string
	publishers      []publish.Publisher
}

// NewWorkflow creates a release workflow.
func NewWorkflow(opts *Options) (*Workflow, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Bump == "" {
		return nil, errors.New(errors.CodeInvalidInput, "Bump is required")
	}
	opts.applyDefaults()

	w := &Workflow{opts: *opts, id: uuid.NewString()}
	w.opts.Logger = w.opts.Logger.With("release_id", w.id)
	return w, nil
}

// ID returns the identifier correlating this run's log output.
func (w *Workflow) ID() string {
	return w.id
}

type step struct {
	name string
	run  func(ctx context.Context) StepResult
}

// Run executes the release steps in order and halts at the first failure,
// returning the results of every step that ran. Verification is advisory
// and never fails the run.
func (w *Workflow) Run(ctx context.Context) ([]StepResult, error) {
	selected, err := w.selectPublishers()
	if err != nil {
		return nil, err
	}
	w.publishers = selected

	steps := []step{
		{"bump version", w.stepBump},
		{"generate changelog", w.stepChangelog},
		{"commit", w.stepCommit},
		{"tag", w.stepTag},
		{"push", w.stepPush},
	}
	if w.opts.Config.CI.Enabled {
		steps = append(steps, step{"wait for ci", w.stepCIWait})
	}
	steps = append(steps,
		step{"create release", w.stepCreateRelease},
		step{"publish", w.stepPublish},
		step{"verify", w.stepVerify},
	)

	var results []StepResult
	for _, s := range steps {
		w.opts.Logger.Info("running release step", "step", s.name, "dry_run", w.opts.DryRun)

		result := s.run(ctx)
		result.Name = s.name
		results = append(results, result)

		if !result.Success {
			return results, errors.Newf(errors.CodeExecutionFailed,
				"release halted at step %q: %s", s.name, result.Message)
		}
	}
	return results, nil
}

// selectPublishers resolves the publishers for this release: an explicit
// override, the configured list, or ecosystem discovery, in that order.
func (w *Workflow) selectPublishers() ([]publish.Publisher, error) {
	if w.opts.Publishers != nil {
		return w.opts.Publishers, nil
	}

	names := w.opts.Config.Publishers.Enabled
	if len(names) == 0 {
		names = discoveredPublisherNames(w.opts)
	}
	return w.opts.Registry.Select(names)
}

func (w *Workflow) stepBump(ctx context.Context) StepResult {
	const name = "bump version"

	current, fromTag, err := w.currentVersion(ctx)
	if err != nil {
		return stepFail(name, fmt.Sprintf("failed to determine current version: %v", err))
	}

	next, err := version.Bump(current, w.opts.Bump)
	if err != nil {
		return stepFail(name, fmt.Sprintf("failed to bump %s: %v", current, err))
	}

	w.previousVersion = current
	w.nextVersion = next
	w.tagName = w.opts.Config.TagFor(next)
	if fromTag {
		w.previousTag = w.opts.Config.TagFor(current)
	}

	message := fmt.Sprintf("%s bump: %s becomes %s", w.opts.Bump, current, next)
	if w.opts.DryRun {
		return stepOK(name, "would apply "+message)
	}

	// Exactly one version file carries the bump; a repository without one
	// releases from its tag baseline alone.
	if vf, err := ecosystem.Detect(w.opts.FS); err == nil {
		if err := vf.SetVersion(next); err != nil {
			return stepFail(name, fmt.Sprintf("failed to write %s version: %v", vf.Name(), err))
		}
		w.changedFiles = append(w.changedFiles, vf.Path())
	}

	return stepOK(name, message)
}

// currentVersion resolves the version the bump starts from: the configured
// project version, an ecosystem version file, or the latest release tag.
// A repository with none of these starts from 0.0.0. The second return
// reports whether a matching release tag exists for the version.
func (w *Workflow) currentVersion(ctx context.Context) (string, bool, error) {
	if v := w.opts.Config.Project.Version; v != "" {
		return v, w.tagExistsFor(ctx, v), nil
	}

	if vf, err := ecosystem.Detect(w.opts.FS); err == nil {
		v, vErr := vf.Version()
		if vErr != nil {
			return "", false, vErr
		}
		return v, w.tagExistsFor(ctx, v), nil
	}

	tag, err := w.opts.Repo.LatestTag(ctx, w.opts.Config.TagPrefix())
	if err != nil {
		if errors.Is(err, git.ErrNoTags) {
			return "0.0.0", false, nil
		}
		return "", false, err
	}

	v, err := version.FromTag(tag, w.opts.Config.TagPrefix())
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (w *Workflow) tagExistsFor(ctx context.Context, v string) bool {
	tag, err := w.opts.Repo.LatestTag(ctx, w.opts.Config.TagPrefix())
	return err == nil && tag == w.opts.Config.TagFor(v)
}

func (w *Workflow) stepChangelog(ctx context.Context) StepResult {
	const name = "generate changelog"

	notes, err := w.opts.Changelog.Generate(ctx, w.tagName, w.previousTag)
	if err != nil {
		return stepFail(name, fmt.Sprintf("changelog generation interrupted: %v", err))
	}
	w.releaseNotes = notes

	if !w.opts.Config.Changelog.Write {
		return stepOK(name, "generated release notes")
	}

	file := w.opts.Config.Changelog.File
	if w.opts.DryRun {
		return stepOK(name, "would prepend release notes to "+file)
	}

	if err := changelog.Prepend(w.opts.FS, file, notes); err != nil {
		return stepFail(name, fmt.Sprintf("failed to update %s: %v", file, err))
	}
	w.changedFiles = append(w.changedFiles, file)

	return stepOK(name, "updated "+file)
}

func (w *Workflow) stepCommit(ctx context.Context) StepResult {
	const name = "commit"

	if w.opts.DryRun {
		return stepOK(name, "would commit the release changes")
	}
	if len(w.changedFiles) == 0 {
		head, err := w.opts.Repo.Head(ctx)
		if err != nil {
			return stepFail(name, fmt.Sprintf("failed to resolve HEAD: %v", err))
		}
		w.commitHash = head
		return stepOK(name, "no files changed; releasing from HEAD")
	}

	if err := w.opts.Repo.Add(ctx, w.changedFiles...); err != nil {
		return stepFail(name, fmt.Sprintf("failed to stage release files: %v", err))
	}

	hash, err := w.opts.Repo.Commit(ctx,
		"chore(release): "+w.tagName, w.signature(), git.CommitOpts{})
	if err != nil {
		return stepFail(name, fmt.Sprintf("failed to commit: %v", err))
	}
	w.commitHash = hash

	return StepResult{
		Name:    name,
		Success: true,
		Message: "committed release changes",
		Details: w.changedFiles,
	}
}

func (w *Workflow) stepTag(ctx context.Context) StepResult {
	const name = "tag"

	if w.opts.DryRun {
		return stepOK(name, "would create tag "+w.tagName)
	}

	// go-git cannot produce GPG signatures, so signed tags go through the
	// git CLI and pick up the checkout's signing configuration.
	if w.opts.Config.Git.SignTags {
		gitTool := executor.NewTool(w.opts.Runner, "git")
		args := []string{"tag", "--sign", "--message", "Release " + w.tagName, w.tagName, w.commitHash}
		if _, err := gitTool.RunWith(ctx, args, executor.WithWorkingDir(w.opts.ProjectRoot)); err != nil {
			return stepFail(name, fmt.Sprintf("failed to create signed tag %s: %v", w.tagName, err))
		}
		return stepOK(name, "created signed tag "+w.tagName)
	}

	if err := w.opts.Repo.CreateTag(ctx, w.tagName, w.commitHash, "Release "+w.tagName, w.signature()); err != nil {
		return stepFail(name, fmt.Sprintf("failed to create tag %s: %v", w.tagName, err))
	}
	return stepOK(name, "created tag "+w.tagName)
}

func (w *Workflow) stepPush(ctx context.Context) StepResult {
	const name = "push"

	remote := w.opts.Config.Git.Remote
	branch := w.opts.Config.Git.Branch
	if branch == "" {
		current, err := w.opts.Repo.CurrentBranch(ctx)
		if err != nil {
			return stepFail(name, fmt.Sprintf("failed to resolve current branch: %v", err))
		}
		branch = current
	}

	if w.opts.DryRun {
		return stepOK(name, fmt.Sprintf("would push %s and %s to %s", branch, w.tagName, remote))
	}

	if err := w.opts.Repo.PushBranch(ctx, remote, branch); err != nil && !errors.Is(err, git.ErrAlreadyUpToDate) {
		return stepFail(name, fmt.Sprintf("failed to push branch %s: %v", branch, err))
	}
	if err := w.opts.Repo.PushTag(ctx, remote, w.tagName); err != nil && !errors.Is(err, git.ErrAlreadyUpToDate) {
		return stepFail(name, fmt.Sprintf("failed to push tag %s: %v", w.tagName, err))
	}
	return stepOK(name, fmt.Sprintf("pushed %s and %s to %s", branch, w.tagName, remote))
}

func (w *Workflow) stepCIWait(ctx context.Context) StepResult {
	const name = "wait for ci"

	workflows := w.opts.Config.CI.RequiredWorkflows
	if len(workflows) == 0 {
		return stepOK(name, "no required workflows configured")
	}
	if w.opts.DryRun {
		return stepOK(name, "would wait for "+strings.Join(workflows, ", "))
	}

	results, err := w.opts.Monitor.WaitForAll(ctx, workflows, w.commitHash)
	if err != nil {
		return stepFail(name, err.Error())
	}

	details := make([]string, len(results))
	for i, r := range results {
		details[i] = fmt.Sprintf("%s: %s", r.Name, r.Status)
	}
	return StepResult{Name: name, Success: true, Message: "all required workflows finished", Details: details}
}

func (w *Workflow) stepCreateRelease(ctx context.Context) StepResult {
	const name = "create release"

	gh := w.publisherNamed("github")
	if gh == nil {
		return stepOK(name, "github publisher not selected")
	}

	results := publish.PublishAll(ctx, []publish.Publisher{gh}, w.publishContext(), w.opts.Logger)
	if len(results) == 0 {
		return stepOK(name, "github publisher does not apply")
	}
	if results[0].Failed() {
		return stepFail(name, results[0].Message)
	}
	return stepOK(name, results[0].Message)
}

func (w *Workflow) stepPublish(ctx context.Context) StepResult {
	const name = "publish"

	var rest []publish.Publisher
	for _, p := range w.publishers {
		if p.Name() != "github" {
			rest = append(rest, p)
		}
	}
	if len(rest) == 0 {
		return stepOK(name, "no registry publishers selected")
	}

	results := publish.PublishAll(ctx, rest, w.publishContext(), w.opts.Logger)

	details := make([]string, 0, len(results))
	for _, r := range results {
		details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Message))
		if r.Failed() {
			result := stepFail(name, fmt.Sprintf("publisher %s failed: %s", r.Name, r.Message))
			if yanked := r.Details["yanked"]; yanked != "" {
				details = append(details, "yanked: "+yanked)
			}
			result.Details = details
			return result
		}
	}

	return StepResult{
		Name:    name,
		Success: true,
		Message: fmt.Sprintf("ran %d publisher(s)", len(results)),
		Details: details,
	}
}

// stepVerify is advisory: a PENDING artifact may still be indexing, so the
// step succeeds and reports per-publisher statuses.
func (w *Workflow) stepVerify(ctx context.Context) StepResult {
	const name = "verify"

	if w.opts.DryRun {
		return stepOK(name, "would verify published artifacts")
	}

	results := publish.VerifyAll(ctx, w.publishers, w.publishContext(), w.opts.Verifier)
	if len(results) == 0 {
		return stepOK(name, "nothing to verify")
	}

	pending := 0
	details := make([]string, len(results))
	for i, r := range results {
		details[i] = fmt.Sprintf("%s: %s (%s)", r.Name, r.Status, r.Message)
		if r.Status == publish.StatusPending {
			pending++
		}
	}

	message := "all artifacts verified"
	if pending > 0 {
		message = fmt.Sprintf("%d artifact(s) still pending; registries may lag", pending)
	}
	return StepResult{Name: name, Success: true, Message: message, Details: details}
}

func (w *Workflow) publisherNamed(name string) publish.Publisher {
	for _, p := range w.publishers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func (w *Workflow) publishContext() *publish.Context {
	return &publish.Context{
		ProjectRoot:  w.opts.ProjectRoot,
		FS:           w.opts.FS,
		Config:       w.opts.Config,
		Version:      w.nextVersion,
		TagName:      w.tagName,
		ReleaseNotes: w.releaseNotes,
		DryRun:       w.opts.DryRun,
		Verbose:      w.opts.Verbose,
	}
}

func (w *Workflow) signature() git.Signature {
	return git.Signature{
		Name:  w.opts.Config.Git.AuthorName,
		Email: w.opts.Config.Git.AuthorEmail,
	}
}
