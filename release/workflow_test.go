package release

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/changelog"
	"github.com/input-output-hk/catalyst-forge-release/ci"
	"github.com/input-output-hk/catalyst-forge-release/config"
	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/git"
	"github.com/input-output-hk/catalyst-forge-release/publish"
	"github.com/input-output-hk/catalyst-forge-release/version"
)

const testHead = "abc1234def5678abc1234def5678abc1234def56"

// fakeRepo records repository operations and scripts failures by method
// name.
type fakeRepo struct {
	calls     []string
	failOn    string
	latestTag string
	commits   []git.Commit
}

func (f *fakeRepo) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn != "" && strings.HasPrefix(call, f.failOn) {
		return assert.AnError
	}
	return nil
}

func (f *fakeRepo) Add(ctx context.Context, paths ...string) error {
	return f.record("Add " + strings.Join(paths, " "))
}

func (f *fakeRepo) Commit(ctx context.Context, msg string, who git.Signature, opts git.CommitOpts) (string, error) {
	if err := f.record("Commit " + msg); err != nil {
		return "", err
	}
	return testHead, nil
}

func (f *fakeRepo) Head(ctx context.Context) (string, error) {
	return testHead, nil
}

func (f *fakeRepo) CurrentBranch(ctx context.Context) (string, error) {
	return "main", nil
}

func (f *fakeRepo) CreateTag(ctx context.Context, name, target, message string, who git.Signature) error {
	return f.record("CreateTag " + name)
}

func (f *fakeRepo) DeleteTag(ctx context.Context, name string) error {
	return f.record("DeleteTag " + name)
}

func (f *fakeRepo) PushBranch(ctx context.Context, remote, branch string) error {
	return f.record("PushBranch " + remote + " " + branch)
}

func (f *fakeRepo) PushTag(ctx context.Context, remote, tag string) error {
	return f.record("PushTag " + remote + " " + tag)
}

func (f *fakeRepo) DeleteRemoteTag(ctx context.Context, remote, tag string) error {
	return f.record("DeleteRemoteTag " + remote + " " + tag)
}

func (f *fakeRepo) LatestTag(ctx context.Context, prefix string) (string, error) {
	if f.latestTag == "" {
		return "", git.ErrNoTags
	}
	return f.latestTag, nil
}

func (f *fakeRepo) CommitsSince(ctx context.Context, tag string) ([]git.Commit, error) {
	return f.commits, nil
}

func (f *fakeRepo) callsWithPrefix(prefix string) []string {
	var out []string
	for _, call := range f.calls {
		if strings.HasPrefix(call, prefix) {
			out = append(out, call)
		}
	}
	return out
}

// stubPublisher is a scriptable publisher for workflow tests.
type stubPublisher struct {
	name          string
	registry      string
	canRollback   bool
	publishResult publish.Result
	rollback      publish.Result
	verified      bool
	publishCalls  int
	rollbackCalls int
}

func (s *stubPublisher) Name() string        { return s.name }
func (s *stubPublisher) DisplayName() string { return "Stub " + s.name }

func (s *stubPublisher) Registry() string {
	if s.registry == "" {
		return s.name + ".example.com"
	}
	return s.registry
}

func (s *stubPublisher) ShouldPublish(ctx context.Context, pctx *publish.Context) bool {
	return true
}

func (s *stubPublisher) Publish(ctx context.Context, pctx *publish.Context) publish.Result {
	s.publishCalls++
	if pctx.DryRun {
		return publish.Success("would publish")
	}
	if s.publishResult.Status == "" {
		return publish.Success("published")
	}
	return s.publishResult
}

func (s *stubPublisher) Verify(ctx context.Context, pctx *publish.Context) bool {
	return s.verified
}

func (s *stubPublisher) CanRollback() bool { return s.canRollback }

func (s *stubPublisher) Rollback(ctx context.Context, pctx *publish.Context) publish.Result {
	s.rollbackCalls++
	if s.rollback.Status == "" {
		return publish.Success("rolled back")
	}
	return s.rollback
}

// noopRunner satisfies executor.Runner for components that never run in a
// given test.
type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, program string, args []string, opts ...executor.Option) (*executor.Result, error) {
	return &executor.Result{}, nil
}

func newTestOptions(t *testing.T, repo *fakeRepo, publishers ...publish.Publisher) *Options {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "VERSION", []byte("1.0.0\n"), 0o644))

	cfg := config.Default("test-project")
	cfg.Project.Version = "1.0.0"

	return &Options{
		FS:          fs,
		ProjectRoot: "/project",
		Config:      cfg,
		Repo:        repo,
		Bump:        version.BumpPatch,
		Runner:      noopRunner{},
		Publishers:  publishers,
		Changelog:   changelog.NewGenerator(repo),
		Verifier:    publish.NewVerifier(publish.WithSleep(func(time.Duration) {})),
	}
}

func TestWorkflowRun(t *testing.T) {
	t.Run("patch release end to end", func(t *testing.T) {
		repo := &fakeRepo{
			latestTag: "v1.0.0",
			commits:   []git.Commit{{Hash: testHead, Subject: "feat: add widget"}},
		}
		pub := &stubPublisher{name: "stub", verified: true}
		opts := newTestOptions(t, repo, pub)

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.NoError(t, err)
		names := make([]string, len(results))
		for i, r := range results {
			names[i] = r.Name
			assert.True(t, r.Success, "step %s: %s", r.Name, r.Message)
		}
		assert.Equal(t, []string{
			"bump version", "generate changelog", "commit", "tag", "push",
			"create release", "publish", "verify",
		}, names)

		assert.Equal(t, []string{"Commit chore(release): v1.0.1"}, repo.callsWithPrefix("Commit"))
		assert.Equal(t, []string{"CreateTag v1.0.1"}, repo.callsWithPrefix("CreateTag"))
		assert.Equal(t, []string{"PushTag origin v1.0.1"}, repo.callsWithPrefix("PushTag"))
		assert.Equal(t, 1, pub.publishCalls)

		// The version file carries the bumped version.
		data, readErr := util.ReadFile(opts.FS, "VERSION")
		require.NoError(t, readErr)
		assert.Equal(t, "1.0.1\n", string(data))
	})

	t.Run("bumps only the first detected version file", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		pub := &stubPublisher{name: "stub", verified: true}
		opts := newTestOptions(t, repo, pub)
		manifest := "[package]\nname = \"widget\"\nversion = \"1.0.0\"\nedition = \"2021\"\n"
		require.NoError(t, util.WriteFile(opts.FS, "Cargo.toml", []byte(manifest), 0o644))

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		_, err = w.Run(context.Background())

		require.NoError(t, err)
		bumped, readErr := util.ReadFile(opts.FS, "Cargo.toml")
		require.NoError(t, readErr)
		assert.Contains(t, string(bumped), `version = "1.0.1"`)

		data, readErr := util.ReadFile(opts.FS, "VERSION")
		require.NoError(t, readErr)
		assert.Equal(t, "1.0.0\n", string(data), "only the detected version file carries the bump")
	})

	t.Run("dry run mutates nothing", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		pub := &stubPublisher{name: "stub"}
		opts := newTestOptions(t, repo, pub)
		opts.DryRun = true

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.NoError(t, err)
		wouldSteps := map[string]bool{
			"bump version": true, "commit": true, "tag": true, "push": true, "verify": true,
		}
		for _, r := range results {
			assert.True(t, r.Success)
			if wouldSteps[r.Name] {
				assert.Contains(t, r.Message, "would", "step %s", r.Name)
			}
		}
		assert.Empty(t, repo.calls)

		data, readErr := util.ReadFile(opts.FS, "VERSION")
		require.NoError(t, readErr)
		assert.Equal(t, "1.0.0\n", string(data))
	})

	t.Run("signed tags go through the git cli", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		pub := &stubPublisher{name: "stub", verified: true}
		opts := newTestOptions(t, repo, pub)
		opts.Config.Git.SignTags = true

		var commands []string
		opts.Runner = runnerFunc(func(ctx context.Context, program string, args []string, ropts ...executor.Option) (*executor.Result, error) {
			commands = append(commands, program+" "+strings.Join(args, " "))
			return &executor.Result{}, nil
		})

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.NoError(t, err)
		assert.Contains(t, commands, "git tag --sign --message Release v1.0.1 v1.0.1 "+testHead)
		assert.Empty(t, repo.callsWithPrefix("CreateTag"), "signed tags must not use the unsigned path")
		for _, r := range results {
			if r.Name == "tag" {
				assert.Contains(t, r.Message, "signed")
			}
		}
	})

	t.Run("halts at the first failing step", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0", failOn: "CreateTag"}
		pub := &stubPublisher{name: "stub"}
		opts := newTestOptions(t, repo, pub)

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.Error(t, err)
		assert.Equal(t, errors.CodeExecutionFailed, errors.GetCode(err))
		require.NotEmpty(t, results)
		last := results[len(results)-1]
		assert.Equal(t, "tag", last.Name)
		assert.False(t, last.Success)
		assert.Empty(t, repo.callsWithPrefix("Push"), "push must not run after a failed tag step")
		assert.Zero(t, pub.publishCalls)
	})

	t.Run("publisher failure halts before verify", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		pub := &stubPublisher{name: "stub", publishResult: publish.Failed("registry down")}
		opts := newTestOptions(t, repo, pub)

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.Error(t, err)
		last := results[len(results)-1]
		assert.Equal(t, "publish", last.Name)
		assert.Contains(t, last.Message, "registry down")
	})

	t.Run("pending verification stays advisory", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		pub := &stubPublisher{name: "stub", verified: false}
		opts := newTestOptions(t, repo, pub)

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.NoError(t, err)
		last := results[len(results)-1]
		assert.Equal(t, "verify", last.Name)
		assert.True(t, last.Success)
		assert.Contains(t, last.Message, "pending")
	})

	t.Run("github publisher runs in the create release step", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		gh := &stubPublisher{name: "github", verified: true}
		other := &stubPublisher{name: "stub", verified: true}
		opts := newTestOptions(t, repo, gh, other)

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.NoError(t, err)
		for _, r := range results {
			if r.Name == "create release" {
				assert.NotContains(t, r.Message, "not selected")
			}
		}
		assert.Equal(t, 1, gh.publishCalls)
		assert.Equal(t, 1, other.publishCalls)
	})

	t.Run("completes with no publishers selected", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		opts := newTestOptions(t, repo)

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.NoError(t, err)
		for _, r := range results {
			assert.True(t, r.Success, "step %s: %s", r.Name, r.Message)
		}
	})

	t.Run("first release starts from the version file", func(t *testing.T) {
		repo := &fakeRepo{}
		pub := &stubPublisher{name: "stub", verified: true}
		opts := newTestOptions(t, repo, pub)
		opts.Config.Project.Version = ""

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		_, err = w.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"CreateTag v1.0.1"}, repo.callsWithPrefix("CreateTag"))
	})
}

func TestWorkflowCIWait(t *testing.T) {
	ciRunJSON := `[{"databaseId": 9, "name": "ci", "status": "completed", "conclusion": "success", "headSha": "` + testHead + `", "url": ""}]`

	newCIMonitor := func(runner executor.Runner) *ci.Monitor {
		clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		return ci.NewMonitor(runner,
			ci.WithClock(func() time.Time { return clock }, func(time.Duration) {}))
	}

	t.Run("waits for required workflows", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		pub := &stubPublisher{name: "stub", verified: true}
		opts := newTestOptions(t, repo, pub)
		opts.Config.CI.Enabled = true
		opts.Config.CI.RequiredWorkflows = []string{"ci"}
		opts.Monitor = newCIMonitor(scriptedJSONRunner(ciRunJSON))

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.NoError(t, err)
		names := make([]string, len(results))
		for i, r := range results {
			names[i] = r.Name
		}
		assert.Contains(t, names, "wait for ci")
	})

	t.Run("step absent when ci disabled", func(t *testing.T) {
		repo := &fakeRepo{latestTag: "v1.0.0"}
		pub := &stubPublisher{name: "stub", verified: true}
		opts := newTestOptions(t, repo, pub)

		w, err := NewWorkflow(opts)
		require.NoError(t, err)

		results, err := w.Run(context.Background())

		require.NoError(t, err)
		for _, r := range results {
			assert.NotEqual(t, "wait for ci", r.Name)
		}
	})
}

// scriptedJSONRunner returns the same stdout for every invocation.
func scriptedJSONRunner(stdout string) executor.Runner {
	return runnerFunc(func(ctx context.Context, program string, args []string, opts ...executor.Option) (*executor.Result, error) {
		return &executor.Result{Stdout: stdout}, nil
	})
}

type runnerFunc func(ctx context.Context, program string, args []string, opts ...executor.Option) (*executor.Result, error)

func (f runnerFunc) Run(ctx context.Context, program string, args []string, opts ...executor.Option) (*executor.Result, error) {
	return f(ctx, program, args, opts...)
}
