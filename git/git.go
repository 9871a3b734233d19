// Package git provides the version-control operations the release engine
// needs: working-tree status, commits, annotated tags, pushes, and tag and
// history queries. It is a task-oriented facade over go-git that operates on
// a billy filesystem so tests run entirely in memory.
package git

import (
	"context"
	"errors"
	"net/http"
	"time"

	gobilly "github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage"

	"github.com/input-output-hk/catalyst-forge-release/git/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the default worktree directory name.
	DefaultWorkdir = "."

	// DefaultRemoteName is the default remote name used for operations.
	DefaultRemoteName = "origin"
)

// Options configures repository discovery/creation and performance.
type Options struct {
	// FS is the REQUIRED filesystem root holding the repository
	// (osfs for a real checkout, memfs in tests).
	FS gobilly.Filesystem

	// Workdir is the path within FS for the worktree root.
	// Defaults to "." (current directory in FS).
	Workdir string

	// StorerCacheSize sets the LRU objects cache entries.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// Auth is an optional provider that resolves per-URL AuthMethod.
	// If nil, no authentication will be available for network operations.
	Auth AuthProvider

	// HTTPClient is an optional custom transport for network operations.
	// If nil, a default client with reasonable timeouts is used.
	HTTPClient *http.Client
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}

	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
}

// AuthProvider resolves authentication methods for git network operations.
type AuthProvider interface {
	// Method returns the appropriate transport.AuthMethod for the given
	// remote URL. Returns nil if no authentication is needed/available.
	Method(remoteURL string) (transport.AuthMethod, error)
}

// Signature identifies the author/committer for commits and annotated tags.
type Signature struct {
	// Name is the author's or committer's name.
	Name string

	// Email is the author's or committer's email address.
	Email string

	// When is the timestamp for the signature. Zero means time.Now at the
	// point the commit or tag is created.
	When time.Time
}

func (s Signature) whenOrNow() time.Time {
	if s.When.IsZero() {
		return time.Now()
	}
	return s.When
}

// CommitOpts configures commit creation behavior.
type CommitOpts struct {
	// AllowEmpty allows creating commits with no staged changes.
	AllowEmpty bool
}

// Repo represents a git repository and provides the release operations.
// It wraps a go-git Repository and Worktree behind a stable, minimal API.
type Repo struct {
	repo     *gogit.Repository
	worktree *gogit.Worktree
	options  Options
}

// Init creates a new non-bare git repository at the workdir within the
// filesystem. Used by tests and by tooling that bootstraps throwaway
// projects; release runs always Open an existing checkout.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	return setup(ctx, opts, gogit.Init)
}

// Open opens an existing git repository at the workdir within the filesystem.
// Both the .git directory and the worktree must be present.
//
// Context timeout/cancellation is honored during repository validation.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	return setup(ctx, opts, gogit.Open)
}

// setup performs the shared storage/worktree wiring for Init and Open.
func setup(
	ctx context.Context,
	opts *Options,
	build func(s storage.Storer, worktree gobilly.Filesystem) (*gogit.Repository, error),
) (*Repo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	scopedFS, err := opts.FS.Chroot(opts.Workdir)
	if err != nil {
		return nil, WrapErrorf(err, "failed to chroot to workdir %q", opts.Workdir)
	}

	dotGitFS, err := scopedFS.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, WrapError(err, "failed to access .git directory")
	}

	storer := fsbridge.NewStorage(dotGitFS, opts.StorerCacheSize)

	repo, err := build(storer, scopedFS)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, WrapError(ErrNotRepository, "no repository at workdir")
		}
		return nil, WrapError(err, "failed to set up repository")
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}

	return &Repo{
		repo:     repo,
		worktree: worktree,
		options:  *opts,
	}, nil
}

// authFor resolves the auth method for the given remote, or nil when no
// provider is configured.
func (r *Repo) authFor(remote string) (transport.AuthMethod, error) {
	if r.options.Auth == nil {
		return nil, nil
	}

	remoteConfig, err := r.repo.Remote(remote)
	if err != nil {
		return nil, WrapError(err, "failed to get remote configuration")
	}

	method, err := r.options.Auth.Method(remoteConfig.Config().URLs[0])
	if err != nil {
		return nil, WrapError(ErrAuthRequired, "failed to get authentication method")
	}
	return method, nil
}
