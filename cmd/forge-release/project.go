package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-release/config"
	"github.com/input-output-hk/catalyst-forge-release/errors"
	"github.com/input-output-hk/catalyst-forge-release/git"
)

// project bundles everything a command needs to operate on a checkout.
type project struct {
	root    string
	fs      billy.Filesystem
	cfg     *config.Config
	repo    *git.Repo
	dryRun  bool
	verbose bool
}

// loadProject resolves the project root from the flags and loads its
// filesystem and configuration. A missing configuration file falls back to
// defaults unless --config named one explicitly.
func loadProject(cmd *cobra.Command) (*project, error) {
	flags := cmd.Flags()

	root, err := flags.GetString("project")
	if err != nil {
		return nil, fmt.Errorf("parse --project: %w", err)
	}
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "failed to determine the working directory")
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid project root %s", root)
	}

	p := &project{root: root, fs: osfs.New(root)}
	p.dryRun, _ = flags.GetBool("dry-run")
	p.verbose, _ = flags.GetBool("verbose")

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("parse --config: %w", err)
	}
	explicit := cfgPath != ""
	if !explicit {
		cfgPath = config.DefaultFileName
	}

	p.cfg, err = config.Load(p.fs, cfgPath)
	switch {
	case err == nil:
	case !explicit && errors.HasCode(err, errors.CodeNotFound):
		p.cfg = config.Default(filepath.Base(root))
	default:
		return nil, err
	}

	return p, nil
}

// authFromEnv returns the auth provider for git network operations. CI
// provides the push token via FORGE_RELEASE_TOKEN, or GITHUB_TOKEN as the
// Actions default. Without either, remotes are contacted unauthenticated.
func authFromEnv() git.AuthProvider {
	for _, key := range []string{"FORGE_RELEASE_TOKEN", "GITHUB_TOKEN"} {
		if token := os.Getenv(key); token != "" {
			return git.TokenAuth(token)
		}
	}
	return nil
}

// openRepo opens the git checkout at the project root.
func (p *project) openRepo(cmd *cobra.Command) error {
	repo, err := git.Open(cmd.Context(), &git.Options{FS: p.fs, Auth: authFromEnv()})
	if err != nil {
		return errors.Wrapf(err, errors.CodeGit, "failed to open the repository at %s", p.root).
			WithHint("run from inside a git checkout or pass --project")
	}
	p.repo = repo
	return nil
}
