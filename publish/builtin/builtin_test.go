package builtin

import (
	"context"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-release/config"
	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

// fakeRunner records every invocation and scripts failures and output by
// command-line prefix.
type fakeRunner struct {
	calls    []string
	failOn   string
	stdoutOn map[string]string
}

func (f *fakeRunner) Run(ctx context.Context, program string, args []string, opts ...executor.Option) (*executor.Result, error) {
	line := program + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)

	if f.failOn != "" && strings.HasPrefix(line, f.failOn) {
		return &executor.Result{ExitCode: 1, Stderr: "scripted failure"},
			assert.AnError
	}

	for prefix, out := range f.stdoutOn {
		if strings.HasPrefix(line, prefix) {
			return &executor.Result{Stdout: out}, nil
		}
	}
	return &executor.Result{}, nil
}

func (f *fakeRunner) callsWithPrefix(prefix string) []string {
	var out []string
	for _, call := range f.calls {
		if strings.HasPrefix(call, prefix) {
			out = append(out, call)
		}
	}
	return out
}

func newPublishContext(t *testing.T, files map[string]string) *publish.Context {
	t.Helper()

	fs := memfs.New()
	writeAll(t, fs, files)

	return &publish.Context{
		ProjectRoot:  "/project",
		FS:           fs,
		Config:       config.Default("test-project"),
		Version:      "1.2.3",
		TagName:      "v1.2.3",
		ReleaseNotes: "## What's new\n- things\n",
	}
}

func writeAll(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644))
	}
}

func TestAllRegistered(t *testing.T) {
	reg := publish.Default()
	for _, p := range All() {
		got, ok := reg.Get(p.Name())
		require.True(t, ok, "publisher %s not registered", p.Name())
		assert.Equal(t, p.Registry(), got.Registry())
	}
}

func TestExpandArtifacts(t *testing.T) {
	fs := memfs.New()
	writeAll(t, fs, map[string]string{
		"dist/app-linux":  "bin",
		"dist/app-darwin": "bin",
		"README.md":       "docs",
	})

	t.Run("glob expands sorted", func(t *testing.T) {
		got, err := expandArtifacts(fs, []string{"dist/*"})

		require.NoError(t, err)
		assert.Equal(t, []string{"dist/app-darwin", "dist/app-linux"}, got)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		got, err := expandArtifacts(fs, []string{"dist/*", "dist/app-linux"})

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unmatched pattern errors", func(t *testing.T) {
		_, err := expandArtifacts(fs, []string{"missing/*"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing/*")
	})
}
