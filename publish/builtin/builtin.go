// Package builtin provides the standard publishers. Importing the package
// registers them with the default publish registry.
package builtin

import (
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/executor"
	"github.com/input-output-hk/catalyst-forge-release/publish"
)

func init() {
	for _, p := range All() {
		publish.Default().MustRegister(p)
	}
}

// All returns a fresh instance of every built-in publisher, wired to the
// local machine, in the order they should run.
func All() []publish.Publisher {
	runner := executor.NewLocal()
	return []publish.Publisher{
		NewCrates(runner),
		NewNPM(runner),
		NewGitHubRelease(runner),
		NewOCI(nil),
		NewS3(nil),
	}
}

// expandArtifacts resolves glob patterns against the project filesystem,
// returning the sorted union of matches. A pattern with no match is an
// error: a release must not silently upload less than configured.
func expandArtifacts(fsys billy.Filesystem, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := util.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, &noMatchError{pattern: pattern}
		}
		for _, m := range matches {
			seen[path.Clean(m)] = true
		}
	}

	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

type noMatchError struct {
	pattern string
}

func (e *noMatchError) Error() string {
	return "artifact pattern " + e.pattern + " matched no files"
}
