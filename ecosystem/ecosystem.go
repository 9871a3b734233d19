// Package ecosystem reads and writes project version files for the
// ecosystems the release engine understands (Cargo, npm, Python, and a
// generic VERSION file), and discovers which publishers are plausible for a
// project. All file access goes through a billy filesystem so tests run
// against in-memory project layouts.
package ecosystem

import (
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// VersionFile is a single ecosystem's version accessor. Exactly one detected
// ecosystem is used for the bump step.
type VersionFile interface {
	// Name identifies the ecosystem ("cargo", "npm", "python", "generic").
	Name() string

	// PackageManager is the tool that publishes this ecosystem's artifacts.
	PackageManager() string

	// Path is the version file's path relative to the project root.
	Path() string

	// Detect reports whether the project uses this ecosystem.
	Detect() bool

	// Version reads the current version from the version file.
	Version() (string, error)

	// SetVersion rewrites the version in place, preserving the rest of the
	// file byte for byte.
	SetVersion(version string) error
}

// All returns every known version accessor for the project root, in
// detection priority order.
func All(fsys billy.Filesystem) []VersionFile {
	return []VersionFile{
		NewCargo(fsys),
		NewNPM(fsys),
		NewPython(fsys),
		NewGeneric(fsys),
	}
}

// Detect returns the first ecosystem detected for the project root.
// Returns a CodeNotFound error when the project has no recognizable
// version file.
func Detect(fsys billy.Filesystem) (VersionFile, error) {
	for _, vf := range All(fsys) {
		if vf.Detect() {
			return vf, nil
		}
	}
	return nil, errors.New(errors.CodeNotFound, "no version file detected").
		WithHint("add a Cargo.toml, package.json, pyproject.toml, or VERSION file")
}
