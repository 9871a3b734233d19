package ecosystem

import (
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

const genericVersionFile = "VERSION"

// Generic is the fallback accessor over a plain VERSION file holding a
// single version string.
type Generic struct {
	fsys billy.Filesystem
}

// NewGeneric creates a Generic accessor for the project root.
func NewGeneric(fsys billy.Filesystem) *Generic {
	return &Generic{fsys: fsys}
}

// Name implements VersionFile.
func (g *Generic) Name() string { return "generic" }

// PackageManager implements VersionFile.
func (g *Generic) PackageManager() string { return "" }

// Path implements VersionFile.
func (g *Generic) Path() string { return genericVersionFile }

// Detect implements VersionFile.
func (g *Generic) Detect() bool {
	_, err := g.fsys.Stat(genericVersionFile)
	return err == nil
}

// Version implements VersionFile.
func (g *Generic) Version() (string, error) {
	data, err := util.ReadFile(g.fsys, genericVersionFile)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeNotFound, "failed to read %s", genericVersionFile)
	}

	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", errors.Newf(errors.CodeInvalidInput, "%s file is empty", genericVersionFile)
	}
	return version, nil
}

// SetVersion implements VersionFile. A trailing newline is always written,
// matching the convention for single-value files.
func (g *Generic) SetVersion(version string) error {
	if err := util.WriteFile(g.fsys, genericVersionFile, []byte(version+"\n"), 0o644); err != nil {
		return errors.Wrapf(err, errors.CodeUnknown, "failed to write %s", genericVersionFile)
	}
	return nil
}

// rewriteVersion replaces the first version match in the file, leaving every
// other byte untouched.
func rewriteVersion(fsys billy.Filesystem, path string, re *regexp.Regexp, version string) error {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return errors.Wrapf(err, errors.CodeNotFound, "failed to read %s", path)
	}

	if !re.Match(data) {
		return errors.Newf(errors.CodeInvalidInput, "no version field in %s", path)
	}

	replaced := false
	updated := re.ReplaceAllFunc(data, func(match []byte) []byte {
		if replaced {
			return match
		}
		replaced = true
		return re.ReplaceAll(match, []byte("${1}"+version+"${3}"))
	})

	if err := util.WriteFile(fsys, path, updated, 0o644); err != nil {
		return errors.Wrapf(err, errors.CodeUnknown, "failed to write %s", path)
	}
	return nil
}
