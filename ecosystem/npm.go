package ecosystem

import (
	"encoding/json"
	"regexp"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

const npmManifest = "package.json"

// npmVersionRe targets the top-level version field. The write path edits the
// raw text instead of re-marshalling so key order and indentation survive.
var npmVersionRe = regexp.MustCompile(`("version"\s*:\s*")([^"]+)(")`)

// NPM reads and writes the version in a package.json manifest.
type NPM struct {
	fsys billy.Filesystem
}

// NewNPM creates an NPM accessor for the project root.
func NewNPM(fsys billy.Filesystem) *NPM {
	return &NPM{fsys: fsys}
}

// Name implements VersionFile.
func (n *NPM) Name() string { return "npm" }

// PackageManager implements VersionFile.
func (n *NPM) PackageManager() string { return "npm" }

// Path implements VersionFile.
func (n *NPM) Path() string { return npmManifest }

// Detect implements VersionFile.
func (n *NPM) Detect() bool {
	_, err := n.fsys.Stat(npmManifest)
	return err == nil
}

// Version implements VersionFile.
func (n *NPM) Version() (string, error) {
	data, err := util.ReadFile(n.fsys, npmManifest)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeNotFound, "failed to read %s", npmManifest)
	}

	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "failed to parse %s", npmManifest)
	}
	if manifest.Version == "" {
		return "", errors.Newf(errors.CodeInvalidInput, "no version field in %s", npmManifest)
	}
	return manifest.Version, nil
}

// SetVersion implements VersionFile.
func (n *NPM) SetVersion(version string) error {
	return rewriteVersion(n.fsys, npmManifest, npmVersionRe, version)
}

// PackageName returns the package name from the manifest.
func (n *NPM) PackageName() (string, error) {
	data, err := util.ReadFile(n.fsys, npmManifest)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeNotFound, "failed to read %s", npmManifest)
	}

	var manifest struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "failed to parse %s", npmManifest)
	}
	return manifest.Name, nil
}
