package ecosystem

import (
	"regexp"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

const pythonManifest = "pyproject.toml"

var pythonVersionRe = regexp.MustCompile(`(?m)^(\s*version\s*=\s*")([^"]+)(")`)

// Python reads and writes the version in a pyproject.toml manifest.
type Python struct {
	fsys billy.Filesystem
}

// NewPython creates a Python accessor for the project root.
func NewPython(fsys billy.Filesystem) *Python {
	return &Python{fsys: fsys}
}

// Name implements VersionFile.
func (p *Python) Name() string { return "python" }

// PackageManager implements VersionFile.
func (p *Python) PackageManager() string { return "pip" }

// Path implements VersionFile.
func (p *Python) Path() string { return pythonManifest }

// Detect implements VersionFile.
func (p *Python) Detect() bool {
	_, err := p.fsys.Stat(pythonManifest)
	return err == nil
}

// Version implements VersionFile.
func (p *Python) Version() (string, error) {
	data, err := util.ReadFile(p.fsys, pythonManifest)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeNotFound, "failed to read %s", pythonManifest)
	}

	m := pythonVersionRe.FindSubmatch(data)
	if m == nil {
		return "", errors.Newf(errors.CodeInvalidInput, "no version field in %s", pythonManifest)
	}
	return string(m[2]), nil
}

// SetVersion implements VersionFile.
func (p *Python) SetVersion(version string) error {
	return rewriteVersion(p.fsys, pythonManifest, pythonVersionRe, version)
}
