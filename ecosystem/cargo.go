package ecosystem

import (
	"path"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

const cargoManifest = "Cargo.toml"

// cargoVersionRe matches the version assignment line in a [package] or
// [workspace.package] section. The engine edits only this line so the rest
// of the manifest, including comments, survives a bump untouched.
var cargoVersionRe = regexp.MustCompile(`(?m)^(\s*version\s*=\s*")([^"]+)(")`)

// Cargo reads and writes the version in a Cargo.toml manifest.
type Cargo struct {
	fsys billy.Filesystem
}

// NewCargo creates a Cargo accessor for the project root.
func NewCargo(fsys billy.Filesystem) *Cargo {
	return &Cargo{fsys: fsys}
}

// Name implements VersionFile.
func (c *Cargo) Name() string { return "cargo" }

// PackageManager implements VersionFile.
func (c *Cargo) PackageManager() string { return "cargo" }

// Path implements VersionFile.
func (c *Cargo) Path() string { return cargoManifest }

// Detect implements VersionFile.
func (c *Cargo) Detect() bool {
	_, err := c.fsys.Stat(cargoManifest)
	return err == nil
}

// Version implements VersionFile. For workspaces the version comes from
// [workspace.package]; member manifests inherit it with version.workspace.
func (c *Cargo) Version() (string, error) {
	data, err := util.ReadFile(c.fsys, cargoManifest)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeNotFound, "failed to read %s", cargoManifest)
	}

	m := cargoVersionRe.FindSubmatch(data)
	if m == nil {
		return "", errors.Newf(errors.CodeInvalidInput, "no version field in %s", cargoManifest)
	}
	return string(m[2]), nil
}

// SetVersion implements VersionFile.
func (c *Cargo) SetVersion(version string) error {
	return rewriteVersion(c.fsys, cargoManifest, cargoVersionRe, version)
}

// Crate describes one workspace member for dependency-ordered publishing.
type Crate struct {
	// Name is the crate name from the member manifest.
	Name string

	// Path is the member directory relative to the workspace root.
	Path string

	// Dependencies lists the member's dependencies on other members of the
	// same workspace (external dependencies are ignored).
	Dependencies []string
}

var (
	workspaceMembersRe = regexp.MustCompile(`(?s)\[workspace\][^\[]*members\s*=\s*\[(.*?)\]`)
	memberEntryRe      = regexp.MustCompile(`"([^"]+)"`)
	crateNameRe        = regexp.MustCompile(`(?m)^\s*name\s*=\s*"([^"]+)"`)
	depSectionRe       = regexp.MustCompile(`(?m)^\[(?:dev-|build-)?dependencies(?:\.([A-Za-z0-9_-]+))?\]`)
	depEntryRe         = regexp.MustCompile(`(?m)^\s*([A-Za-z0-9_-]+)\s*=`)
)

// Workspace returns the crates of a Cargo workspace with their intra-
// workspace dependencies resolved. A manifest without a [workspace] section
// yields a single crate.
func (c *Cargo) Workspace() ([]Crate, error) {
	data, err := util.ReadFile(c.fsys, cargoManifest)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeNotFound, "failed to read %s", cargoManifest)
	}

	members := workspaceMembers(data)
	if len(members) == 0 {
		name, nameErr := crateName(data)
		if nameErr != nil {
			return nil, nameErr
		}
		return []Crate{{Name: name, Path: "."}}, nil
	}

	crates := make([]Crate, 0, len(members))
	manifests := make(map[string][]byte, len(members))
	names := make(map[string]bool, len(members))

	for _, member := range members {
		manifest, readErr := util.ReadFile(c.fsys, path.Join(member, cargoManifest))
		if readErr != nil {
			return nil, errors.Wrapf(readErr, errors.CodeNotFound,
				"failed to read manifest for workspace member %s", member)
		}
		name, nameErr := crateName(manifest)
		if nameErr != nil {
			return nil, errors.Wrapf(nameErr, errors.CodeInvalidInput,
				"workspace member %s", member)
		}
		crates = append(crates, Crate{Name: name, Path: member})
		manifests[name] = manifest
		names[name] = true
	}

	// Second pass: keep only dependencies that are workspace members.
	for i := range crates {
		for _, dep := range manifestDependencies(manifests[crates[i].Name]) {
			if names[dep] && dep != crates[i].Name {
				crates[i].Dependencies = append(crates[i].Dependencies, dep)
			}
		}
	}

	return crates, nil
}

func workspaceMembers(manifest []byte) []string {
	section := workspaceMembersRe.FindSubmatch(manifest)
	if section == nil {
		return nil
	}

	var members []string
	for _, entry := range memberEntryRe.FindAllSubmatch(section[1], -1) {
		members = append(members, string(entry[1]))
	}
	return members
}

func crateName(manifest []byte) (string, error) {
	m := crateNameRe.FindSubmatch(manifest)
	if m == nil {
		return "", errors.New(errors.CodeInvalidInput, "no package name in manifest")
	}
	return string(m[1]), nil
}

// manifestDependencies returns every dependency name declared in the
// manifest's dependency sections, including renamed path dependencies
// declared as [dependencies.name] tables. Line-oriented scan; a full TOML
// parse buys nothing here because only key names are needed.
func manifestDependencies(manifest []byte) []string {
	var deps []string
	seen := make(map[string]bool)

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}

	inDepSection := false
	for _, line := range strings.Split(string(manifest), "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "[") {
			if m := depSectionRe.FindStringSubmatch(trimmed); m != nil {
				if m[1] != "" {
					// [dependencies.name] table form.
					add(m[1])
					inDepSection = false
				} else {
					inDepSection = true
				}
			} else {
				inDepSection = false
			}
			continue
		}

		if inDepSection {
			if m := depEntryRe.FindStringSubmatch(line); m != nil {
				add(m[1])
			}
		}
	}

	return deps
}
