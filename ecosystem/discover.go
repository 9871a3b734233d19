package ecosystem

import (
	"sort"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-release/config"
)

// Project is the result of auto-discovery: the ecosystems present at the
// project root and the publishers plausible for them.
type Project struct {
	// Ecosystems are the detected version accessors, in priority order.
	Ecosystems []VersionFile

	// Publishers are the suggested publisher names, in the order the
	// workflow should run them.
	Publishers []string
}

// Primary returns the first detected ecosystem, or nil.
func (p *Project) Primary() VersionFile {
	if len(p.Ecosystems) == 0 {
		return nil
	}
	return p.Ecosystems[0]
}

// publisherOrder fixes the run order for discovered publishers: package
// indexes first so a failed upload aborts before the release record and
// mirror artifacts exist.
var publisherOrder = map[string]int{
	"crates": 0,
	"npm":    1,
	"github": 2,
	"oci":    3,
	"s3":     4,
}

// Discover inspects the project root and suggests publishers. Ecosystem
// presence drives the package-index publishers; the GitHub, OCI, and S3
// publishers are suggested only when their configuration sections are
// filled in, since they cannot be inferred from files alone.
func Discover(fsys billy.Filesystem, cfg *config.Config) *Project {
	project := &Project{}

	for _, vf := range All(fsys) {
		if vf.Detect() {
			project.Ecosystems = append(project.Ecosystems, vf)
		}
	}

	suggest := func(name string) {
		if cfg == nil || cfg.PublisherEnabled(name) {
			project.Publishers = append(project.Publishers, name)
		}
	}

	for _, vf := range project.Ecosystems {
		switch vf.Name() {
		case "cargo":
			suggest("crates")
		case "npm":
			suggest("npm")
		}
	}

	if _, err := fsys.Stat(".github"); err == nil {
		suggest("github")
	}

	if cfg != nil {
		if cfg.Publishers.OCI.Reference != "" {
			suggest("oci")
		}
		if cfg.Publishers.S3.Bucket != "" {
			suggest("s3")
		}
	}

	sort.SliceStable(project.Publishers, func(i, j int) bool {
		return publisherOrder[project.Publishers[i]] < publisherOrder[project.Publishers[j]]
	})

	return project
}
