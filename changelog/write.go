package changelog

import (
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// Prepend inserts a release section at the top of the changelog file,
// keeping an initial "# ..." title line (and its trailing blank line) in
// place when one exists. The file is created when missing.
func Prepend(fsys billy.Filesystem, path, section string) error {
	section = strings.TrimRight(section, "\n") + "\n"

	existing, err := util.ReadFile(fsys, path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.CodeUnknown, "failed to read %s", path)
	}

	var b strings.Builder
	rest := string(existing)

	if strings.HasPrefix(rest, "# ") {
		title, body, _ := strings.Cut(rest, "\n")
		b.WriteString(title)
		b.WriteString("\n\n")
		rest = strings.TrimLeft(body, "\n")
	}

	b.WriteString(section)
	if rest != "" {
		b.WriteString("\n")
		b.WriteString(rest)
	}

	if err := util.WriteFile(fsys, path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, errors.CodeUnknown, "failed to write %s", path)
	}
	return nil
}
