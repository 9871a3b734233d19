package builtin

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/validate"
)

// secretPatterns are the built-in credential signatures. Configuration can
// extend the set with validation.secret_patterns.
var secretPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"AWS access key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"GitHub token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`)},
	{"private key", regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH )?PRIVATE KEY-----`)},
	{"slack token", regexp.MustCompile(`xox[baprs]-[A-Za-z0-9-]{10,}`)},
	{"generic api key", regexp.MustCompile(`(?i)(?:api[_-]?key|secret)\s*[:=]\s*["'][A-Za-z0-9/+=_-]{20,}["']`)},
}

// skipDirs are never scanned.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
	"dist":         true,
}

const maxScanSize = 1 << 20 // skip files larger than 1 MiB

// SecretScan blocks a release when a file in the project matches a known
// credential pattern.
type SecretScan struct{}

// Name implements validate.Validator.
func (*SecretScan) Name() string { return "secret-scan" }

// DisplayName implements validate.Validator.
func (*SecretScan) DisplayName() string { return "Secret scan" }

// Category implements validate.Validator.
func (*SecretScan) Category() validate.Category { return validate.CategorySecurity }

// ShouldRun implements validate.Validator.
func (v *SecretScan) ShouldRun(ctx context.Context, vctx *validate.Context) bool {
	return !skipped(vctx, v.Name())
}

// Validate implements validate.Validator.
func (v *SecretScan) Validate(ctx context.Context, vctx *validate.Context) validate.Result {
	patterns := secretPatterns
	if vctx.Config != nil {
		for _, raw := range vctx.Config.Validation.SecretPatterns {
			re, err := regexp.Compile(raw)
			if err != nil {
				return validate.Failf("invalid configured secret pattern %q: %v", raw, err)
			}
			patterns = append(patterns, struct {
				name string
				re   *regexp.Regexp
			}{"configured pattern", re})
		}
	}

	var findings []string
	err := walk(vctx.FS, ".", func(filePath string, data []byte) {
		for _, pattern := range patterns {
			if loc := pattern.re.FindIndex(data); loc != nil {
				line := 1 + strings.Count(string(data[:loc[0]]), "\n")
				findings = append(findings,
					fmt.Sprintf("%s:%d: %s", filePath, line, pattern.name))
			}
		}
	})
	if err != nil {
		return validate.Failf("secret scan failed: %v", err)
	}

	if len(findings) > 0 {
		return validate.Failf("%d potential secret(s) found", len(findings)).
			WithDetails(findings...).
			WithDetails("remove the secrets or skip this check via validation.skip")
	}
	return validate.Pass("no secret patterns found")
}

// walk visits every regular text file under root, skipping known build and
// dependency directories, oversized files, and binary content.
func walk(fsys billy.Filesystem, root string, visit func(path string, data []byte)) error {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		full := path.Join(root, entry.Name())

		if entry.IsDir() {
			if skipDirs[entry.Name()] {
				continue
			}
			if walkErr := walk(fsys, full, visit); walkErr != nil {
				return walkErr
			}
			continue
		}

		if entry.Size() > maxScanSize {
			continue
		}

		data, readErr := util.ReadFile(fsys, full)
		if readErr != nil {
			continue
		}
		if !utf8.Valid(data) {
			continue
		}

		visit(full, data)
	}

	return nil
}
