package builtin

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-release/validate"
)

// ChangelogFile warns when the configured changelog file is missing. The
// release still proceeds; notes generation has its own fallbacks.
type ChangelogFile struct{}

// Name implements validate.Validator.
func (*ChangelogFile) Name() string { return "changelog-file" }

// DisplayName implements validate.Validator.
func (*ChangelogFile) DisplayName() string { return "Changelog file" }

// Category implements validate.Validator.
func (*ChangelogFile) Category() validate.Category { return validate.CategoryFiles }

// ShouldRun implements validate.Validator.
func (v *ChangelogFile) ShouldRun(ctx context.Context, vctx *validate.Context) bool {
	return !skipped(vctx, v.Name()) && vctx.Config != nil
}

// Validate implements validate.Validator.
func (v *ChangelogFile) Validate(ctx context.Context, vctx *validate.Context) validate.Result {
	file := vctx.Config.Changelog.File
	if _, err := vctx.FS.Stat(file); err != nil {
		return validate.Warn(file + " does not exist").
			WithDetails("the release will create it when changelog.write is enabled")
	}
	return validate.Pass(file + " exists")
}

const workflowsDir = ".github/workflows"

// workflowNameRe pulls the top-level name field out of a workflow file.
var workflowNameRe = regexp.MustCompile(`(?m)^name:\s*["']?([^"'\n]+)["']?\s*$`)

// CIWorkflows blocks when a required CI workflow has no definition under
// .github/workflows, which would make the CI wait step poll forever.
type CIWorkflows struct{}

// Name implements validate.Validator.
func (*CIWorkflows) Name() string { return "ci-workflows" }

// DisplayName implements validate.Validator.
func (*CIWorkflows) DisplayName() string { return "Required CI workflows" }

// Category implements validate.Validator.
func (*CIWorkflows) Category() validate.Category { return validate.CategoryFiles }

// ShouldRun implements validate.Validator.
func (v *CIWorkflows) ShouldRun(ctx context.Context, vctx *validate.Context) bool {
	if skipped(vctx, v.Name()) {
		return false
	}
	return vctx.Config != nil && vctx.Config.CI.Enabled && len(vctx.Config.CI.RequiredWorkflows) > 0
}

// Validate implements validate.Validator.
func (v *CIWorkflows) Validate(ctx context.Context, vctx *validate.Context) validate.Result {
	defined, err := v.definedWorkflows(vctx)
	if err != nil {
		return validate.Failf("failed to scan %s: %v", workflowsDir, err)
	}

	var missing []string
	for _, required := range vctx.Config.CI.RequiredWorkflows {
		if !defined[required] {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return validate.Failf("required workflow(s) not defined: %s", joinDetails(missing, 3)).
			WithDetails(missing...)
	}
	return validate.Pass("all required CI workflows are defined")
}

// definedWorkflows maps declared workflow names and file stems to true.
// Matching on the file stem covers workflows that omit the name field.
func (v *CIWorkflows) definedWorkflows(vctx *validate.Context) (map[string]bool, error) {
	defined := make(map[string]bool)

	entries, err := vctx.FS.ReadDir(workflowsDir)
	if err != nil {
		// No workflows directory means nothing is defined.
		return defined, nil
	}

	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		defined[strings.TrimSuffix(entry.Name(), ext)] = true

		data, readErr := util.ReadFile(vctx.FS, path.Join(workflowsDir, entry.Name()))
		if readErr != nil {
			continue
		}
		if m := workflowNameRe.FindSubmatch(data); m != nil {
			defined[strings.TrimSpace(string(m[1]))] = true
		}
	}

	return defined, nil
}
