package builtin

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-release/ecosystem"
	"github.com/input-output-hk/catalyst-forge-release/validate"
	"github.com/input-output-hk/catalyst-forge-release/version"
)

// VersionConsistency blocks when the configuration's project version and
// the ecosystem version file disagree, which would bump from the wrong base.
type VersionConsistency struct{}

// Name implements validate.Validator.
func (*VersionConsistency) Name() string { return "version-consistency" }

// DisplayName implements validate.Validator.
func (*VersionConsistency) DisplayName() string { return "Version consistency" }

// Category implements validate.Validator.
func (*VersionConsistency) Category() validate.Category { return validate.CategoryVersion }

// ShouldRun implements validate.Validator. Applies only when the
// configuration pins a project version to compare against.
func (v *VersionConsistency) ShouldRun(ctx context.Context, vctx *validate.Context) bool {
	if skipped(vctx, v.Name()) {
		return false
	}
	return vctx.Config != nil && vctx.Config.Project.Version != ""
}

// Validate implements validate.Validator.
func (v *VersionConsistency) Validate(ctx context.Context, vctx *validate.Context) validate.Result {
	vf, err := ecosystem.Detect(vctx.FS)
	if err != nil {
		return validate.Warn("no ecosystem version file detected; configuration version unverified")
	}

	fileVersion, err := vf.Version()
	if err != nil {
		return validate.Failf("failed to read %s version: %v", vf.Name(), err)
	}

	configured := vctx.Config.Project.Version
	if fileVersion != configured {
		return validate.Failf("configuration says %s but %s file says %s",
			configured, vf.Name(), fileVersion).
			WithDetails("align the two before releasing")
	}

	if _, err := version.Parse(fileVersion); err != nil {
		return validate.Failf("version %q is not a valid semantic version", fileVersion)
	}

	return validate.Pass("version " + fileVersion + " is consistent")
}
