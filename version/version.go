// Package version computes semantic version bumps and release tag names.
package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/input-output-hk/catalyst-forge-release/errors"
)

// BumpType identifies which component of a semantic version to increment.
type BumpType string

const (
	// BumpMajor increments the major version and resets minor and patch.
	BumpMajor BumpType = "major"

	// BumpMinor increments the minor version and resets patch.
	BumpMinor BumpType = "minor"

	// BumpPatch increments the patch version.
	BumpPatch BumpType = "patch"
)

// ParseBumpType converts a user-supplied string into a BumpType.
func ParseBumpType(s string) (BumpType, error) {
	switch BumpType(strings.ToLower(strings.TrimSpace(s))) {
	case BumpMajor:
		return BumpMajor, nil
	case BumpMinor:
		return BumpMinor, nil
	case BumpPatch:
		return BumpPatch, nil
	default:
		return "", errors.Newf(errors.CodeInvalidInput, "unknown bump type %q", s).
			WithHint("use one of: major, minor, patch")
	}
}

// Parse parses a semantic version string. A leading "v" is accepted.
func Parse(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid version %q", s)
	}
	return v, nil
}

// Bump returns the version that follows current for the given bump type.
// Prerelease and build metadata are dropped, matching the release convention
// that a cut release is always a plain X.Y.Z version.
func Bump(current string, bump BumpType) (string, error) {
	v, err := Parse(current)
	if err != nil {
		return "", err
	}

	var next semver.Version
	switch bump {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	case BumpPatch:
		next = v.IncPatch()
	default:
		return "", errors.Newf(errors.CodeInvalidInput, "unknown bump type %q", bump)
	}

	return next.String(), nil
}

// IsNewer reports whether candidate is strictly greater than current.
func IsNewer(candidate, current string) (bool, error) {
	cv, err := Parse(candidate)
	if err != nil {
		return false, err
	}
	pv, err := Parse(current)
	if err != nil {
		return false, err
	}
	return cv.GreaterThan(pv), nil
}

// TagName derives the release tag for a version. The result is the single
// tag string every publisher and the CI monitor agree on.
func TagName(prefix, version string) string {
	return prefix + version
}

// FromTag strips the tag prefix from a tag name, returning the bare version.
// Returns an error when the tag does not carry the prefix or the remainder
// is not a valid version.
func FromTag(tag, prefix string) (string, error) {
	if prefix != "" && !strings.HasPrefix(tag, prefix) {
		return "", errors.Newf(errors.CodeInvalidInput, "tag %q does not start with prefix %q", tag, prefix)
	}
	bare := strings.TrimPrefix(tag, prefix)
	if _, err := Parse(bare); err != nil {
		return "", err
	}
	return bare, nil
}
