// Package config provides parsing, validation, and convenient access to the
// release configuration file. The configuration is YAML, decoded into typed
// structs and validated with struct tags at load time; the engine treats the
// loaded configuration as read-only.
package config

import (
	"time"
)

// DefaultFileName is the configuration file looked up at the project root.
const DefaultFileName = ".forge-release.yaml"

// Config is the root release configuration.
type Config struct {
	// Project describes the project being released.
	Project ProjectConfig `yaml:"project"`

	// Git configures version-control behavior for release commits,
	// tags, and pushes.
	Git GitConfig `yaml:"git"`

	// CI configures the post-push wait on continuous integration.
	CI CIConfig `yaml:"ci"`

	// Changelog configures release-notes generation.
	Changelog ChangelogConfig `yaml:"changelog"`

	// Publishers configures the per-registry publishers.
	Publishers PublishersConfig `yaml:"publishers"`

	// Validation configures pre-release checks.
	Validation ValidationConfig `yaml:"validation"`
}

// ProjectConfig describes the project being released.
type ProjectConfig struct {
	// Name is the project name used in release records and notes.
	Name string `yaml:"name" validate:"required"`

	// Version is the authoritative current version. Kept in sync with the
	// ecosystem version file by the version-consistency validator.
	Version string `yaml:"version" validate:"omitempty,semver"`
}

// GitConfig configures version-control behavior.
type GitConfig struct {
	// Remote is the remote releases are pushed to.
	Remote string `yaml:"remote"`

	// Branch is the only branch releases may be cut from. Empty allows any.
	Branch string `yaml:"branch"`

	// TagPrefix is prepended to the version to form the release tag.
	TagPrefix string `yaml:"tag_prefix"`

	// SignTags creates GPG-signed release tags via the git CLI fallback.
	SignTags bool `yaml:"sign_tags"`

	// AuthorName and AuthorEmail identify the release committer.
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// CIConfig configures the CI wait step.
type CIConfig struct {
	// Enabled turns the CI wait step on.
	Enabled bool `yaml:"enabled"`

	// RequiredWorkflows are the workflow names that must succeed for the
	// pushed release commit before the release proceeds.
	RequiredWorkflows []string `yaml:"required_workflows"`

	// AllowSkipped treats a skipped required workflow as success.
	// Defaults to true.
	AllowSkipped *bool `yaml:"allow_skipped"`

	// Timeout bounds the wait for a single workflow.
	Timeout Duration `yaml:"timeout"`

	// PollInterval is the pause between status queries.
	PollInterval Duration `yaml:"poll_interval"`
}

// ChangelogConfig configures release-notes generation.
type ChangelogConfig struct {
	// File is the changelog path relative to the project root.
	File string `yaml:"file"`

	// Write prepends the generated section to File during the release.
	Write bool `yaml:"write"`
}

// PublishersConfig selects and configures publishers. When Enabled is empty
// the engine falls back to ecosystem auto-discovery.
type PublishersConfig struct {
	// Enabled explicitly lists the publishers to run, in order.
	Enabled []string `yaml:"enabled" validate:"dive,oneof=crates npm github oci s3"`

	Crates CratesConfig `yaml:"crates"`
	NPM    NPMConfig    `yaml:"npm"`
	GitHub GitHubConfig `yaml:"github"`
	OCI    OCIConfig    `yaml:"oci"`
	S3     S3Config     `yaml:"s3"`
}

// CratesConfig configures the crates.io publisher.
type CratesConfig struct {
	// Enabled gates the publisher. Nil means enabled when selected.
	Enabled *bool `yaml:"enabled"`

	// Registry is an alternate registry name passed to cargo.
	Registry string `yaml:"registry"`

	// IndexPause is the wait between workspace member publishes, giving the
	// registry index time to pick up dependencies.
	IndexPause Duration `yaml:"index_pause"`
}

// NPMConfig configures the npm publisher.
type NPMConfig struct {
	Enabled *bool `yaml:"enabled"`

	// Access is the npm publish access level.
	Access string `yaml:"access" validate:"omitempty,oneof=public restricted"`

	// Registry is an alternate registry URL.
	Registry string `yaml:"registry"`

	// DistTag is the tag applied to the published version.
	DistTag string `yaml:"dist_tag"`
}

// GitHubConfig configures the GitHub release publisher.
type GitHubConfig struct {
	Enabled *bool `yaml:"enabled"`

	// Draft creates the release as a draft.
	Draft bool `yaml:"draft"`

	// Prerelease marks the release as a prerelease.
	Prerelease bool `yaml:"prerelease"`

	// Assets are glob patterns of files attached to the release.
	Assets []string `yaml:"assets"`
}

// OCIConfig configures the OCI release-bundle publisher.
type OCIConfig struct {
	Enabled *bool `yaml:"enabled"`

	// Reference is the repository reference the bundle is pushed to,
	// without a tag (the release tag is appended).
	Reference string `yaml:"reference"`

	// Artifacts are glob patterns of files bundled into the artifact.
	Artifacts []string `yaml:"artifacts"`
}

// S3Config configures the S3 artifacts publisher.
type S3Config struct {
	Enabled *bool `yaml:"enabled"`

	// Bucket is the destination bucket.
	Bucket string `yaml:"bucket"`

	// Prefix is the key prefix; the release tag is appended.
	Prefix string `yaml:"prefix"`

	// Region overrides the ambient AWS region.
	Region string `yaml:"region"`

	// Artifacts are glob patterns of files uploaded.
	Artifacts []string `yaml:"artifacts"`
}

// ValidationConfig configures pre-release checks.
type ValidationConfig struct {
	// Skip lists validator names to skip.
	Skip []string `yaml:"skip"`

	// SecretPatterns are extra regular expressions for the secret scan,
	// added to the built-in set.
	SecretPatterns []string `yaml:"secret_patterns"`
}

// applyDefaults sets default values for any unset fields.
func (c *Config) applyDefaults() {
	if c.Git.Remote == "" {
		c.Git.Remote = "origin"
	}
	if c.Git.TagPrefix == "" {
		c.Git.TagPrefix = "v"
	}
	if c.Git.AuthorName == "" {
		c.Git.AuthorName = "forge-release"
	}
	if c.Git.AuthorEmail == "" {
		c.Git.AuthorEmail = "forge-release@localhost"
	}

	if c.CI.Timeout == 0 {
		c.CI.Timeout = Duration(15 * time.Minute)
	}
	if c.CI.PollInterval == 0 {
		c.CI.PollInterval = Duration(15 * time.Second)
	}
	if c.CI.AllowSkipped == nil {
		allow := true
		c.CI.AllowSkipped = &allow
	}

	if c.Changelog.File == "" {
		c.Changelog.File = "CHANGELOG.md"
	}

	if c.Publishers.Crates.IndexPause == 0 {
		c.Publishers.Crates.IndexPause = Duration(5 * time.Second)
	}
	if c.Publishers.NPM.Access == "" {
		c.Publishers.NPM.Access = "public"
	}
	if c.Publishers.NPM.DistTag == "" {
		c.Publishers.NPM.DistTag = "latest"
	}
}
