package config

import "slices"

// TagPrefix returns the configured release tag prefix.
func (c *Config) TagPrefix() string {
	return c.Git.TagPrefix
}

// TagFor returns the release tag name for a version.
func (c *Config) TagFor(version string) string {
	return c.Git.TagPrefix + version
}

// HasExplicitPublishers reports whether the configuration names the
// publishers to run, disabling ecosystem auto-discovery.
func (c *Config) HasExplicitPublishers() bool {
	return len(c.Publishers.Enabled) > 0
}

// PublisherEnabled reports whether the named publisher's enable flag permits
// running it. A nil flag means enabled; selection (explicit list or
// discovery) is a separate concern handled by the workflow.
func (c *Config) PublisherEnabled(name string) bool {
	flag := c.publisherFlag(name)
	return flag == nil || *flag
}

func (c *Config) publisherFlag(name string) *bool {
	switch name {
	case "crates":
		return c.Publishers.Crates.Enabled
	case "npm":
		return c.Publishers.NPM.Enabled
	case "github":
		return c.Publishers.GitHub.Enabled
	case "oci":
		return c.Publishers.OCI.Enabled
	case "s3":
		return c.Publishers.S3.Enabled
	default:
		return nil
	}
}

// ValidatorSkipped reports whether the named validator is configured off.
func (c *Config) ValidatorSkipped(name string) bool {
	return slices.Contains(c.Validation.Skip, name)
}

// CIAllowSkipped reports whether a skipped required workflow counts as
// success.
func (c *Config) CIAllowSkipped() bool {
	return c.CI.AllowSkipped == nil || *c.CI.AllowSkipped
}
