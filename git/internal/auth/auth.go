// Package auth provides authentication providers for git network operations.
// It adds URL pattern matching on top of go-git's transport auth methods.
package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Provider is the interface all auth providers implement.
type Provider interface {
	// Method returns the appropriate transport.AuthMethod for the given
	// remote URL. Returns nil if no authentication is needed/available.
	// Returns an error if authentication setup fails.
	Method(remoteURL string) (transport.AuthMethod, error)
}

// TokenProvider authenticates HTTPS remotes with a bearer token presented as
// basic auth, the scheme GitHub, GitLab, and Bitbucket all accept. Pushes to
// a release remote in CI use this with the runner's token.
type TokenProvider struct {
	auth *http.BasicAuth

	// AllowedHosts restricts authentication to specific host patterns.
	// If empty, authentication is offered for all HTTPS URLs.
	// Supports glob patterns like "*.github.com".
	AllowedHosts []string
}

// NewTokenProvider creates a provider for token authentication.
func NewTokenProvider(token string) *TokenProvider {
	return &TokenProvider{
		auth: &http.BasicAuth{
			Username: "token", // some providers reject an empty username
			Password: token,
		},
	}
}

// NewBasicProvider creates a provider for username/password authentication.
func NewBasicProvider(username, password string) *TokenProvider {
	return &TokenProvider{
		auth: &http.BasicAuth{
			Username: username,
			Password: password,
		},
	}
}

// WithAllowedHosts restricts the provider to remotes matching the given host
// patterns and returns the provider for chaining.
func (p *TokenProvider) WithAllowedHosts(hosts ...string) *TokenProvider {
	p.AllowedHosts = hosts
	return p
}

// Method returns the authentication method for the given remote URL.
// Returns nil for URLs outside the allowed host patterns.
func (p *TokenProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	parsedURL, err := url.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "https" {
		// SSH remotes use the ambient agent; nothing for us to offer.
		return nil, nil
	}

	if len(p.AllowedHosts) > 0 && !p.isHostAllowed(parsedURL.Host) {
		return nil, nil
	}

	return p.auth, nil
}

func (p *TokenProvider) isHostAllowed(host string) bool {
	for _, pattern := range p.AllowedHosts {
		if matchesPattern(host, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a host matches a pattern with one "*" wildcard.
func matchesPattern(host, pattern string) bool {
	if host == pattern {
		return true
	}

	if strings.Count(pattern, "*") != 1 {
		return false
	}

	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, suffix) || host == suffix
	}

	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(host, prefix+".")
	}

	return false
}
