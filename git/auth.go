// Package git provides the release git operations.
// This file exposes the built-in authentication providers.
package git

import (
	"github.com/input-output-hk/catalyst-forge-release/git/internal/auth"
)

// TokenAuth returns an AuthProvider that presents the given bearer token to
// HTTPS remotes, the scheme GitHub, GitLab, and Bitbucket all accept. SSH
// remotes fall through to the ambient agent.
func TokenAuth(token string) AuthProvider {
	return auth.NewTokenProvider(token)
}

// BasicAuth returns an AuthProvider for username/password authentication on
// HTTPS remotes.
func BasicAuth(username, password string) AuthProvider {
	return auth.NewBasicProvider(username, password)
}
