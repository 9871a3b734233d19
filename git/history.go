// Package git provides the release git operations.
// This file contains history queries used for changelog generation.
package git

import (
	"context"
	"errors"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Commit is a flattened view of a commit for changelog rendering.
type Commit struct {
	// Hash is the full commit SHA.
	Hash string

	// Subject is the first line of the commit message.
	Subject string

	// Body is the message after the subject line, trimmed.
	Body string

	// Author is the author's name.
	Author string

	// When is the author timestamp.
	When time.Time
}

// CommitsSince returns the commits reachable from HEAD that are newer than
// the given tag, newest first. An empty tag returns the full history, which
// is the first-release case. The tag's own commit is excluded.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) CommitsSince(ctx context.Context, tag string) ([]Commit, error) {
	var stop plumbing.Hash
	if tag != "" {
		hash, err := r.repo.ResolveRevision(plumbing.Revision(tag))
		if err != nil {
			return nil, WrapErrorf(ErrResolveFailed, "failed to resolve tag %q", tag)
		}
		stop = *hash
	}

	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return nil, WrapError(err, "failed to read commit log")
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if tag != "" && c.Hash == stop {
			return storer.ErrStop
		}
		commits = append(commits, flatten(c))
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, WrapError(err, "failed to iterate commits")
	}

	return commits, nil
}

func flatten(c *object.Commit) Commit {
	subject, body, _ := strings.Cut(c.Message, "\n")
	return Commit{
		Hash:    c.Hash.String(),
		Subject: strings.TrimSpace(subject),
		Body:    strings.TrimSpace(body),
		Author:  c.Author.Name,
		When:    c.Author.When,
	}
}
