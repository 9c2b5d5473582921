// Package webhook converts GitHub webhook payloads into events.
package webhook

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/logfields"
)

// EventTypePullRequest is the value of the X-GitHub-Event header for pull
// request events.
const EventTypePullRequest = "pull_request"

// PullRequestEvent contains the fields of a GitHub pull request webhook event
// that are relevant for annotating issues.
type PullRequestEvent struct {
	CommitsURL *url.URL
	Owner      string
	RepoName   string
	Merged     bool
}

// Repository returns the "owner/name" identifier of the repository.
func (e *PullRequestEvent) Repository() string {
	return e.Owner + "/" + e.RepoName
}

func (e *PullRequestEvent) String() string {
	return fmt.Sprintf("pull request event for %s (merged: %t)", e.Repository(), e.Merged)
}

func (e *PullRequestEvent) LogFields() []zap.Field {
	return []zap.Field{
		logfields.RepositoryOwner(e.Owner),
		logfields.Repository(e.RepoName),
		logfields.CommitsURL(e.CommitsURL.String()),
		zap.Bool("github.pull_request_merged", e.Merged),
	}
}
