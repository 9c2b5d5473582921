package github

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/logfields"
)

// IssueClient is the GitHub API client used by the issue runners.
type IssueClient interface {
	AddLabels(ctx context.Context, owner, repo string, issueNumber int, labels []string) error
	SetAssignee(ctx context.Context, owner, repo string, issueNumber int, user string) error
	IssueExists(ctx context.Context, owner, repo string, issueNumber int) (bool, error)
}

// Issue identifies an issue in a GitHub repository.
type Issue struct {
	RepositoryOwner string
	Repository      string
	Number          int
}

func (i *Issue) String() string {
	return fmt.Sprintf("%s/%s#%d", i.RepositoryOwner, i.Repository, i.Number)
}

func (i *Issue) LogFields() []zap.Field {
	return []zap.Field{
		logfields.RepositoryOwner(i.RepositoryOwner),
		logfields.Repository(i.Repository),
		logfields.Issue(i.Number),
	}
}
