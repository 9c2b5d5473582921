package github

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/steveerr"
)

// IssueExistsRunner fails with an error wrapping steveerr.ErrIssueNotFound if
// the issue does not exist.
type IssueExistsRunner struct {
	clt   IssueClient
	issue Issue
}

func NewIssueExistsRunner(clt IssueClient, issue Issue) *IssueExistsRunner {
	return &IssueExistsRunner{
		clt:   clt,
		issue: issue,
	}
}

func (r *IssueExistsRunner) LogFields() []zap.Field {
	return append(r.issue.LogFields(), zap.String("action", "github.issue_lookup"))
}

func (r *IssueExistsRunner) Run(ctx context.Context) error {
	exists, err := r.clt.IssueExists(ctx, r.issue.RepositoryOwner, r.issue.Repository, r.issue.Number)
	if err != nil {
		return err
	}

	if !exists {
		return steveerr.NewPermanentError(fmt.Errorf("%s: %w", &r.issue, steveerr.ErrIssueNotFound))
	}

	return nil
}

func (r *IssueExistsRunner) String() string {
	return fmt.Sprintf("github issue lookup: issue: %s", &r.issue)
}
