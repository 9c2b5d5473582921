package github

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/logfields"
)

type SetAssigneeRunner struct {
	clt      IssueClient
	issue    Issue
	assignee string
}

func NewSetAssigneeRunner(clt IssueClient, issue Issue, assignee string) *SetAssigneeRunner {
	return &SetAssigneeRunner{
		clt:      clt,
		issue:    issue,
		assignee: assignee,
	}
}

func (r *SetAssigneeRunner) LogFields() []zap.Field {
	return append(
		r.issue.LogFields(),
		zap.String("action", "github.set_assignee"),
		logfields.Assignee(r.assignee),
	)
}

func (r *SetAssigneeRunner) Run(ctx context.Context) error {
	return r.clt.SetAssignee(ctx, r.issue.RepositoryOwner, r.issue.Repository, r.issue.Number, r.assignee)
}

func (r *SetAssigneeRunner) String() string {
	return fmt.Sprintf("github set assignee: issue: %s, assignee: %s", &r.issue, r.assignee)
}
