package github

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/logfields"
)

type AddLabelsRunner struct {
	clt    IssueClient
	issue  Issue
	labels []string
}

func NewAddLabelsRunner(clt IssueClient, issue Issue, labels []string) *AddLabelsRunner {
	return &AddLabelsRunner{
		clt:    clt,
		issue:  issue,
		labels: labels,
	}
}

func (r *AddLabelsRunner) LogFields() []zap.Field {
	return append(
		r.issue.LogFields(),
		zap.String("action", "github.add_labels"),
		logfields.Labels(r.labels),
	)
}

func (r *AddLabelsRunner) Run(ctx context.Context) error {
	return r.clt.AddLabels(ctx, r.issue.RepositoryOwner, r.issue.Repository, r.issue.Number, r.labels)
}

func (r *AddLabelsRunner) String() string {
	return fmt.Sprintf("github add labels: issue: %s, labels: %s", &r.issue, strings.Join(r.labels, ", "))
}
