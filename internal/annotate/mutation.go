package annotate

import (
	"github.com/simplesurance/steve/internal/action"
	actiongithub "github.com/simplesurance/steve/internal/action/github"
	"github.com/simplesurance/steve/internal/cfg"
)

// IssueMutation describes the changes applied to an issue that needs qa.
// Applying it multiple times results in the same issue state.
type IssueMutation struct {
	IssueNumber int
	// Labels are added to the issue, labels the issue already has are
	// kept.
	Labels []string
	// Assignee is assigned to the issue, if it is empty the assignee is
	// not changed.
	Assignee string
}

// NewIssueMutation creates the mutation for an issue from the configuration
// of its repository.
// Duplicate labels are removed, the order of the remaining ones is kept.
func NewIssueMutation(issueNumber int, repoCfg *cfg.RepoConfig) *IssueMutation {
	seen := make(map[string]struct{}, len(repoCfg.QAFlags))
	labels := make([]string, 0, len(repoCfg.QAFlags))

	for _, l := range repoCfg.QAFlags {
		if _, exists := seen[l]; exists {
			continue
		}

		seen[l] = struct{}{}
		labels = append(labels, l)
	}

	return &IssueMutation{
		IssueNumber: issueNumber,
		Labels:      labels,
		Assignee:    repoCfg.QAUser,
	}
}

// Runners returns the actions that apply the mutation to issue.
// Adding labels and setting the assignee are independent actions.
func (m *IssueMutation) Runners(clt actiongithub.IssueClient, issue actiongithub.Issue) []action.Runner {
	var result []action.Runner

	if len(m.Labels) > 0 {
		result = append(result, actiongithub.NewAddLabelsRunner(clt, issue, m.Labels))
	}

	if m.Assignee != "" {
		result = append(result, actiongithub.NewSetAssigneeRunner(clt, issue, m.Assignee))
	}

	return result
}
