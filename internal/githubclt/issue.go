package githubclt

import (
	"context"
	"strings"

	"github.com/shurcooL/githubv4"

	"github.com/simplesurance/steve/internal/steveerr"
)

// notFoundMsg is the lowercased prefix of the error message that github
// returns when no issue or pull request with the queried number exists.
const notFoundMsg = "could not resolve to an issue"

// IssueExists returns true if the repository has an issue or a pull request
// with the number.
// Issues and pull requests share one number space and github accepts both
// for label and assignee changes.
func (clt *Client) IssueExists(ctx context.Context, owner, repo string, issueNumber int) (bool, error) {
	var q struct {
		Repository struct {
			IssueOrPullRequest struct {
				Issue struct {
					Number githubv4.Int
				} `graphql:"... on Issue"`
				PullRequest struct {
					Number githubv4.Int
				} `graphql:"... on PullRequest"`
			} `graphql:"issueOrPullRequest(number: $issueNumber)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	vars := map[string]any{
		"owner":       githubv4.String(owner),
		"repo":        githubv4.String(repo),
		"issueNumber": githubv4.Int(issueNumber),
	}

	err := clt.graphQLClt.Query(ctx, &q, vars)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), notFoundMsg) {
			return false, nil
		}

		if code := clt.graphQLStatusCode(err); code >= 400 && code < 500 {
			return false, steveerr.NewPermanentError(err)
		}

		return false, err
	}

	found := q.Repository.IssueOrPullRequest
	return int(found.Issue.Number) == issueNumber || int(found.PullRequest.Number) == issueNumber, nil
}
