package github

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesurance/steve/internal/steveerr"
)

type call struct {
	method string
	owner  string
	repo   string
	issue  int
	arg    any
}

type recordingClient struct {
	calls  []call
	exists bool
	err    error
}

func (c *recordingClient) AddLabels(_ context.Context, owner, repo string, issueNumber int, labels []string) error {
	c.calls = append(c.calls, call{"AddLabels", owner, repo, issueNumber, labels})
	return c.err
}

func (c *recordingClient) SetAssignee(_ context.Context, owner, repo string, issueNumber int, user string) error {
	c.calls = append(c.calls, call{"SetAssignee", owner, repo, issueNumber, user})
	return c.err
}

func (c *recordingClient) IssueExists(_ context.Context, owner, repo string, issueNumber int) (bool, error) {
	c.calls = append(c.calls, call{"IssueExists", owner, repo, issueNumber, nil})
	return c.exists, c.err
}

var testIssue = Issue{RepositoryOwner: "lkgrele", Repository: "steve", Number: 5}

func TestAddLabelsRunner(t *testing.T) {
	clt := recordingClient{}
	r := NewAddLabelsRunner(&clt, testIssue, []string{"qa", "test"})

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []call{{"AddLabels", "lkgrele", "steve", 5, []string{"qa", "test"}}}, clt.calls)
	assert.Equal(t, "github add labels: issue: lkgrele/steve#5, labels: qa, test", r.String())
}

func TestSetAssigneeRunner(t *testing.T) {
	clt := recordingClient{}
	r := NewSetAssigneeRunner(&clt, testIssue, "leif")

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []call{{"SetAssignee", "lkgrele", "steve", 5, "leif"}}, clt.calls)
}

func TestRunnerReturnsClientError(t *testing.T) {
	clt := recordingClient{err: errors.New("bad gateway")}

	assert.ErrorIs(t, NewSetAssigneeRunner(&clt, testIssue, "leif").Run(context.Background()), clt.err)
	assert.ErrorIs(t, NewAddLabelsRunner(&clt, testIssue, []string{"qa"}).Run(context.Background()), clt.err)
	assert.ErrorIs(t, NewIssueExistsRunner(&clt, testIssue).Run(context.Background()), clt.err)
}

func TestIssueExistsRunner(t *testing.T) {
	clt := recordingClient{exists: true}
	require.NoError(t, NewIssueExistsRunner(&clt, testIssue).Run(context.Background()))

	clt.exists = false
	err := NewIssueExistsRunner(&clt, testIssue).Run(context.Background())
	assert.ErrorIs(t, err, steveerr.ErrIssueNotFound)

	var permErr *steveerr.PermanentError
	assert.ErrorAs(t, err, &permErr)
}

func TestRunnerLogFieldsDoNotShareBackingArray(t *testing.T) {
	r := NewAddLabelsRunner(&recordingClient{}, testIssue, []string{"qa"})

	f1 := r.LogFields()
	f2 := r.LogFields()
	f1[0].String = "changed"

	assert.NotEqual(t, f1[0], f2[0])
}
