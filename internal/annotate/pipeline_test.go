package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	actiongithub "github.com/simplesurance/steve/internal/action/github"
	"github.com/simplesurance/steve/internal/annotate/mocks"
	"github.com/simplesurance/steve/internal/cfg"
	"github.com/simplesurance/steve/internal/githubclt"
	github_prov "github.com/simplesurance/steve/internal/provider/github"
	"github.com/simplesurance/steve/internal/retry"
	"github.com/simplesurance/steve/internal/steveerr"
)

const (
	repoOwner  = "lkgrele"
	repo       = "steve"
	commitsURL = "https://api.github.com/repos/lkgrele/steve/pulls/3/commits"
	qaUser     = "leif"
	maxRetries = 3
)

var qaLabels = []string{"qa", "test"}

var repos = cfg.Repositories{
	repoOwner + "/" + repo: {QAUser: qaUser, QAFlags: qaLabels},
}

func newEvent(t *testing.T, eventType string, merged bool, owner string) *github_prov.Event {
	t.Helper()

	return newEventWithCommitsURL(t, eventType, merged, owner, commitsURL)
}

func newEventWithCommitsURL(t *testing.T, eventType string, merged bool, owner, commitsURL string) *github_prov.Event {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"action": "closed",
		"pull_request": map[string]any{
			"commits_url": commitsURL,
			"merged":      merged,
			"repo": map[string]any{
				"name":  repo,
				"owner": map[string]any{"login": owner},
			},
		},
	})
	require.NoError(t, err)

	return &github_prov.Event{
		DeliveryID: "3355fab0-b22c-11eb-9936-51d9540c0cdc",
		Type:       eventType,
		JSON:       payload,
	}
}

func newPipeline(t *testing.T, opts ...func(*Pipeline)) (*Pipeline, *mocks.MockGithubClient) {
	t.Helper()
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	mockctrl := gomock.NewController(t)
	ghClient := mocks.NewMockGithubClient(mockctrl)

	opts = append([]func(*Pipeline){WithIssueLookup(false)}, opts...)

	return New(ghClient, retry.NewRetryer(maxRetries), opts...), ghClient
}

func mockCommitMessages(clt *mocks.MockGithubClient, msgs ...string) *gomock.Call {
	return clt.
		EXPECT().
		CommitMessages(gomock.Any(), gomock.Eq(commitsURL)).
		Return(msgs, nil)
}

func mockAddLabels(clt *mocks.MockGithubClient, issueNr int, err error) *gomock.Call {
	return clt.
		EXPECT().
		AddLabels(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(issueNr), gomock.Eq(qaLabels)).
		Return(err)
}

func mockSetAssignee(clt *mocks.MockGithubClient, issueNr int, err error) *gomock.Call {
	return clt.
		EXPECT().
		SetAssignee(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(issueNr), gomock.Eq(qaUser)).
		Return(err)
}

func TestProcessNotMergedPullRequest(t *testing.T) {
	pipeline, _ := newPipeline(t)

	// the mock fails the test on any call
	pipeline.Process(context.Background(), newEvent(t, "pull_request", false, repoOwner), repos)
}

func TestProcessUntrackedRepository(t *testing.T) {
	pipeline, _ := newPipeline(t)

	cnt := metrics.deliveries.WithLabelValues(string(deliveryOutcomeUntracked))
	before := testutil.ToFloat64(cnt)

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, "someoneelse"), repos)

	assert.Equal(t, before+1, testutil.ToFloat64(cnt))
}

func TestProcessIgnoresOtherEventTypes(t *testing.T) {
	pipeline, _ := newPipeline(t)

	pipeline.Process(context.Background(), newEvent(t, "push", true, repoOwner), repos)
}

func TestProcessMalformedPayload(t *testing.T) {
	pipeline, _ := newPipeline(t)

	ev := github_prov.Event{Type: "pull_request", JSON: []byte(`{"pull_request":`)}
	pipeline.Process(context.Background(), &ev, repos)
}

func TestProcessWithoutTriggers(t *testing.T) {
	pipeline, ghClient := newPipeline(t)

	mockCommitMessages(ghClient, "message1", "swordfish").Times(1)

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, repoOwner), repos)
}

func TestProcessAnnotatesReferencedIssue(t *testing.T) {
	pipeline, ghClient := newPipeline(t)

	mockCommitMessages(ghClient, "fix login\n\nneeds qa #5", "needs QA: #5").Times(1)
	mockAddLabels(ghClient, 5, nil).Times(1)
	mockSetAssignee(ghClient, 5, nil).Times(1)

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, repoOwner), repos)
}

func TestProcessIsolatesIssueFailures(t *testing.T) {
	pipeline, ghClient := newPipeline(t)

	mockCommitMessages(ghClient, "needs qa #5", "needs qa #9").Times(1)

	mockAddLabels(ghClient, 5, errors.New("connection reset")).Times(maxRetries)
	mockSetAssignee(ghClient, 5, nil).Times(1)

	mockAddLabels(ghClient, 9, nil).Times(1)
	mockSetAssignee(ghClient, 9, nil).Times(1)

	failures := metrics.issueMutations.WithLabelValues(repoOwner+"/"+repo, string(mutationOutcomeFailure))
	successes := metrics.issueMutations.WithLabelValues(repoOwner+"/"+repo, string(mutationOutcomeSuccess))
	failuresBefore := testutil.ToFloat64(failures)
	successesBefore := testutil.ToFloat64(successes)

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, repoOwner), repos)

	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(failures))
	assert.Equal(t, successesBefore+1, testutil.ToFloat64(successes))
}

func TestProcessRetriesFetchingCommits(t *testing.T) {
	pipeline, ghClient := newPipeline(t)

	gomock.InOrder(
		ghClient.
			EXPECT().
			CommitMessages(gomock.Any(), gomock.Eq(commitsURL)).
			Return(nil, errors.New("timeout")).
			Times(maxRetries-1),
		mockCommitMessages(ghClient, "needs qa #5").Times(1),
	)
	mockAddLabels(ghClient, 5, nil).Times(1)
	mockSetAssignee(ghClient, 5, nil).Times(1)

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, repoOwner), repos)
}

func TestProcessStopsWhenFetchingCommitsFails(t *testing.T) {
	pipeline, ghClient := newPipeline(t)

	ghClient.
		EXPECT().
		CommitMessages(gomock.Any(), gomock.Eq(commitsURL)).
		Return(nil, errors.New("timeout")).
		Times(maxRetries)

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, repoOwner), repos)
}

func TestProcessDoesNotRetryInvalidCommitList(t *testing.T) {
	pipeline, ghClient := newPipeline(t)

	ghClient.
		EXPECT().
		CommitMessages(gomock.Any(), gomock.Eq(commitsURL)).
		Return(nil, steveerr.NewPermanentError(errors.New("element 1: missing /commit/message"))).
		Times(1)

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, repoOwner), repos)
}

func TestProcessSkipsNonExistingIssues(t *testing.T) {
	pipeline, ghClient := newPipeline(t, WithIssueLookup(true))

	mockCommitMessages(ghClient, "needs qa #5", "needs qa #404").Times(1)

	ghClient.
		EXPECT().
		IssueExists(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(5)).
		Return(true, nil).
		Times(1)
	ghClient.
		EXPECT().
		IssueExists(gomock.Any(), gomock.Eq(repoOwner), gomock.Eq(repo), gomock.Eq(404)).
		Return(false, nil).
		Times(1)

	mockAddLabels(ghClient, 5, nil).Times(1)
	mockSetAssignee(ghClient, 5, nil).Times(1)

	skipped := metrics.issueMutations.WithLabelValues(repoOwner+"/"+repo, string(mutationOutcomeSkipped))
	before := testutil.ToFloat64(skipped)

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, repoOwner), repos)

	assert.Equal(t, before+1, testutil.ToFloat64(skipped))
}

func TestProcessAnnotatesPullRequestNumberWithIssueLookup(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	const commitsPath = "/api/v3/repos/lkgrele/steve/pulls/3/commits"

	var labelCalls, assigneeCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc(commitsPath, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"commit":{"message":"needs qa #12"}}]`)
	})
	mux.HandleFunc("/api/graphql", func(w http.ResponseWriter, _ *http.Request) {
		// 12 is the number of a pull request
		fmt.Fprint(w, `{"data":{"repository":{"issueOrPullRequest":{"number":12}}}}`)
	})
	mux.HandleFunc("/api/v3/repos/lkgrele/steve/issues/12/labels", func(w http.ResponseWriter, _ *http.Request) {
		labelCalls.Inc()
		fmt.Fprint(w, `[{"name":"qa"},{"name":"test"}]`)
	})
	mux.HandleFunc("/api/v3/repos/lkgrele/steve/issues/12", func(w http.ResponseWriter, _ *http.Request) {
		assigneeCalls.Inc()
		fmt.Fprint(w, `{"number":12,"assignee":{"login":"leif"}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	clt, err := githubclt.New(srv.URL, srv.URL+"/api/graphql", "secrettoken")
	require.NoError(t, err)

	pipeline := New(clt, retry.NewRetryer(maxRetries))
	pipeline.Process(
		context.Background(),
		newEventWithCommitsURL(t, "pull_request", true, repoOwner, srv.URL+commitsPath),
		repos,
	)

	assert.Equal(t, int32(1), labelCalls.Load())
	assert.Equal(t, int32(1), assigneeCalls.Load())
}

func TestProcessWithSingleParallelMutation(t *testing.T) {
	pipeline, ghClient := newPipeline(t, WithMaxParallelMutations(1))

	mockCommitMessages(ghClient, "needs qa #1 needs qa #2 needs qa #3").Times(1)
	for _, nr := range []int{1, 2, 3} {
		mockAddLabels(ghClient, nr, nil).Times(1)
		mockSetAssignee(ghClient, nr, nil).Times(1)
	}

	pipeline.Process(context.Background(), newEvent(t, "pull_request", true, repoOwner), repos)
}

func TestNewIssueMutation(t *testing.T) {
	m := NewIssueMutation(7, &cfg.RepoConfig{
		QAUser:  qaUser,
		QAFlags: []string{"qa", "test", "qa", "ready"},
	})

	assert.Equal(t, 7, m.IssueNumber)
	assert.Equal(t, []string{"qa", "test", "ready"}, m.Labels)
	assert.Equal(t, qaUser, m.Assignee)
}

func TestIssueMutationRunnersOmitEmptyValues(t *testing.T) {
	m := NewIssueMutation(7, &cfg.RepoConfig{QAFlags: []string{"qa"}})

	runners := m.Runners(nil, actiongithub.Issue{RepositoryOwner: repoOwner, Repository: repo, Number: 7})
	require.Len(t, runners, 1)
	assert.Contains(t, runners[0].String(), "add labels")
}
