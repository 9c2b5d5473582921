// Package githubclt provides a github API client.
package githubclt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/google/go-github/v43/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/simplesurance/steve/internal/logfields"
	"github.com/simplesurance/steve/internal/steveerr"
)

const DefaultHTTPClientTimeout = 30 * time.Second

// UserAgent is sent as User-Agent header with every request.
const UserAgent = "steve"

const loggerName = "github_client"

// New returns a new github api client.
// If apiRoot is empty, the public github.com API is used, otherwise apiRoot
// is the base URL of a GitHub Enterprise REST API.
// If graphQLURL is empty, the public github.com GraphQL API is used.
func New(apiRoot, graphQLURL, oauthAPItoken string) (*Client, error) {
	return newClient(newHTTPClient(oauthAPItoken), apiRoot, graphQLURL)
}

func newClient(httpClient *http.Client, apiRoot, graphQLURL string) (*Client, error) {
	restClt := github.NewClient(httpClient)

	if apiRoot != "" {
		var err error

		restClt, err = github.NewEnterpriseClient(apiRoot, apiRoot, httpClient)
		if err != nil {
			return nil, fmt.Errorf("creating github client for %q failed: %w", apiRoot, err)
		}
	}

	restClt.UserAgent = UserAgent

	graphQLClt := githubv4.NewClient(httpClient)
	if graphQLURL != "" {
		graphQLClt = githubv4.NewEnterpriseClient(graphQLURL, httpClient)
	}

	return &Client{
		restClt:    restClt,
		graphQLClt: graphQLClt,
		logger:     zap.L().Named(loggerName),
	}, nil
}

// userAgentTransport sets the User-Agent header for requests that are not
// created by the go-github client.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}

	return t.base.RoundTrip(req)
}

func newHTTPClient(apiToken string) *http.Client {
	transport := &userAgentTransport{base: http.DefaultTransport}

	if apiToken == "" {
		return &http.Client{
			Timeout:   DefaultHTTPClientTimeout,
			Transport: transport,
		}
	}

	return &http.Client{
		Timeout: DefaultHTTPClientTimeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiToken}),
			Base:   transport,
		},
	}
}

// Client is an github API client.
// Errors that can not be resolved by repeating the operation wrap
// steveerr.PermanentError.
type Client struct {
	restClt    *github.Client
	graphQLClt *githubv4.Client
	logger     *zap.Logger
}

// UnexpectedStatusError is returned when the GitHub API responded with a
// status code that is not expected for the operation.
type UnexpectedStatusError struct {
	Operation string
	Status    int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s: github responded with unexpected status code %d", e.Operation, e.Status)
}

// AddLabels adds labels to an issue or pull request.
// Labels that the issue already has are kept, adding an existing label again
// has no effect.
func (clt *Client) AddLabels(ctx context.Context, owner, repo string, issueNumber int, labels []string) error {
	if len(labels) == 0 {
		return steveerr.NewPermanentError(errors.New("no labels provided"))
	}

	for _, label := range labels {
		if label == "" {
			// github interprets an empty label list as "remove all
			// labels", refuse empty values to not accidentally send one
			return steveerr.NewPermanentError(errors.New("provided label is empty"))
		}
	}

	_, _, err := clt.restClt.Issues.AddLabelsToIssue(ctx, owner, repo, issueNumber, labels)
	return clt.wrapErrors(err)
}

// SetAssignee assigns user to an issue.
// It fails if github does not respond with http status 200.
func (clt *Client) SetAssignee(ctx context.Context, owner, repo string, issueNumber int, user string) error {
	if user == "" {
		return steveerr.NewPermanentError(errors.New("provided assignee is empty"))
	}

	_, resp, err := clt.restClt.Issues.Edit(ctx, owner, repo, issueNumber, &github.IssueRequest{
		Assignee: &user,
	})
	if err != nil {
		var acceptedErr *github.AcceptedError
		if errors.As(err, &acceptedErr) {
			return &UnexpectedStatusError{Operation: "setting issue assignee", Status: http.StatusAccepted}
		}

		return clt.wrapErrors(err)
	}

	if resp.StatusCode != http.StatusOK {
		return &UnexpectedStatusError{Operation: "setting issue assignee", Status: resp.StatusCode}
	}

	return nil
}

func (clt *Client) wrapErrors(err error) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		clt.logger.Info(
			"rate limit exceeded",
			logfields.Event("github_api_rate_limit_exceeded"),
			zap.Int("github_api_rate_limit", rateLimitErr.Rate.Limit),
			zap.Time("github_api_rate_limit_reset_time", rateLimitErr.Rate.Reset.Time),
		)
	}

	return err
}

var graphQlHTTPStatusErrRe = regexp.MustCompile(`^non-200 OK status code: ([0-9]+) .*`)

// graphQLStatusCode returns the http status code from an error returned by
// the graphql client.
// If the error does not contain a status code, 0 is returned.
func (clt *Client) graphQLStatusCode(err error) int {
	matches := graphQlHTTPStatusErrRe.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	errcode, atoiErr := strconv.Atoi(matches[1])
	if atoiErr != nil {
		clt.logger.Info(
			"parsing http code from error string failed",
			zap.Error(atoiErr),
			zap.String("error_string", err.Error()),
			zap.String("http_errcode", matches[1]),
		)
		return 0
	}

	return errcode
}
