package githubclt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v43/github"

	"github.com/simplesurance/steve/internal/steveerr"
)

// commitsPerPage is the page size requested when listing commits.
const commitsPerPage = 100

// maxCommitPages limits the number of pages that are fetched. GitHub does not
// list more then 250 commits for a pull request.
const maxCommitPages = 5

// CommitMessages returns the messages of all commits listed at commitsURL.
// commitsURL is usually the commits_url field of a pull request.
//
// The response must be a JSON array, every element must contain a string at
// "/commit/message". If one element does not, the whole list is rejected with
// an error wrapping steveerr.PermanentError.
// commitsURL must point to the host of the configured API, the API token is
// not sent to other hosts.
func (clt *Client) CommitMessages(ctx context.Context, commitsURL string) ([]string, error) {
	var result []string

	if err := clt.checkAPIHost(commitsURL); err != nil {
		return nil, steveerr.NewPermanentError(err)
	}

	for page := 1; page > 0 && page <= maxCommitPages; {
		pageURL, err := commitPageURL(commitsURL, page)
		if err != nil {
			return nil, steveerr.NewPermanentError(err)
		}

		body, resp, err := clt.getRaw(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		msgs, err := ParseCommitMessages(body)
		if err != nil {
			return nil, steveerr.NewPermanentError(fmt.Errorf("page %d: %w", page, err))
		}

		result = append(result, msgs...)
		page = resp.NextPage
	}

	return result, nil
}

func (clt *Client) checkAPIHost(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	if !strings.EqualFold(u.Host, clt.restClt.BaseURL.Host) {
		return fmt.Errorf("host %q of url %q differs from api host %q", u.Host, rawURL, clt.restClt.BaseURL.Host)
	}

	return nil
}

func commitPageURL(commitsURL string, page int) (string, error) {
	u, err := url.Parse(commitsURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("per_page", strconv.Itoa(commitsPerPage))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// getRaw sends a GET request to an absolute URL and returns the response
// body. Responses with another status code then 200 are errors.
func (clt *Client) getRaw(ctx context.Context, rawURL string) ([]byte, *github.Response, error) {
	req, err := clt.restClt.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, steveerr.NewPermanentError(err)
	}

	var buf bytes.Buffer

	resp, err := clt.restClt.Do(ctx, req, &buf)
	if err != nil {
		return nil, nil, clt.wrapErrors(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &UnexpectedStatusError{Operation: "fetching commits", Status: resp.StatusCode}
	}

	return buf.Bytes(), resp, nil
}

// ParseCommitMessages decodes a GitHub commit list and returns the commit
// messages in the order of the list.
func ParseCommitMessages(data []byte) ([]string, error) {
	var commits []*github.RepositoryCommit

	if err := json.Unmarshal(data, &commits); err != nil {
		return nil, fmt.Errorf("decoding commit list failed: %w", err)
	}

	if commits == nil {
		return nil, errors.New("commit list is not a JSON array")
	}

	result := make([]string, 0, len(commits))

	for i, c := range commits {
		if c.GetCommit() == nil || c.GetCommit().Message == nil {
			return nil, fmt.Errorf("commit list element %d: %w", i, errMissingCommitMessage)
		}

		result = append(result, c.GetCommit().GetMessage())
	}

	return result, nil
}

var errMissingCommitMessage = errors.New("missing field /commit/message")
