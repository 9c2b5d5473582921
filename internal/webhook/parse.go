package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/simplesurance/steve/internal/steveerr"
)

const (
	FieldCommitsURL = "/pull_request/commits_url"
	FieldOwnerLogin = "/pull_request/repo/owner/login"
	FieldRepoName   = "/pull_request/repo/name"
	FieldMerged     = "/pull_request/merged"
)

// field is a value in the event JSON document, addressed by a JSON-pointer
// like path.
type field struct {
	path  string
	query *gojq.Code
}

func mustCompileField(path string) *field {
	query, err := gojq.Parse(strings.ReplaceAll(path, "/", "."))
	if err != nil {
		panic(fmt.Sprintf("parsing query for field %s failed: %s", path, err))
	}

	code, err := gojq.Compile(query)
	if err != nil {
		panic(fmt.Sprintf("compiling query for field %s failed: %s", path, err))
	}

	return &field{path: path, query: code}
}

var (
	commitsURLField = mustCompileField(FieldCommitsURL)
	ownerLoginField = mustCompileField(FieldOwnerLogin)
	repoNameField   = mustCompileField(FieldRepoName)
	mergedField     = mustCompileField(FieldMerged)
)

// value returns the value of the field in doc.
// A null value is treated as missing.
func (f *field) value(doc any) (any, error) {
	res, ok := f.query.Run(doc).Next()
	if !ok || res == nil {
		return nil, steveerr.NewParseError(steveerr.ParseErrorMissingField, f.path, nil)
	}

	if err, isErr := res.(error); isErr {
		// an element on the path is not an object
		return nil, steveerr.NewParseError(steveerr.ParseErrorTypeMismatch, f.path, err)
	}

	return res, nil
}

func (f *field) stringValue(doc any) (string, error) {
	val, err := f.value(doc)
	if err != nil {
		return "", err
	}

	str, ok := val.(string)
	if !ok {
		return "", steveerr.NewParseError(
			steveerr.ParseErrorTypeMismatch,
			f.path,
			fmt.Errorf("value has type %T, expected string", val),
		)
	}

	return str, nil
}

func (f *field) boolValue(doc any) (bool, error) {
	val, err := f.value(doc)
	if err != nil {
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, steveerr.NewParseError(
			steveerr.ParseErrorTypeMismatch,
			f.path,
			fmt.Errorf("value has type %T, expected bool", val),
		)
	}

	return b, nil
}

// Parse converts a webhook payload into a PullRequestEvent.
//
// If eventType is not EventTypePullRequest a steveerr.ParseError wrapping
// steveerr.ErrNotApplicable is returned.
// All other errors are *steveerr.ParseError values describing which field
// is missing or invalid.
func Parse(eventType string, payload []byte) (*PullRequestEvent, error) {
	if eventType != EventTypePullRequest {
		return nil, steveerr.NewParseError(
			steveerr.ParseErrorNotApplicable,
			"",
			fmt.Errorf("%w: %q", steveerr.ErrNotApplicable, eventType),
		)
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, steveerr.NewParseError(steveerr.ParseErrorMalformed, "", err)
	}

	rawURL, err := commitsURLField.stringValue(doc)
	if err != nil {
		return nil, err
	}

	commitsURL, err := parseAbsURL(rawURL)
	if err != nil {
		return nil, steveerr.NewParseError(steveerr.ParseErrorInvalidURL, FieldCommitsURL, err)
	}

	owner, err := ownerLoginField.stringValue(doc)
	if err != nil {
		return nil, err
	}

	repo, err := repoNameField.stringValue(doc)
	if err != nil {
		return nil, err
	}

	merged, err := mergedField.boolValue(doc)
	if err != nil {
		return nil, err
	}

	return &PullRequestEvent{
		CommitsURL: commitsURL,
		Owner:      owner,
		RepoName:   repo,
		Merged:     merged,
	}, nil
}

func parseAbsURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, errors.New("url is not absolute")
	}

	return u, nil
}
