package cfg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simplesurance/steve/internal/stringutils"
)

// RepoConfig defines how issues of a repository are annotated.
type RepoConfig struct {
	QAUser  string   `toml:"qa_user"`
	QAFlags []string `toml:"qa_flags"`
}

func (r *RepoConfig) String() string {
	return fmt.Sprintf("qa_user: %s\nqa_flags: %s", r.QAUser, strings.Join(r.QAFlags, ", "))
}

// Repositories maps "owner/repository" identifiers to their configuration.
type Repositories map[string]RepoConfig

func RepositoryKey(owner, repo string) string {
	return owner + "/" + repo
}

// Resolve returns the configuration for the repository.
// If the repository is not tracked, false is returned.
func (r Repositories) Resolve(owner, repo string) (*RepoConfig, bool) {
	repoCfg, exist := r[RepositoryKey(owner, repo)]
	if !exist {
		return nil, false
	}

	return &repoCfg, true
}

func (r Repositories) Validate() error {
	for key, repoCfg := range r {
		owner, name, found := strings.Cut(key, "/")
		if !found || owner == "" || name == "" || strings.Contains(name, "/") {
			return fmt.Errorf("repos: invalid repository key %q, expecting <owner>/<repository>", key)
		}

		for _, flag := range repoCfg.QAFlags {
			if strings.TrimSpace(flag) == "" {
				return fmt.Errorf("repos: %s: qa_flags contains an empty label", key)
			}
		}

		if repoCfg.QAUser == "" && len(repoCfg.QAFlags) == 0 {
			return fmt.Errorf("repos: %s: neither qa_user nor qa_flags are defined", key)
		}
	}

	return nil
}

// String returns a multi-line description of all repository configurations,
// ordered by repository.
func (r Repositories) String() string {
	var result strings.Builder

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		result.WriteString(k)
		result.WriteString(":\n")
		repoCfg := r[k]
		result.WriteString(stringutils.IndentString(repoCfg.String(), "  "))
		if i < len(keys)-1 {
			result.WriteRune('\n')
		}
	}

	return result.String()
}
