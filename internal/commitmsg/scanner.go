// Package commitmsg finds QA directives in commit messages.
package commitmsg

import (
	"regexp"
	"strconv"
)

// qaDirectivePattern matches "needs qa #<nr>" with an optional colon after
// "qa", case-insensitive. Only the first issue number following the phrase is
// captured.
const qaDirectivePattern = `(?i)needs\sqa:?\s#(\d+)`

// Scanner extracts issue numbers that are referenced by QA directives.
// A Scanner is safe for concurrent use.
type Scanner struct {
	re *regexp.Regexp
}

func NewScanner() *Scanner {
	return &Scanner{
		re: regexp.MustCompile(qaDirectivePattern),
	}
}

// Scan returns the deduplicated numbers of all issues that are referenced by
// QA directives in messages.
// Digit sequences that do not fit into an int are ignored.
func (s *Scanner) Scan(messages ...string) IssueSet {
	result := IssueSet{}

	for _, msg := range messages {
		for _, match := range s.re.FindAllStringSubmatch(msg, -1) {
			nr, err := strconv.Atoi(match[1])
			if err != nil {
				continue
			}

			result.Add(nr)
		}
	}

	return result
}
