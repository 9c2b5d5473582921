package commitmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanFindsIssueNumbers(t *testing.T) {
	msg := "needs qa: #72 should get caught\n" +
		"needs QA #333 should also get caught\n" +
		"but #44 won't, and needs QA: #33 #45\n" +
		"only gets #33. Duplicates are discarded:\n" +
		"needs qa #72"

	issues := NewScanner().Scan(msg)
	assert.Equal(t, NewIssueSet(72, 333, 33), issues)
}

func TestScan(t *testing.T) {
	testcases := []struct {
		name     string
		messages []string
		expected []int
	}{
		{
			name:     "noMessages",
			expected: []int{},
		},
		{
			name:     "noDirective",
			messages: []string{"message1", "swordfish"},
			expected: []int{},
		},
		{
			name:     "issueWithoutDirective",
			messages: []string{"fixes #44"},
			expected: []int{},
		},
		{
			name:     "withoutColon",
			messages: []string{"needs QA #333"},
			expected: []int{333},
		},
		{
			name:     "withColon",
			messages: []string{"needs qa: #72"},
			expected: []int{72},
		},
		{
			name:     "onlyFirstNumberAfterDirective",
			messages: []string{"needs QA: #33 #45"},
			expected: []int{33},
		},
		{
			name:     "mixedCase",
			messages: []string{"NeEdS qA #9"},
			expected: []int{9},
		},
		{
			name:     "newlineAsSeparator",
			messages: []string{"needs\nqa\n#10"},
			expected: []int{10},
		},
		{
			name:     "missingWhitespaceBeforeHash",
			messages: []string{"needs qa#10"},
			expected: []int{},
		},
		{
			name:     "duplicatesAcrossMessages",
			messages: []string{"needs qa #5", "also needs qa #5 and needs qa #7"},
			expected: []int{5, 7},
		},
		{
			name:     "numberOverflowIsIgnored",
			messages: []string{"needs qa #99999999999999999999999999 needs qa #1"},
			expected: []int{1},
		},
	}

	scanner := NewScanner()

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, scanner.Scan(tc.messages...).Slice())
		})
	}
}

func TestScanIsUnionOfSeparateScans(t *testing.T) {
	a := "needs qa #1, needs qa: #2"
	b := "needs QA #2\nneeds qa #3"

	scanner := NewScanner()

	union := scanner.Scan(a)
	union.Union(scanner.Scan(b))

	assert.Equal(t, union, scanner.Scan(a, b))
	assert.Equal(t, []int{1, 2, 3}, union.Slice())
}
