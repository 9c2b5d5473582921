package commitmsg

import "sort"

// IssueSet is a set of issue numbers.
type IssueSet map[int]struct{}

func NewIssueSet(issues ...int) IssueSet {
	result := make(IssueSet, len(issues))

	for _, nr := range issues {
		result.Add(nr)
	}

	return result
}

func (s IssueSet) Add(issue int) {
	s[issue] = struct{}{}
}

func (s IssueSet) Contains(issue int) bool {
	_, exist := s[issue]
	return exist
}

// Union adds all elements of other to s.
func (s IssueSet) Union(other IssueSet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Slice returns the issue numbers in ascending order.
func (s IssueSet) Slice() []int {
	res := make([]int, 0, len(s))

	for k := range s {
		res = append(res, k)
	}

	sort.Ints(res)

	return res
}
