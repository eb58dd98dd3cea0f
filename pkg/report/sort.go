package report

import (
	"sort"

	"github.com/aquasecurity/vulnpolicy/pkg/policy"
)

type LessFunc func(v1, v2 *policy.Vulnerability) bool

// multiSorter implements the Sort interface, sorting the vulnerabilities within.
type multiSorter struct {
	vulnerabilities []policy.Vulnerability
	less            []LessFunc
}

// SortDesc sorts the argument slice according to the LessFunc functions passed to OrderedBy.
func (ms *multiSorter) SortDesc(vulnerabilities []policy.Vulnerability) {
	ms.vulnerabilities = vulnerabilities
	sort.Stable(sort.Reverse(ms))
}

// OrderedBy returns a Sorter that sorts using the LessFunc functions, in order.
// Call its SortDesc method to sort the data.
func OrderedBy(less ...LessFunc) *multiSorter {
	return &multiSorter{
		less: less,
	}
}

func (ms *multiSorter) Len() int {
	return len(ms.vulnerabilities)
}

func (ms *multiSorter) Swap(i, j int) {
	ms.vulnerabilities[i], ms.vulnerabilities[j] = ms.vulnerabilities[j], ms.vulnerabilities[i]
}

// Less loops along the less functions until it finds a comparison that
// discriminates between the two items.
func (ms *multiSorter) Less(i, j int) bool {
	p, q := &ms.vulnerabilities[i], &ms.vulnerabilities[j]
	var k int
	for k = 0; k < len(ms.less)-1; k++ {
		less := ms.less[k]
		switch {
		case less(p, q):
			return true
		case less(q, p):
			return false
		}
	}
	return ms.less[k](p, q)
}

var (
	// SeverityThenID orders the most severe vulnerabilities first and
	// vulnerabilities of the same severity by ascending ID.
	SeverityThenID = []LessFunc{
		func(v1, v2 *policy.Vulnerability) bool {
			return v1.Severity < v2.Severity
		}, func(v1, v2 *policy.Vulnerability) bool {
			return v1.ID > v2.ID
		}}
)
