package grading

import (
	"sort"
	"strconv"
	"strings"
)

// GroupByTerm buckets records by term and orders the buckets
// chronologically. Year and term are compared as numbers when both sides
// parse as integers, so "2566-2" sorts before "2566-10". Records keep their
// input order inside a bucket.
func GroupByTerm(records []GradeRecord) []TermGroup {
	index := make(map[TermKey]int)
	groups := []TermGroup{}
	for _, r := range records {
		i, ok := index[r.Term]
		if !ok {
			i = len(groups)
			index[r.Term] = i
			groups = append(groups, TermGroup{Term: r.Term})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return TermLess(groups[i].Term, groups[j].Term)
	})
	return groups
}

// TermLess orders terms by academic year, then by term number.
func TermLess(a, b TermKey) bool {
	if c := compareComponent(a.AcademicYear, b.AcademicYear); c != 0 {
		return c < 0
	}
	return compareComponent(a.Term, b.Term) < 0
}

func compareComponent(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		// numbers before free text
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
