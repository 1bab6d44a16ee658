// Package index holds the corpus-wide accumulators filled by the scan phase:
// a term frequency table keyed by raw (unstemmed) token and the set of
// document ids. Both merge associatively and commutatively.
package index

import (
	"iter"
	"slices"
)

// TermTable maps a raw token to its occurrence count.
type TermTable map[string]int

// Add counts every token of seq and returns how many were counted.
func (t TermTable) Add(seq iter.Seq[string]) int {
	n := 0
	for term := range seq {
		t[term]++
		n++
	}
	return n
}

// Merge sums other's counts into t.
func (t TermTable) Merge(other TermTable) {
	for term, count := range other {
		t[term] += count
	}
}

// Total returns the sum of all counts.
func (t TermTable) Total() int {
	total := 0
	for _, count := range t {
		total += count
	}
	return total
}

// SortedTerms returns the distinct terms in lexicographic order.
func (t TermTable) SortedTerms() []string {
	terms := make([]string, 0, len(t))
	for term := range t {
		terms = append(terms, term)
	}
	slices.Sort(terms)
	return terms
}

// DocSet is a set of raw document ids.
type DocSet map[string]struct{}

// Add inserts id and reports whether it was already present.
func (d DocSet) Add(id string) (duplicate bool) {
	if _, ok := d[id]; ok {
		return true
	}
	d[id] = struct{}{}
	return false
}

// Sorted returns the ids in lexicographic order.
func (d DocSet) Sorted() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
