package index

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTermTableMergeIsOrderIndependent(t *testing.T) {
	parts := []TermTable{
		{"cat": 2, "run": 1},
		{"cat": 1, "dog": 4},
		{"run": 3},
	}
	forward := make(TermTable)
	for _, p := range parts {
		forward.Merge(p)
	}
	backward := make(TermTable)
	for i := len(parts) - 1; i >= 0; i-- {
		backward.Merge(parts[i])
	}
	want := TermTable{"cat": 3, "dog": 4, "run": 4}
	if diff := cmp.Diff(want, forward); diff != "" {
		t.Errorf("forward merge mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Errorf("merge order changed totals (-forward +backward):\n%s", diff)
	}
	if got := forward.Total(); got != 11 {
		t.Errorf("Total = %d, want 11", got)
	}
	if diff := cmp.Diff([]string{"cat", "dog", "run"}, forward.SortedTerms()); diff != "" {
		t.Errorf("SortedTerms mismatch (-want +got):\n%s", diff)
	}
}

func TestTermTableAdd(t *testing.T) {
	tt := make(TermTable)
	n := tt.Add(slices.Values([]string{"cats", "run", "cats", "sleep"}))
	if n != 4 {
		t.Errorf("Add counted %d tokens, want 4", n)
	}
	if diff := cmp.Diff(TermTable{"cats": 2, "run": 1, "sleep": 1}, tt); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDocSetAdd(t *testing.T) {
	d := DocSet{}
	if d.Add("FT911-2") {
		t.Fatal("first Add reported duplicate")
	}
	if !d.Add("FT911-2") {
		t.Fatal("second Add did not report duplicate")
	}
	d.Add("FT911-3")
	d.Add("FT911-1")
	if diff := cmp.Diff([]string{"FT911-1", "FT911-2", "FT911-3"}, d.Sorted()); diff != "" {
		t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
	}
}
