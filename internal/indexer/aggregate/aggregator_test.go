package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/scanner"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/metrics"
)

// fakeCorpus serves file contents from memory through a real Scanner.
func fakeCorpus(files map[string]string, delay bool) ScanFunc {
	s := scanner.New(scanner.DefaultMarkers, tokenizer.NewStopwords("the"))
	return func(path string) scanner.Result {
		if delay {
			time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		}
		content, ok := files[path]
		if !ok {
			return scanner.Result{Path: path, Terms: index.TermTable{}, Err: fmt.Errorf("%w: %s: missing", apperrors.ErrFileScan, path)}
		}
		res := s.ScanContent([]byte(content))
		res.Path = path
		return res
	}
}

var corpusFiles = map[string]string{
	"f1": "<DOC><DOCNO>FT911-1</DOCNO><TEXT>Cats run. Cats sleep.</TEXT></DOC>",
	"f2": "<DOC><DOCNO>FT911-3</DOCNO><TEXT>The dog runs</TEXT></DOC><DOC><TEXT>orphan</TEXT></DOC>",
	"f3": "<DOC><DOCNO>FT911-2</DOCNO></DOC><DOC><DOCNO>FT911-1</DOCNO><TEXT>cats</TEXT></DOC>",
	"f4": "no records at all",
}

func TestRunMergesAllFiles(t *testing.T) {
	agg := New(fakeCorpus(corpusFiles, false), Options{Workers: 2}, nil)
	c, err := agg.Run(context.Background(), []string{"f1", "f2", "f3", "f4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantTerms := index.TermTable{"cats": 3, "run": 1, "sleep": 1, "dog": 1, "runs": 1}
	if diff := cmp.Diff(wantTerms, c.Terms); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"FT911-1", "FT911-2", "FT911-3"}, c.Docs.Sorted()); diff != "" {
		t.Errorf("docs mismatch (-want +got):\n%s", diff)
	}
	want := Stats{Files: 4, Workers: 2, Records: 4, SkippedRecords: 1, DuplicateDocIDs: 1, Tokens: 7}
	if diff := cmp.Diff(want, c.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if c.Stats.Tokens != c.Terms.Total() {
		t.Errorf("Tokens = %d, term table holds %d", c.Stats.Tokens, c.Terms.Total())
	}
}

func TestRunIsDeterministicAcrossWorkersAndOrder(t *testing.T) {
	paths := []string{"f1", "f2", "f3", "f4"}
	base, err := New(fakeCorpus(corpusFiles, false), Options{Workers: 1}, nil).Run(context.Background(), paths)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, workers := range []int{1, 2, 3, 8} {
		for trial := 0; trial < 5; trial++ {
			shuffled := append([]string(nil), paths...)
			rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

			c, err := New(fakeCorpus(corpusFiles, true), Options{Workers: workers}, nil).Run(context.Background(), shuffled)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if diff := cmp.Diff(base.Terms, c.Terms); diff != "" {
				t.Errorf("workers=%d order=%v terms differ:\n%s", workers, shuffled, diff)
			}
			if diff := cmp.Diff(base.Docs, c.Docs); diff != "" {
				t.Errorf("workers=%d order=%v docs differ:\n%s", workers, shuffled, diff)
			}
		}
	}
}

func TestRunFailedFileDoesNotAbort(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	agg := New(fakeCorpus(corpusFiles, false), Options{Workers: 4}, m)
	c, err := agg.Run(context.Background(), []string{"f1", "missing-b", "missing-a"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"missing-a", "missing-b"}, c.Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
	if c.Stats.FailedFiles != 2 || len(c.Docs) != 1 {
		t.Errorf("stats = %+v docs = %v", c.Stats, c.Docs)
	}
	if got := testutil.ToFloat64(m.FilesScannedTotal.WithLabelValues("failed")); got != 2 {
		t.Errorf("failed files metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ActiveWorkers); got != 0 {
		t.Errorf("active workers after run = %v, want 0", got)
	}
}

func TestRunEmpty(t *testing.T) {
	c, err := New(fakeCorpus(nil, false), Options{}, nil).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(c.Terms) != 0 || len(c.Docs) != 0 || c.Stats.Workers != 1 {
		t.Errorf("empty run = %+v", c)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	scan := func(path string) scanner.Result {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return scanner.Result{Path: path, Terms: index.TermTable{}}
	}
	paths := make([]string, 40)
	for i := range paths {
		paths[i] = fmt.Sprintf("p%02d", i)
	}
	if _, err := New(scan, Options{Workers: 3}, nil).Run(context.Background(), paths); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := peak.Load(); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(fakeCorpus(corpusFiles, false), Options{Workers: 2}, nil).Run(ctx, []string{"f1", "f2"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
