// Package aggregate scans corpus files in a bounded worker pool and merges
// the per-file results into corpus-wide accumulators once every worker has
// finished.
package aggregate

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/scanner"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/metrics"
)

// ScanFunc turns one file into its partial result. It must be safe for
// concurrent use and report failures through Result.Err.
type ScanFunc func(path string) scanner.Result

type Options struct {
	// Workers bounds the pool; zero means runtime.NumCPU().
	Workers int
}

// Stats summarises a run.
type Stats struct {
	Files           int
	FailedFiles     int
	Workers         int
	Records         int
	SkippedRecords  int
	DuplicateDocIDs int
	Tokens          int
}

// Corpus is the merged state handed to the dictionary builder. It is owned
// by the caller once Run returns.
type Corpus struct {
	Terms  index.TermTable
	Docs   index.DocSet
	Failed []string
	Stats  Stats
}

type Aggregator struct {
	scan    ScanFunc
	workers int
	metrics *metrics.Metrics
}

func New(scan ScanFunc, opts Options, m *metrics.Metrics) *Aggregator {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Aggregator{
		scan:    scan,
		workers: workers,
		metrics: m,
	}
}

// Run scans every path and returns the merged corpus. A file that fails to
// scan contributes nothing and does not fail the run. Run returns an error
// only when ctx is cancelled, and never a partially merged corpus.
func (a *Aggregator) Run(ctx context.Context, paths []string) (*Corpus, error) {
	log := logger.FromContext(ctx).With("component", "aggregator")
	workers := min(a.workers, max(1, len(paths)))

	jobs := make(chan string, len(paths))
	for _, p := range paths {
		jobs <- p
	}
	close(jobs)
	results := make(chan scanner.Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			a.metrics.WorkerStarted()
			defer a.metrics.WorkerDone()
			for path := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				results <- a.scan(path)
			}
			return nil
		})
	}
	// Barrier: nothing is merged until every worker has returned.
	err := g.Wait()
	close(results)
	if err != nil {
		return nil, fmt.Errorf("scan aborted: %w", err)
	}

	corpus := &Corpus{
		Terms: make(index.TermTable),
		Docs:  make(index.DocSet),
		Stats: Stats{Files: len(paths), Workers: workers},
	}
	for res := range results {
		a.merge(corpus, res)
		if res.Err != nil {
			log.Warn("file scan failed, skipping", "path", res.Path, "error", res.Err)
		}
	}
	sort.Strings(corpus.Failed)
	corpus.Stats.Tokens = corpus.Terms.Total()
	a.metrics.ObserveDuplicates(corpus.Stats.DuplicateDocIDs)

	if corpus.Stats.DuplicateDocIDs > 0 {
		log.Warn("duplicate document ids collapsed", "duplicates", corpus.Stats.DuplicateDocIDs)
	}
	log.Info("corpus scanned",
		"files", corpus.Stats.Files,
		"failed_files", corpus.Stats.FailedFiles,
		"workers", workers,
		"documents", len(corpus.Docs),
		"raw_terms", len(corpus.Terms),
	)
	return corpus, nil
}

func (a *Aggregator) merge(c *Corpus, res scanner.Result) {
	a.metrics.ObserveFile(res.Err != nil, res.Records, res.Skipped, res.Tokens)
	if res.Err != nil {
		c.Stats.FailedFiles++
		c.Failed = append(c.Failed, res.Path)
		return
	}
	for _, id := range res.DocIDs {
		if c.Docs.Add(id) {
			c.Stats.DuplicateDocIDs++
		}
	}
	c.Terms.Merge(res.Terms)
	c.Stats.Records += res.Records
	c.Stats.SkippedRecords += res.Skipped
}
