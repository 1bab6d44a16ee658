// Package indexer drives one dictionary build: it lists the corpus, scans it
// through the worker pool, assigns ids, writes the text output and hands the
// result to the configured sinks.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/events"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/aggregate"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/dictionary"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/output"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/scanner"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/tracing"
)

// Pipeline stage names, used for spans and the stage duration histogram.
const (
	StageList    = "list"
	StageScan    = "scan"
	StageBuild   = "build"
	StageWrite   = "write"
	StageDeliver = "deliver"
)

// Sink receives a finished dictionary set.
type Sink interface {
	Name() string
	Ping(ctx context.Context) error
	Write(ctx context.Context, runID string, set *dictionary.Set) error
}

// Announcer publishes the build event once every sink has the run.
type Announcer interface {
	Name() string
	Ping(ctx context.Context) error
	PublishBuilt(ctx context.Context, ev events.DictionaryBuilt) error
}

// Deps are the collaborators of an Engine. Only Stemmer is required.
type Deps struct {
	Stopwords tokenizer.Stopwords
	Stemmer   tokenizer.Stemmer
	Metrics   *metrics.Metrics
	Sinks     []Sink
	Announcer Announcer
	// NewRunID defaults to a ULID.
	NewRunID func() string
}

// Report summarises one build.
type Report struct {
	RunID     string
	Corpus    string
	Output    string
	Stats     aggregate.Stats
	Failed    []string
	Terms     int
	Documents int
	RawTerms  int
	Delivered []string
	Stages    map[string]time.Duration
	Duration  time.Duration
	Set       *dictionary.Set
}

type Engine struct {
	cfg      *config.Config
	scanner  *scanner.Scanner
	builder  *dictionary.Builder
	metrics  *metrics.Metrics
	sinks    []Sink
	announce Announcer
	newRunID func() string
	retry    resilience.RetryConfig
}

func NewEngine(cfg *config.Config, deps Deps) (*Engine, error) {
	if deps.Stemmer == nil {
		return nil, fmt.Errorf("engine: %w: stemmer is required", apperrors.ErrInternal)
	}
	newRunID := deps.NewRunID
	if newRunID == nil {
		newRunID = func() string { return ulid.Make().String() }
	}
	markers := scanner.Markers{
		Record: cfg.Corpus.Markers.Record,
		ID:     cfg.Corpus.Markers.ID,
		Text:   cfg.Corpus.Markers.Text,
	}
	return &Engine{
		cfg:      cfg,
		scanner:  scanner.New(markers, deps.Stopwords),
		builder:  dictionary.NewBuilder(deps.Stemmer),
		metrics:  deps.Metrics,
		sinks:    deps.Sinks,
		announce: deps.Announcer,
		newRunID: newRunID,
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.Sinks.MaxAttempts,
			InitialDelay: cfg.Sinks.InitialDelay,
		},
	}, nil
}

// Build runs the whole pipeline once. A failing corpus file is logged and
// skipped; a missing corpus, an unwritable output or an unreachable sink
// fails the build. When a sink fails after the output was written, the
// report is returned together with the error.
func (e *Engine) Build(ctx context.Context) (report *Report, err error) {
	start := time.Now()
	runID := e.newRunID()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "engine")

	ctx, root := tracing.StartSpan(ctx, "dictionary.build", runID)
	root.SetAttr("corpus", e.cfg.Corpus.Dir)
	defer func() {
		root.End()
		if e.cfg.Tracing.Enabled {
			root.Log(log)
		}
		e.metrics.ObserveBuild(err)
	}()

	log.Info("dictionary build starting",
		"corpus", e.cfg.Corpus.Dir,
		"recursive", e.cfg.Corpus.Recursive,
		"sinks", len(e.sinks),
	)
	if err := e.preflight(ctx); err != nil {
		return nil, err
	}

	var paths []string
	if err := e.stage(ctx, StageList, func(context.Context) error {
		var err error
		paths, err = scanner.ListFiles(e.cfg.Corpus.Dir, e.cfg.Corpus.Recursive)
		return err
	}); err != nil {
		return nil, err
	}

	var corpus *aggregate.Corpus
	if err := e.stage(ctx, StageScan, func(ctx context.Context) error {
		var err error
		agg := aggregate.New(e.scanner.ScanFile, aggregate.Options{Workers: e.cfg.Pipeline.Workers}, e.metrics)
		corpus, err = agg.Run(ctx, paths)
		return err
	}); err != nil {
		return nil, err
	}

	var set *dictionary.Set
	if err := e.stage(ctx, StageBuild, func(context.Context) error {
		set = e.builder.Build(corpus.Terms, corpus.Docs)
		return nil
	}); err != nil {
		return nil, err
	}
	e.metrics.SetDictionarySize("terms", set.Terms.Len())
	e.metrics.SetDictionarySize("documents", set.Documents.Len())

	report = &Report{
		RunID:     runID,
		Corpus:    e.cfg.Corpus.Dir,
		Output:    e.cfg.Output.Path,
		Stats:     corpus.Stats,
		Failed:    corpus.Failed,
		Terms:     set.Terms.Len(),
		Documents: set.Documents.Len(),
		RawTerms:  set.RawTerms,
		Set:       set,
	}

	if e.cfg.Output.Path != "" {
		if err := e.stage(ctx, StageWrite, func(context.Context) error {
			return output.WriteFile(e.cfg.Output.Path, set)
		}); err != nil {
			return nil, fmt.Errorf("writing dictionary output: %w", err)
		}
	}

	deliverErr := e.stage(ctx, StageDeliver, func(ctx context.Context) error {
		return e.deliver(ctx, report, start)
	})

	report.Duration = time.Since(start)
	root.End()
	report.Stages = root.Durations()
	log.Info("dictionary build finished",
		"terms", report.Terms,
		"documents", report.Documents,
		"raw_terms", report.RawTerms,
		"failed_files", report.Stats.FailedFiles,
		"delivered", report.Delivered,
		"output", report.Output,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, deliverErr
}

func (e *Engine) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartChildSpan(ctx, name)
	err := fn(ctx)
	if err != nil {
		span.SetAttr("error", err.Error())
	}
	e.metrics.ObserveStage(name, span.End())
	return err
}

// preflight pings every sink and the announcer before any work is done.
func (e *Engine) preflight(ctx context.Context) error {
	if len(e.sinks) == 0 && e.announce == nil {
		return nil
	}
	checker := health.NewChecker()
	for _, s := range e.sinks {
		checker.Register(s.Name(), health.PingCheck(s.Ping))
	}
	if e.announce != nil {
		checker.Register(e.announce.Name(), health.PingCheck(e.announce.Ping))
	}
	if e.cfg.Sinks.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Sinks.Timeout)
		defer cancel()
	}
	if down := checker.Run(ctx).Down(); len(down) > 0 {
		return apperrors.Newf(apperrors.ErrSinkUnavailable, apperrors.ExitUnavailable,
			"preflight failed for %v", down)
	}
	return nil
}

// deliver writes the set to every sink in order. A failing sink does not stop
// the others, but the build event is only published when all succeeded.
func (e *Engine) deliver(ctx context.Context, report *Report, start time.Time) error {
	log := logger.FromContext(ctx).With("component", "engine")
	var errs []error
	for _, s := range e.sinks {
		err := resilience.Call(ctx, s.Name(), e.cfg.Sinks.Timeout, e.retry, func(ctx context.Context) error {
			return s.Write(ctx, report.RunID, report.Set)
		})
		e.metrics.ObserveSink(s.Name(), err)
		if err != nil {
			log.Error("sink delivery failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%w: %s: %w", apperrors.ErrSinkUnavailable, s.Name(), err))
			continue
		}
		report.Delivered = append(report.Delivered, s.Name())
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if e.announce == nil {
		return nil
	}

	ev := events.DictionaryBuilt{
		RunID:       report.RunID,
		Corpus:      report.Corpus,
		Output:      report.Output,
		Files:       report.Stats.Files,
		FailedFiles: report.Stats.FailedFiles,
		Documents:   report.Documents,
		Terms:       report.Terms,
		RawTerms:    report.RawTerms,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	err := resilience.Call(ctx, e.announce.Name(), e.cfg.Sinks.Timeout, e.retry, func(ctx context.Context) error {
		return e.announce.PublishBuilt(ctx, ev)
	})
	e.metrics.ObserveSink(e.announce.Name(), err)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", apperrors.ErrSinkUnavailable, e.announce.Name(), err)
	}
	report.Delivered = append(report.Delivered, e.announce.Name())
	return nil
}
