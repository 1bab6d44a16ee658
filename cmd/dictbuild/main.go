// Command dictbuild builds the term and document dictionaries for a tagged
// text corpus and writes them to parser_output.txt and any configured sinks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/output"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/metrics"
)

type flags struct {
	config    string
	corpus    string
	stopwords string
	out       string
	workers   int
	verify    bool
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "path to YAML config file")
	flag.StringVar(&f.corpus, "corpus", "", "corpus directory (overrides corpus.dir)")
	flag.StringVar(&f.stopwords, "stopwords", "", "stopword list (overrides stopwords.path)")
	flag.StringVar(&f.out, "out", "", "output file (overrides output.path)")
	flag.IntVar(&f.workers, "workers", 0, "scan workers, 0 = one per CPU (overrides pipeline.workers)")
	flag.BoolVar(&f.verify, "verify", false, "re-read the output file and check it against the build")
	flag.Parse()

	if err := run(f); err != nil {
		slog.Error("dictionary build failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(f flags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	stop, err := tokenizer.LoadStopwordsFile(cfg.Stopwords.Path)
	if err != nil {
		return err
	}
	slog.Info("stopwords loaded", "path", cfg.Stopwords.Path, "count", len(stop))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sinks, err := openOutputs(ctx, cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)

		checker := health.NewChecker()
		for _, s := range sinks.sinks {
			checker.Register(s.Name(), health.PingCheck(s.Ping))
		}
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg, checker.ReadyHandler())
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			shutdown(sctx)
		}()
	}

	engine, err := indexer.NewEngine(cfg, indexer.Deps{
		Stopwords: stop,
		Stemmer:   tokenizer.NewSnowballStemmer(),
		Metrics:   m,
		Sinks:     sinks.sinks,
		Announcer: sinks.announcer,
	})
	if err != nil {
		return err
	}

	report, err := engine.Build(ctx)
	if err != nil {
		return err
	}
	if f.verify {
		if err := verify(cfg.Output.Path, report); err != nil {
			return err
		}
		slog.Info("output verified", "path", cfg.Output.Path)
	}
	return nil
}

func applyFlags(cfg *config.Config, f flags) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "corpus":
			cfg.Corpus.Dir = f.corpus
		case "stopwords":
			cfg.Stopwords.Path = f.stopwords
		case "out":
			cfg.Output.Path = f.out
		case "workers":
			cfg.Pipeline.Workers = f.workers
		}
	})
}

// verify decodes the written file and compares it entry by entry with the
// dictionaries held in memory.
func verify(path string, report *indexer.Report) error {
	got, err := output.ReadFile(path)
	if err != nil {
		return err
	}
	if !slices.Equal(got.Terms.Keys(), report.Set.Terms.Keys()) ||
		!slices.Equal(got.Documents.Keys(), report.Set.Documents.Keys()) {
		return apperrors.Newf(apperrors.ErrMalformedOutput, apperrors.ExitFailure,
			"%s does not match run %s", path, report.RunID)
	}
	return nil
}
