// Package redisstore publishes built dictionaries as Redis hashes so that
// online services can resolve term and document ids without reading the
// text output.
package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer/dictionary"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/logger"
)

// HashWriter is the subset of the Redis client the store needs.
type HashWriter interface {
	WriteHash(ctx context.Context, key string, pairs []any, batchSize int, ttl time.Duration) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Ping(ctx context.Context) error
}

type Options struct {
	KeyPrefix string
	BatchSize int
	TTL       time.Duration
}

// Store writes one run as two hashes:
//
//	<prefix>:<run>:terms  stem -> id
//	<prefix>:<run>:docs   document id -> id
//
// and then points <prefix>:latest at the run.
type Store struct {
	client HashWriter
	opts   Options
	logger *slog.Logger
}

func New(client HashWriter, opts Options) *Store {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "dict"
	}
	return &Store{
		client: client,
		opts:   opts,
		logger: logger.WithComponent("redisstore"),
	}
}

func (s *Store) Name() string { return "redis" }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) TermsKey(runID string) string {
	return fmt.Sprintf("%s:%s:terms", s.opts.KeyPrefix, runID)
}

func (s *Store) DocsKey(runID string) string {
	return fmt.Sprintf("%s:%s:docs", s.opts.KeyPrefix, runID)
}

func (s *Store) LatestKey() string {
	return s.opts.KeyPrefix + ":latest"
}

// Write stores both hashes before moving the latest pointer, so readers that
// follow the pointer never see a half-written run.
func (s *Store) Write(ctx context.Context, runID string, set *dictionary.Set) error {
	if err := s.client.WriteHash(ctx, s.TermsKey(runID), pairs(set.Terms), s.opts.BatchSize, s.opts.TTL); err != nil {
		return fmt.Errorf("writing term hash: %w", err)
	}
	if err := s.client.WriteHash(ctx, s.DocsKey(runID), pairs(set.Documents), s.opts.BatchSize, s.opts.TTL); err != nil {
		return fmt.Errorf("writing document hash: %w", err)
	}
	if err := s.client.Set(ctx, s.LatestKey(), runID, s.opts.TTL); err != nil {
		return fmt.Errorf("updating %s: %w", s.LatestKey(), err)
	}
	s.logger.Info("dictionary published to redis",
		"run_id", runID,
		"terms", set.Terms.Len(),
		"documents", set.Documents.Len(),
	)
	return nil
}

func pairs(d *dictionary.Dictionary) []any {
	out := make([]any, 0, 2*d.Len())
	for key, id := range d.All() {
		out = append(out, key, id)
	}
	return out
}
