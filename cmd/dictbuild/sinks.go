package main

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/events"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/store/redisstore"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/internal/store/sqlstore"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/sqlite"
)

// outputs holds the enabled sinks and everything that must be closed on exit.
type outputs struct {
	sinks     []indexer.Sink
	announcer indexer.Announcer
	closers   []func() error
}

func (o *outputs) Close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			slog.Warn("closing sink", "error", err)
		}
	}
}

func unavailable(name string, err error) error {
	return apperrors.Newf(apperrors.ErrSinkUnavailable, apperrors.ExitUnavailable, "%s: %v", name, err)
}

// openOutputs connects every sink enabled in cfg. On error the sinks opened
// so far are closed.
func openOutputs(ctx context.Context, cfg *config.Config) (out *outputs, err error) {
	out = &outputs{}
	defer func() {
		if err != nil {
			out.Close()
			out = nil
		}
	}()

	if cfg.Postgres.Enabled {
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return out, unavailable("postgres", err)
		}
		out.closers = append(out.closers, client.Close)
		store := sqlstore.New(client.DB, sqlstore.Postgres)
		if err := store.EnsureSchema(ctx); err != nil {
			return out, unavailable("postgres", err)
		}
		out.sinks = append(out.sinks, store)
	}

	if cfg.SQLite.Enabled {
		client, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return out, unavailable("sqlite", err)
		}
		out.closers = append(out.closers, client.Close)
		store := sqlstore.New(client.DB, sqlstore.SQLite)
		if err := store.EnsureSchema(ctx); err != nil {
			return out, unavailable("sqlite", err)
		}
		out.sinks = append(out.sinks, store)
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return out, unavailable("redis", err)
		}
		out.closers = append(out.closers, client.Close)
		out.sinks = append(out.sinks, redisstore.New(client, redisstore.Options{
			KeyPrefix: cfg.Redis.KeyPrefix,
			BatchSize: cfg.Redis.BatchSize,
			TTL:       cfg.Redis.TTL,
		}))
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DictionaryBuilt)
		out.closers = append(out.closers, producer.Close)
		out.announcer = events.NewPublisher(producer)
	}
	return out, nil
}
