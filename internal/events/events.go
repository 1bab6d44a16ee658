// Package events announces finished dictionary builds on Kafka so downstream
// indexers can pick up the new id space.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/logger"
)

type EventType string

const EventDictionaryBuilt EventType = "dictionary_built"

type DictionaryBuilt struct {
	Type        EventType `json:"type"`
	RunID       string    `json:"run_id"`
	Corpus      string    `json:"corpus"`
	Output      string    `json:"output"`
	Files       int       `json:"files"`
	FailedFiles int       `json:"failed_files"`
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	RawTerms    int       `json:"raw_terms"`
	DurationMs  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Producer is satisfied by *kafka.Producer.
type Producer interface {
	Publish(ctx context.Context, event kafka.Event) error
	Ping(ctx context.Context) error
}

type Publisher struct {
	producer Producer
	logger   *slog.Logger
}

func NewPublisher(producer Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   logger.WithComponent("events"),
	}
}

func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Ping(ctx context.Context) error {
	return p.producer.Ping(ctx)
}

// PublishBuilt sends ev keyed by its run ID, filling in the type and a
// missing timestamp.
func (p *Publisher) PublishBuilt(ctx context.Context, ev DictionaryBuilt) error {
	ev.Type = EventDictionaryBuilt
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if err := p.producer.Publish(ctx, kafka.Event{Key: ev.RunID, Value: ev}); err != nil {
		return fmt.Errorf("publishing %s for run %s: %w", ev.Type, ev.RunID, err)
	}
	p.logger.Info("build event published", "run_id", ev.RunID, "terms", ev.Terms, "documents", ev.Documents)
	return nil
}
