package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nivedithavs/trendora-backend/pkg/config"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
)

// EventSink delivers a drained outbox row to downstream consumers.
type EventSink interface {
	Publish(ctx context.Context, event models.OutboxEvent) error
}

// LogSink writes events to the structured log. It is the default sink when
// no Pub/Sub topic is configured.
type LogSink struct {
	Logger *logger.Logger
}

func (s LogSink) Publish(ctx context.Context, event models.OutboxEvent) error {
	if s.Logger == nil {
		return errors.New("log sink requires a logger")
	}
	ctx = s.Logger.WithFields(ctx, map[string]any{
		"event_id":       event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
	})
	s.Logger.Info(ctx, "outbox event published")
	return nil
}

// Publisher drains unpublished outbox rows on an interval.
type Publisher struct {
	repo *Repository
	sink EventSink
	cfg  config.OutboxConfig
	logg *logger.Logger
}

func NewPublisher(repo *Repository, sink EventSink, cfg config.OutboxConfig, logg *logger.Logger) (*Publisher, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	return &Publisher{repo: repo, sink: sink, cfg: cfg, logg: logg}, nil
}

// Run polls until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	interval := time.Duration(p.cfg.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.DrainOnce(ctx); err != nil {
			p.logg.Error(ctx, "outbox drain failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// DrainOnce publishes one batch and reports how many rows were handled.
// Rows past the attempt ceiling are skipped and left for operator review.
func (p *Publisher) DrainOnce(ctx context.Context) (int, error) {
	rows, err := p.repo.FetchUnpublished(p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished: %w", err)
	}

	published := 0
	for _, row := range rows {
		if p.cfg.MaxAttempts > 0 && row.AttemptCount >= p.cfg.MaxAttempts {
			continue
		}
		if err := p.sink.Publish(ctx, row); err != nil {
			if markErr := p.repo.MarkFailed(row.ID, err); markErr != nil {
				p.logg.Error(ctx, "marking outbox row failed", markErr)
			}
			continue
		}
		if err := p.repo.MarkPublished(row.ID); err != nil {
			return published, fmt.Errorf("mark published: %w", err)
		}
		published++
	}
	return published, nil
}
