package outbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/nivedithavs/trendora-backend/pkg/db/models"
)

const defaultPublishTimeout = 15 * time.Second

// PubSubSink delivers drained outbox rows to a Pub/Sub topic. Consumers key
// off the message attributes, the payload is the outbox row's JSON envelope.
type PubSubSink struct {
	client         *pubsub.Client
	publisher      *pubsub.Publisher
	publishTimeout time.Duration
}

// NewPubSubSink creates a Pub/Sub client bound to the configured topic. The
// topic may be a bare ID or a full projects/<p>/topics/<t> resource name.
func NewPubSubSink(ctx context.Context, projectID, topic string, publishTimeout time.Duration) (*PubSubSink, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("gcp project id is required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("pubsub topic is required")
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	name := topic
	if !strings.HasPrefix(name, "projects/") {
		name = fmt.Sprintf("projects/%s/topics/%s", projectID, topic)
	}
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}

	return &PubSubSink{
		client:         client,
		publisher:      client.Publisher(name),
		publishTimeout: publishTimeout,
	}, nil
}

func (s *PubSubSink) Publish(ctx context.Context, event models.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	result := s.publisher.Publish(ctx, &pubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       event.ID.String(),
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing event %s: %w", event.ID, err)
	}
	return nil
}

// Close flushes pending publishes and releases the underlying client.
func (s *PubSubSink) Close() error {
	s.publisher.Stop()
	return s.client.Close()
}
