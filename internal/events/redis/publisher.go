package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/avern/vidfeed-server/internal/config"
	"github.com/avern/vidfeed-server/internal/model"
)

var _ model.Publisher = (*Publisher)(nil)

// Publisher fans events out over Redis pub/sub. Each event kind maps to its
// own channel under a common prefix so downstream consumers can subscribe
// selectively.
type Publisher struct {
	client *redis.Client
	prefix string
}

// NewPublisher connects to Redis and verifies the connection.
func NewPublisher(ctx context.Context, cfg config.Redis) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewPublisherWithClient(client, cfg.ChannelPrefix), nil
}

// NewPublisherWithClient wraps an existing client.
func NewPublisherWithClient(client *redis.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

// Publish serializes the payload as JSON and publishes it to the channel for
// the given event kind. Delivery is at-most-once: there is no ack and no
// retry, subscribers that are offline miss the event.
func (p *Publisher) Publish(ctx context.Context, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel(kind), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) channel(kind string) string {
	return p.prefix + "." + kind
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
