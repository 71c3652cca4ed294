package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/seranote/seranote/internal/shared"
)

// RedisBroker is a [Broker] backed by redis pub/sub, so events reach viewers
// connected to any server instance.
type RedisBroker struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedisBroker creates a new RedisBroker from the realtime section of the config
func NewRedisBroker(cfg shared.RedisConfig, logger *log.Logger) (*RedisBroker, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: redis addr is required", shared.ErrMissingConfig)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBroker{client: client, logger: logger}, nil
}

// Publish encodes the event as JSON and publishes it on the redis channel.
func (b *RedisBroker) Publish(ctx context.Context, channel string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe opens a redis subscription and decodes incoming payloads. Payloads
// that fail to decode are logged and skipped.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan Event, 32)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("skipping undecodable event", "channel", channel, "error", err)
				continue
			}
			select {
			case out <- event:
			default:
				b.logger.Warn("dropped event for slow subscriber", "channel", channel)
			}
		}
	}()

	return &Subscription{
		C:     out,
		close: func() { pubsub.Close() },
	}, nil
}

// Close closes the underlying redis client.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}
