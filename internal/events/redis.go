package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/parto-platform/pkg/logging"
)

const defaultChannelPrefix = "parto:events:"

// RedisPublisher publishes events on one pub/sub channel per event type.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	if client == nil {
		panic("events: redis client required")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultChannelPrefix
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the channel name for an event type.
func (p *RedisPublisher) Channel(t Type) string {
	return p.prefix + string(t)
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(evt.Type), data).Err(); err != nil {
		return fmt.Errorf("events: redis publish %s: %w", evt.Type, err)
	}
	return nil
}

// RedisRelay forwards events from Redis pub/sub into a local publisher so
// every API instance can serve live updates regardless of which instance
// delivered the outbox row.
type RedisRelay struct {
	client *redis.Client
	prefix string
	target Publisher
	logger *logging.Logger
}

func NewRedisRelay(client *redis.Client, prefix string, target Publisher, logger *logging.Logger) *RedisRelay {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultChannelPrefix
	}
	return &RedisRelay{client: client, prefix: prefix, target: target, logger: logger}
}

// Run blocks until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	if r.client == nil || r.target == nil {
		return
	}
	sub := r.client.PSubscribe(ctx, r.prefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				r.logger.Warn("dropping malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			if err := r.target.Publish(ctx, evt); err != nil {
				r.logger.Warn("relay publish failed", "event_id", evt.ID, "type", evt.Type, "error", err)
			}
		}
	}
}
