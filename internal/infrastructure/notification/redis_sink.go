package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	apptrade "github.com/retail-erp/backend/internal/application/trade"
)

const eventChannel = "erp:sale-events"

// RedisNotificationSink publishes sale events on a Redis pub/sub channel.
// Consumers that are offline miss events; the sales tables remain the source
// of truth.
type RedisNotificationSink struct {
	client *redis.Client
}

// NewRedisNotificationSink creates a new sink on the given client
func NewRedisNotificationSink(client *redis.Client) *RedisNotificationSink {
	return &RedisNotificationSink{client: client}
}

// Notify publishes the event as JSON
func (s *RedisNotificationSink) Notify(ctx context.Context, event apptrade.SaleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sale event: %w", err)
	}
	if err := s.client.Publish(ctx, eventChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish sale event: %w", err)
	}
	return nil
}

var _ apptrade.NotificationSink = (*RedisNotificationSink)(nil)
