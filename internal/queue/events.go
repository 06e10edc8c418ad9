package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lifecycle events published for dashboards and display boards.
type EventType string

const (
	EventQueueCreated      EventType = "queue.created"
	EventQueueDeactivated  EventType = "queue.deactivated"
	EventCustomerJoined    EventType = "customer.joined"
	EventCustomerCalled    EventType = "customer.called"
	EventCustomerCompleted EventType = "customer.completed"
	EventCustomerCancelled EventType = "customer.cancelled"
	EventCustomerNoShow    EventType = "customer.no_show"
)

type Event struct {
	Type            EventType `json:"type"`
	OrganizationID  string    `json:"organization_id"`
	QueueID         string    `json:"queue_id"`
	QueueCustomerID string    `json:"queue_customer_id,omitempty"`
	At              time.Time `json:"at"`
}

// RedisPublisher fans events out over Redis pub/sub. One channel per
// queue plus an organization-wide firehose, so a display board can
// subscribe to exactly the queue it renders.
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: "sqipit:events"}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("queue: marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, fmt.Sprintf("%s:queue:%s", p.prefix, e.QueueID), payload).Err(); err != nil {
		return fmt.Errorf("queue: publish event: %w", err)
	}
	if e.OrganizationID != "" {
		if err := p.rdb.Publish(ctx, fmt.Sprintf("%s:org:%s", p.prefix, e.OrganizationID), payload).Err(); err != nil {
			return fmt.Errorf("queue: publish event: %w", err)
		}
	}
	return nil
}
