package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "notification:event"

// EventLedger records provider event ids that were applied to a payment. Entries expire
// after ttl; the provider stops redelivering long before that.
type EventLedger struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewEventLedger(redis redis.Cmdable, ttl time.Duration) *EventLedger {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &EventLedger{redis: redis, ttl: ttl}
}

// Seen reports whether eventID was remembered and has not expired.
func (l *EventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.redis.Exists(ctx, redisKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup event %s: %w", eventID, err)
	}
	return n > 0, nil
}

// Remember marks eventID as applied. Remembering an id twice keeps the first timestamp.
func (l *EventLedger) Remember(ctx context.Context, eventID string) error {
	err := l.redis.SetNX(ctx, redisKey(eventID), time.Now().UTC().Format(time.RFC3339), l.ttl).Err()
	if err != nil {
		return fmt.Errorf("remember event %s: %w", eventID, err)
	}
	return nil
}

func redisKey(eventID string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, eventID)
}
