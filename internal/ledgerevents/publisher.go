// Package ledgerevents publishes settled ledger transactions for downstream consumers.
package ledgerevents

import (
	"context"
	"encoding/json"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RedisPublisher appends events as JSON to a redis list.
type RedisPublisher struct {
	rdb   redis.Cmdable
	queue string
}

// NewRedisPublisher returns RedisPublisher writing to the queue list.
func NewRedisPublisher(rdb redis.Cmdable, queue string) *RedisPublisher {
	return &RedisPublisher{
		rdb:   rdb,
		queue: queue,
	}
}

// Publish appends event to the tail of the queue.
func (p *RedisPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.rdb.RPush(ctx, p.queue, payload).Err(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", p.queue).Send()
		return err
	}

	return nil
}

// Nop drops every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, domain.LedgerEvent) error {
	return nil
}
