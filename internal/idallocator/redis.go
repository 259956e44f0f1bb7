package idallocator

import (
	"context"
	"fmt"
	"math"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/go-petr/bibliotech/pkg/errorspkg"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// KeyPrefix prefixes the redis counter of every record class.
const KeyPrefix = "ledger:ids:"

// RedisAllocator issues identifiers from a redis counter shared by all processes.
//
// A missing counter is seeded with the largest persisted identifier, so the
// sequence continues after records written before the counter existed.
type RedisAllocator struct {
	rdb redis.Cmdable
	src Source
}

// NewRedis returns RedisAllocator.
func NewRedis(rdb redis.Cmdable, src Source) *RedisAllocator {
	return &RedisAllocator{
		rdb: rdb,
		src: src,
	}
}

// Key returns the counter key of class.
func Key(class domain.RecordClass) string {
	return KeyPrefix + string(class)
}

// Allocate returns the next identifier for class.
func (a *RedisAllocator) Allocate(ctx context.Context, class domain.RecordClass) (int32, error) {
	l := zerolog.Ctx(ctx)
	key := Key(class)

	exists, err := a.rdb.Exists(ctx, key).Result()
	if err != nil {
		l.Error().Err(err).Str("key", key).Send()
		return 0, errorspkg.ErrInternal
	}

	if exists == 0 {
		stored, err := a.src.MaxID(ctx, class)
		if err != nil {
			return 0, err
		}

		// Losing the race is fine, the winner seeded the same or a later value.
		if err := a.rdb.SetNX(ctx, key, stored, 0).Err(); err != nil {
			l.Error().Err(err).Str("key", key).Send()
			return 0, errorspkg.ErrInternal
		}
	}

	id, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		l.Error().Err(err).Str("key", key).Send()
		return 0, errorspkg.ErrInternal
	}

	if id > math.MaxInt32 {
		l.Error().Str("class", string(class)).Int64("id", id).Msg("identifier space exhausted")
		return 0, fmt.Errorf("allocate %s id: %w", class, domain.ErrIDSpaceExhausted)
	}

	return int32(id), nil
}
