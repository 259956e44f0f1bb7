// Package idallocator hands out integer identifiers for ledger records.
package idallocator

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/go-petr/bibliotech/internal/domain"
	"github.com/rs/zerolog"
)

//go:generate mockgen -source allocator.go -destination allocator_mock.go -package idallocator

// Source reports the largest identifier already persisted for a record class.
type Source interface {
	MaxID(ctx context.Context, class domain.RecordClass) (int32, error)
}

// Allocator issues identifiers one above the largest known one.
//
// All calls in the process are serialized by one mutex. Identifiers that were
// issued but not persisted yet are remembered per class, so concurrent callers
// never receive the same value. Other processes writing to the same store are
// not coordinated, use RedisAllocator for that.
type Allocator struct {
	mu     sync.Mutex
	src    Source
	issued map[domain.RecordClass]int32
}

// New returns Allocator reading persisted maxima from src.
func New(src Source) *Allocator {
	return &Allocator{
		src:    src,
		issued: make(map[domain.RecordClass]int32),
	}
}

// Allocate returns the next identifier for class.
func (a *Allocator) Allocate(ctx context.Context, class domain.RecordClass) (int32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stored, err := a.src.MaxID(ctx, class)
	if err != nil {
		return 0, err
	}

	last := stored
	if issued := a.issued[class]; issued > last {
		last = issued
	}

	if last == math.MaxInt32 {
		zerolog.Ctx(ctx).Error().Str("class", string(class)).Msg("identifier space exhausted")
		return 0, fmt.Errorf("allocate %s id: %w", class, domain.ErrIDSpaceExhausted)
	}

	a.issued[class] = last + 1

	return last + 1, nil
}
