package worker

import (
	"context"
	"errors"
)

var ErrPoolSaturated = errors.New("worker pool has no free slots")

// Pool is a counting semaphore used to bound the number of concurrent
// download transfers the service will run. Each transfer must acquire a
// slot before starting and release it once the transfer concludes.
//
// Unlike a queueing pool, a saturated Pool rejects immediately via
// TryAcquire - callers holding an open HTTP connection are better served
// by a fast rejection than by waiting with no progress to report.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool with the given number of slots. A size below
// one is treated as one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}

	return &Pool{slots: make(chan struct{}, size)}
}

// TryAcquire claims a slot without blocking. ErrPoolSaturated is
// returned if every slot is in use.
func (pool *Pool) TryAcquire() error {
	select {
	case pool.slots <- struct{}{}:
		return nil
	default:
		return ErrPoolSaturated
	}
}

// Acquire claims a slot, blocking until one is free or the provided
// context is cancelled.
func (pool *Pool) Acquire(ctx context.Context) error {
	select {
	case pool.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a previously acquired slot to the pool. Releasing
// more slots than were acquired is a programming error and panics.
func (pool *Pool) Release() {
	select {
	case <-pool.slots:
	default:
		panic("worker: release of unacquired pool slot")
	}
}

// Free reports the number of slots currently available.
func (pool *Pool) Free() int {
	return cap(pool.slots) - len(pool.slots)
}
