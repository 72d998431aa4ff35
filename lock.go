package adaptive

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// contentionLock is a hybrid lock: acquisition first spins on a non-blocking
// attempt with exponential backoff, then parks the goroutine on the
// semaphore.
type contentionLock struct {
	sem        *semaphore.Weighted
	spinLimit  int
	maxBackoff int
}

func makeContentionLock(spinLimit, maxBackoff int) contentionLock {
	return contentionLock{
		sem:        semaphore.NewWeighted(1),
		spinLimit:  spinLimit,
		maxBackoff: maxBackoff,
	}
}

func (l *contentionLock) lock(c *counters) {
	backoff := 1

	for i := 0; i < l.spinLimit; i++ {
		if l.sem.TryAcquire(1) {
			return
		}
		c.spins.Add(1)

		for j := 0; j < backoff; j++ {
			runtime.Gosched()
		}
		backoff = min(2*backoff, l.maxBackoff)
	}

	c.blocks.Add(1)
	// Acquire only fails when the context is canceled.
	_ = l.sem.Acquire(context.Background(), 1)
}

func (l *contentionLock) tryLock() bool { return l.sem.TryAcquire(1) }

func (l *contentionLock) unlock() { l.sem.Release(1) }
