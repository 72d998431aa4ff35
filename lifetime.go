package adaptive

import (
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
)

// AddReference declares a new holder of the atomic. It fails with
// ErrDisposed once the reference count reached zero, disposed atomics cannot
// be resurrected, and with ErrRefOverflow if the count is at its maximum.
func (a *Atomic[T]) AddReference() error {
	if a == nil || a.cell == nil {
		return ErrUninitialized
	}

	for {
		n := a.refs.Load()
		switch n {
		case 0:
			return ErrDisposed
		case math.MaxUint32:
			return ErrRefOverflow
		}
		if a.refs.CompareAndSwap(n, n+1) {
			h := a.holders.Add(1)
			a.observe(h-1, h, n+1)
			return nil
		}
	}
}

// Release removes a holder of the atomic. The storage is disposed when the
// last reference is released, releasing more references than were added
// fails with ErrRefUnderflow.
func (a *Atomic[T]) Release() error {
	if a == nil || a.cell == nil {
		return ErrUninitialized
	}

	for {
		n := a.refs.Load()
		if n == 0 {
			return ErrRefUnderflow
		}
		if a.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				return a.Dispose()
			}
			h := a.holders.Add(-1)
			a.observe(h+1, h, n-1)
			return nil
		}
	}
}

// observe logs tier transitions caused by a change in the number of holders.
func (a *Atomic[T]) observe(from, to int32, refs uint32) {
	prev, next := a.tierFor(from), a.tierFor(to)
	if prev == next {
		return
	}
	a.log.WithFields(logrus.Fields{
		"refs":    refs,
		"holders": to,
		"tier":    next.String(),
		"from":    prev.String(),
	}).Debug("adaptive: tier changed")
}

func (a *Atomic[T]) tierFor(holders int32) Tier {
	if a.tiering == nil {
		return TierOf(int(holders))
	}
	return a.tiering(int(holders))
}

// Dispose releases the storage of the atomic regardless of the reference
// count. Operations in flight complete before the storage is freed, any
// operation started afterwards fails with ErrDisposed. Calling Dispose more
// than once is a no-op.
func (a *Atomic[T]) Dispose() error {
	if a == nil || a.cell == nil {
		return nil
	}
	if !a.disposed.CompareAndSwap(false, true) {
		return nil
	}

	a.refs.Store(0)
	a.holders.Store(0)
	runtime.SetFinalizer(a, nil)

	a.log.Debug("adaptive: disposed")
	return a.free()
}
