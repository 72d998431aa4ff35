package adaptive

import "sync/atomic"

// Batch is an exclusive section on the contention lock of an atomic. All
// operations made through a batch are ordered with respect to each other and
// to operations made by holders in the Contended tier, Increment and
// Decrement included.
//
// CompareExchange never takes the contention lock: a holder calling it may
// change the value between a Read and a Write of the batch. Operations made
// by holders which selected a cheaper tier are not blocked by a batch either,
// they never overwrite the result of a read-modify-write made inside of it.
//
// The contention lock is not reentrant: while a batch is held, the methods of
// the atomic itself must not be called from the same goroutine if they may
// select the Contended tier.
type Batch[T Number] struct {
	opSet[T]
	parent *Atomic[T]
	exit   func()
	done   atomic.Bool
}

// TryLock attempts to acquire the contention lock without blocking. On
// success the returned batch holds the lock until Unlock is called.
func (a *Atomic[T]) TryLock() (*Batch[T], bool) {
	exit, err := a.enter()
	if err != nil {
		return nil, false
	}
	if !a.lock.tryLock() {
		exit()
		return nil, false
	}
	return a.newBatch(exit), true
}

// Lock acquires the contention lock, spinning then blocking until it is
// available.
func (a *Atomic[T]) Lock() (*Batch[T], error) {
	exit, err := a.enter()
	if err != nil {
		return nil, err
	}
	a.lock.lock(&a.stats)
	return a.newBatch(exit), nil
}

// Batch calls fn with the contention lock held.
func (a *Atomic[T]) Batch(fn func(*Batch[T]) error) error {
	b, err := a.Lock()
	if err != nil {
		return err
	}
	defer b.Unlock()
	return fn(b)
}

func (a *Atomic[T]) newBatch(exit func()) *Batch[T] {
	b := &Batch[T]{parent: a, exit: exit}
	b.do = b.apply
	return b
}

func (b *Batch[T]) enter() error {
	if b.done.Load() {
		return ErrBatchClosed
	}
	b.parent.stats.op(Contended)
	return nil
}

func (b *Batch[T]) apply(op Op, v T) (T, error) {
	if err := b.enter(); err != nil {
		return 0, err
	}
	return b.parent.update(Contended, op, v)
}

// Read returns the current value.
func (b *Batch[T]) Read() (T, error) {
	if err := b.enter(); err != nil {
		return 0, err
	}
	return fromRaw[T](b.parent.kind, b.parent.cell.Load())
}

// Write sets the value to v.
func (b *Batch[T]) Write(v T) error {
	if err := b.enter(); err != nil {
		return err
	}
	raw, err := toRaw(b.parent.kind, v)
	if err != nil {
		return err
	}
	b.parent.cell.Store(raw)
	return nil
}

// CompareExchange behaves like Atomic.CompareExchange.
func (b *Batch[T]) CompareExchange(new, expected T) (T, error) {
	if err := b.enter(); err != nil {
		return 0, err
	}
	k := b.parent.kind
	rawNew, err := toRaw(k, new)
	if err != nil {
		return 0, err
	}
	rawExpected, err := toRaw(k, expected)
	if err != nil {
		return 0, err
	}
	return fromRaw[T](k, b.parent.cell.CompareExchange(rawExpected, rawNew))
}

// Increment adds one to the value and returns the new value.
func (b *Batch[T]) Increment() (T, error) { return b.apply(OpAdd, 1) }

// Decrement subtracts one from the value and returns the new value.
func (b *Batch[T]) Decrement() (T, error) { return b.apply(OpSubtract, 1) }

// Unlock releases the contention lock. Operations on the batch fail with
// ErrBatchClosed afterwards, and calling Unlock again is a no-op.
func (b *Batch[T]) Unlock() {
	if b.done.CompareAndSwap(false, true) {
		b.parent.lock.unlock()
		b.exit()
	}
}
