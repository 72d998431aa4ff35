// Package adaptive provides Atomic, a container for a single fixed width
// integer or floating point value that can be shared between goroutines.
//
// The synchronization used by each operation adapts to the number of holders
// of the atomic:
//
//	holders   tier        synchronization
//	1         Solo        atomic loads and stores
//	2         Shared      locked instructions (full fence) for every access
//	3+        Contended   hybrid spin-then-block contention lock
//
// Holders are declared with AddReference and Release, which also drive the
// lifetime of the atomic: once the reference count drops to zero the storage
// cell is freed and every further operation fails with ErrDisposed.
//
// Read-modify-write operations always commit with a compare-and-swap, so an
// operation that selected a stale tier while holders were being added or
// released can never lose an update; tiers only change the cost of the
// operation.
//
// Floating point values are converted to and from their bit patterns by the
// bitcodec package.
package adaptive

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/constraints"

	"github.com/segmentio/adaptive/cell"
)

// Number is the set of types that an atomic may be instantiated with. Only
// the fixed width kinds are accepted by New, int, uint and uintptr fail with
// ErrUnsupportedType.
type Number interface {
	constraints.Integer | constraints.Float
}

// Atomic is a value of type T shared between holders. Atomic values must be
// created by New.
type Atomic[T Number] struct {
	kind    Kind
	cell    *cell.Cell
	lock    contentionLock
	tiering func(int) Tier
	log     logrus.FieldLogger

	// refs drives the lifetime and holders selects the tier. AddReference
	// and Release move them together, holders is kept apart so that tier
	// selection never races with the compare-and-swap deciding disposal.
	refs     atomic.Uint32
	holders  atomic.Int32
	inflight atomic.Int64
	disposed atomic.Bool

	stats counters
}

// New creates an atomic holding initial, with a reference count of one.
func New[T Number](initial T, options ...Option) (a *Atomic[T], err error) {
	kind := kindOf[T]()
	if kind == Invalid {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, reflect.TypeOf((*T)(nil)).Elem())
	}

	config := Config{}
	for _, opt := range options {
		opt(&config)
	}
	config.setDefaults()

	c, err := config.Allocator.Alloc()
	if err != nil {
		if !errors.Is(err, ErrAllocation) {
			err = fmt.Errorf("%w: %w", ErrAllocation, err)
		}
		return nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, c.Free())
		}
	}()

	raw, err := toRaw(kind, initial)
	if err != nil {
		return nil, err
	}
	c.Store(raw)

	a = &Atomic[T]{
		kind:    kind,
		cell:    c,
		lock:    makeContentionLock(config.SpinLimit, config.MaxBackoff),
		tiering: config.Tiering,
		log:     config.Logger.WithField("kind", kind.String()),
	}
	a.refs.Store(1)
	a.holders.Store(1)

	runtime.SetFinalizer(a, (*Atomic[T]).Dispose)
	return a, nil
}

// MustNew is like New but panics if the atomic cannot be created.
func MustNew[T Number](initial T, options ...Option) *Atomic[T] {
	a, err := New(initial, options...)
	if err != nil {
		panic(err)
	}
	return a
}

// Kind returns the kind of the element type.
func (a *Atomic[T]) Kind() Kind { return a.kind }

// Repr returns the representation of values in the storage cell.
func (a *Atomic[T]) Repr() Repr { return a.kind.Repr() }

// Refs returns the current reference count.
func (a *Atomic[T]) Refs() uint32 { return a.refs.Load() }

// Disposed reports whether the storage of the atomic was released.
func (a *Atomic[T]) Disposed() bool { return a.disposed.Load() }

// Tier returns the tier that an operation started now would use.
func (a *Atomic[T]) Tier() Tier { return a.tierFor(a.holders.Load()) }

// enter registers an operation in flight, the storage cell cannot be freed
// until the returned function is called.
func (a *Atomic[T]) enter() (exit func(), err error) {
	if a == nil || a.cell == nil {
		return nil, ErrUninitialized
	}
	a.inflight.Add(1)
	if a.disposed.Load() {
		a.exit()
		return nil, ErrDisposed
	}
	return a.exit, nil
}

func (a *Atomic[T]) exit() {
	if a.inflight.Add(-1) == 0 && a.disposed.Load() {
		a.free()
	}
}

func (a *Atomic[T]) free() error {
	if a.inflight.Load() != 0 {
		return nil
	}
	switch err := a.cell.Free(); err {
	case nil:
		a.log.Debug("adaptive: storage released")
		return nil
	case cell.ErrFreed:
		return nil
	default:
		a.log.WithError(err).Warn("adaptive: releasing storage failed")
		return err
	}
}

// load reads the raw cell with the synchronization of tier t. Contended loads
// must be made while holding the contention lock.
func (a *Atomic[T]) load(t Tier) uint64 {
	if t == Shared {
		return a.cell.InterlockedLoad()
	}
	return a.cell.Load()
}

func (a *Atomic[T]) store(t Tier, raw uint64) {
	if t == Shared {
		a.cell.Swap(raw)
		return
	}
	a.cell.Store(raw)
}

// acquire selects the tier of an operation and takes the contention lock if
// needed.
func (a *Atomic[T]) acquire() (Tier, func()) {
	t := a.Tier()
	a.stats.op(t)
	if t != Contended {
		return t, func() {}
	}
	a.lock.lock(&a.stats)
	return t, a.lock.unlock
}

// Read returns the current value.
func (a *Atomic[T]) Read() (v T, err error) {
	exit, err := a.enter()
	if err != nil {
		return v, err
	}
	defer exit()

	t, unlock := a.acquire()
	raw := a.load(t)
	unlock()
	return fromRaw[T](a.kind, raw)
}

// Write sets the value to v.
func (a *Atomic[T]) Write(v T) error {
	exit, err := a.enter()
	if err != nil {
		return err
	}
	defer exit()

	raw, err := toRaw(a.kind, v)
	if err != nil {
		return err
	}

	t, unlock := a.acquire()
	a.store(t, raw)
	unlock()
	return nil
}

// Swap sets the value to v and returns the previous value.
func (a *Atomic[T]) Swap(v T) (old T, err error) {
	exit, err := a.enter()
	if err != nil {
		return old, err
	}
	defer exit()

	raw, err := toRaw(a.kind, v)
	if err != nil {
		return old, err
	}

	_, unlock := a.acquire()
	defer unlock()
	return fromRaw[T](a.kind, a.cell.Swap(raw))
}

// CompareExchange sets the value to new if it is equal to expected, and
// returns the value held before the operation; the exchange happened if and
// only if it equals expected. Floating point values are compared by bit
// pattern. The hardware compare-and-swap is used regardless of the tier.
func (a *Atomic[T]) CompareExchange(new, expected T) (prev T, err error) {
	exit, err := a.enter()
	if err != nil {
		return prev, err
	}
	defer exit()

	rawNew, err := toRaw(a.kind, new)
	if err != nil {
		return prev, err
	}
	rawExpected, err := toRaw(a.kind, expected)
	if err != nil {
		return prev, err
	}

	a.stats.op(a.Tier())
	return fromRaw[T](a.kind, a.cell.CompareExchange(rawExpected, rawNew))
}

// Increment adds one to the value and returns the new value.
func (a *Atomic[T]) Increment() (T, error) { return a.step(1) }

// Decrement subtracts one from the value and returns the new value.
func (a *Atomic[T]) Decrement() (T, error) { return a.step(math.MaxUint64) }

// step adds delta with the hardware add when the raw representation wraps
// like T does, which is only true of 64 bit integers. In the Contended tier
// the add is made with the contention lock held, so it cannot land between a
// read and a write made by a batch.
func (a *Atomic[T]) step(delta uint64) (v T, err error) {
	if a.kind.Repr() == FloatBits || a.kind.Bits() != 64 {
		operand := T(1)
		op := OpAdd
		if delta != 1 {
			op = OpSubtract
		}
		return a.apply(op, operand)
	}

	exit, err := a.enter()
	if err != nil {
		return v, err
	}
	defer exit()

	_, unlock := a.acquire()
	defer unlock()
	return fromRaw[T](a.kind, a.cell.Add(delta))
}

// apply is the mutating call path: the result is computed from the current
// value and committed.
func (a *Atomic[T]) apply(op Op, operand T) (v T, err error) {
	exit, err := a.enter()
	if err != nil {
		return v, err
	}
	defer exit()

	t, unlock := a.acquire()
	defer unlock()
	return a.update(t, op, operand)
}

// update runs the read-modify-write cycle of op. The first read uses the
// synchronization of tier t, the result is committed with a compare-and-swap
// and recomputed if the value changed in the meantime.
func (a *Atomic[T]) update(t Tier, op Op, operand T) (T, error) {
	old := a.load(t)

	for {
		cur, err := fromRaw[T](a.kind, old)
		if err != nil {
			return cur, err
		}

		res, err := compute(a.kind, op, cur, operand)
		if err != nil {
			return res, err
		}

		raw, err := toRaw(a.kind, res)
		if err != nil {
			return res, err
		}

		if a.cell.CompareAndSwap(old, raw) {
			return res, nil
		}

		a.stats.casRetries.Add(1)
		old = a.cell.Load()
	}
}

// compute is the pure call path: the result is computed from the current
// value and returned without being committed.
func (a *Atomic[T]) compute(op Op, operand T) (v T, err error) {
	exit, err := a.enter()
	if err != nil {
		return v, err
	}
	defer exit()

	t, unlock := a.acquire()
	raw := a.load(t)
	unlock()

	cur, err := fromRaw[T](a.kind, raw)
	if err != nil {
		return cur, err
	}
	return compute(a.kind, op, cur, operand)
}

// Apply executes op with operand, commits the result and returns it.
func (a *Atomic[T]) Apply(op Op, operand T) (T, error) { return a.apply(op, operand) }

// Compute executes op with operand and returns the result without committing
// it.
func (a *Atomic[T]) Compute(op Op, operand T) (T, error) { return a.compute(op, operand) }

// Add adds v to the value and returns the result.
func (a *Atomic[T]) Add(v T) (T, error) { return a.apply(OpAdd, v) }

// Subtract subtracts v from the value and returns the result.
func (a *Atomic[T]) Subtract(v T) (T, error) { return a.apply(OpSubtract, v) }

// Multiply multiplies the value by v and returns the result.
func (a *Atomic[T]) Multiply(v T) (T, error) { return a.apply(OpMultiply, v) }

// Divide divides the value by v and returns the result. Integer division by
// zero fails with ErrDivideByZero.
func (a *Atomic[T]) Divide(v T) (T, error) { return a.apply(OpDivide, v) }

// Modulus sets the value to the remainder of its division by v.
func (a *Atomic[T]) Modulus(v T) (T, error) { return a.apply(OpModulus, v) }

// And sets the value to the bitwise and of the value and v.
func (a *Atomic[T]) And(v T) (T, error) { return a.apply(OpAnd, v) }

// Or sets the value to the bitwise or of the value and v.
func (a *Atomic[T]) Or(v T) (T, error) { return a.apply(OpOr, v) }

// Xor sets the value to the bitwise exclusive or of the value and v.
func (a *Atomic[T]) Xor(v T) (T, error) { return a.apply(OpXor, v) }

// Not inverts all bits of the value.
func (a *Atomic[T]) Not() (T, error) { return a.apply(OpNot, 0) }

// LeftShift shifts the value left by n bits. The sign bit of the result is
// always cleared.
func (a *Atomic[T]) LeftShift(n T) (T, error) { return a.apply(OpLeftShift, n) }

// RightShift shifts the value right by n bits (arithmetic shift for signed
// kinds). The sign bit of the result is always cleared.
func (a *Atomic[T]) RightShift(n T) (T, error) { return a.apply(OpRightShift, n) }

// RotateLeft rotates the bits of the value left by n.
func (a *Atomic[T]) RotateLeft(n T) (T, error) { return a.apply(OpRotateLeft, n) }

// RotateRight rotates the bits of the value right by n.
func (a *Atomic[T]) RotateRight(n T) (T, error) { return a.apply(OpRotateRight, n) }

// Stats returns a snapshot of the state and activity of the atomic.
func (a *Atomic[T]) Stats() Stats {
	s := Stats{
		Kind:     a.kind,
		Refs:     a.refs.Load(),
		Holders:  a.holders.Load(),
		Tier:     a.Tier(),
		Disposed: a.disposed.Load(),
	}
	a.stats.snapshot(&s)

	if exit, err := a.enter(); err == nil {
		if v, err := fromRaw[T](a.kind, a.cell.Load()); err == nil {
			s.Value = float64(v)
		}
		exit()
	}
	return s
}
