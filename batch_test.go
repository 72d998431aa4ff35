package adaptive_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/segmentio/adaptive"
	"github.com/segmentio/adaptive/adaptivetest"
)

func TestTryLock(t *testing.T) {
	a := adaptive.MustNew[int32](10)
	defer a.Dispose()

	b, ok := a.TryLock()
	require.True(t, ok)

	_, ok = a.TryLock()
	assert.False(t, ok, "the contention lock is exclusive")

	v, err := b.Add(5)
	require.NoError(t, err)
	assert.Equal(t, int32(15), v)

	v, err = b.Increment()
	require.NoError(t, err)
	assert.Equal(t, int32(16), v)

	prev, err := b.CompareExchange(32, 16)
	require.NoError(t, err)
	assert.Equal(t, int32(16), prev)

	v, err = b.RightShift(1)
	require.NoError(t, err)
	assert.Equal(t, int32(16), v)

	require.NoError(t, b.Write(7))
	v, err = b.Read()
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	b.Unlock()
	b.Unlock()

	_, err = b.Read()
	assert.ErrorIs(t, err, adaptive.ErrBatchClosed)
	_, err = b.Decrement()
	assert.ErrorIs(t, err, adaptive.ErrBatchClosed)

	c, ok := a.TryLock()
	require.True(t, ok)
	c.Unlock()

	assert.Equal(t, uint64(6), a.Stats().Ops[adaptive.Contended])
}

func TestTryLockDisposed(t *testing.T) {
	alloc := &adaptivetest.Allocator{}
	a := adaptive.MustNew[uint64](1, adaptive.WithAllocator(alloc))

	b, ok := a.TryLock()
	require.True(t, ok)

	require.NoError(t, a.Dispose())
	assert.Equal(t, 0, alloc.Frees(), "a held batch keeps the storage alive")

	_, err := b.Increment()
	require.NoError(t, err)

	b.Unlock()
	assert.Equal(t, 1, alloc.Frees())

	_, ok = a.TryLock()
	assert.False(t, ok)

	_, err = a.Lock()
	assert.ErrorIs(t, err, adaptive.ErrDisposed)
}

func TestBatchSerializesContendedHolders(t *testing.T) {
	const workers = 4
	const iterations = 200

	a := adaptive.MustNew[uint16](0)
	defer a.Dispose()
	adaptivetest.Hold(t, a, 2)

	var g errgroup.Group
	for i := 0; i != workers; i++ {
		g.Go(func() error {
			for j := 0; j != iterations; j++ {
				err := a.Batch(func(b *adaptive.Batch[uint16]) error {
					v, err := b.Read()
					if err != nil {
						return err
					}
					// A contended holder cannot observe the intermediate value.
					if err := b.Write(v + 1); err != nil {
						return err
					}
					_, err = b.Increment()
					return err
				})
				if err != nil {
					return err
				}
				if _, err := a.Add(0); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	v, err := a.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(2*workers*iterations), v)
}

func TestBatchOrdersContendedIncrements(t *testing.T) {
	t.Run("int64", testBatchOrdersContendedIncrements[int64])
	t.Run("uint64", testBatchOrdersContendedIncrements[uint64])
	t.Run("int32", testBatchOrdersContendedIncrements[int32])
	t.Run("float64", testBatchOrdersContendedIncrements[float64])
}

func testBatchOrdersContendedIncrements[T adaptive.Number](t *testing.T) {
	a := adaptive.MustNew[T](0)
	defer a.Dispose()
	adaptivetest.Hold(t, a, 2)
	require.Equal(t, adaptive.Contended, a.Tier())

	read := make(chan struct{})
	var g errgroup.Group

	g.Go(func() error {
		return a.Batch(func(b *adaptive.Batch[T]) error {
			v, err := b.Read()
			if err != nil {
				return err
			}
			close(read)
			time.Sleep(50 * time.Millisecond)
			return b.Write(v + 1)
		})
	})

	g.Go(func() error {
		<-read
		if _, err := a.Increment(); err != nil {
			return err
		}
		_, err := a.Decrement()
		if err != nil {
			return err
		}
		_, err = a.Increment()
		return err
	})
	require.NoError(t, g.Wait())

	v, err := a.Read()
	require.NoError(t, err)
	assert.Equal(t, T(2), v)
	assert.Zero(t, a.Stats().Ops[adaptive.Solo]+a.Stats().Ops[adaptive.Shared])
}

func TestBatchError(t *testing.T) {
	a := adaptive.MustNew[int8](1)
	defer a.Dispose()

	errStop := errors.New("stop")
	err := a.Batch(func(b *adaptive.Batch[int8]) error {
		if _, err := b.Not(); err != nil {
			return err
		}
		return errStop
	})
	assert.ErrorIs(t, err, errStop)

	// The lock was released.
	b, ok := a.TryLock()
	require.True(t, ok)
	defer b.Unlock()

	v, err := b.Read()
	require.NoError(t, err)
	assert.Equal(t, int8(-2), v)
}
