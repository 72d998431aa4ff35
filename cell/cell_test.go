package cell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var allocators = []struct {
	name  string
	alloc Allocator
}{
	{name: "heap", alloc: Heap{}},
	{name: "mapped", alloc: Mapped{}},
}

func forEachAllocator(t *testing.T, test func(*testing.T, *Cell)) {
	for _, a := range allocators {
		t.Run(a.name, func(t *testing.T) {
			c, err := a.alloc.Alloc()
			require.NoError(t, err)
			defer c.Free()
			test(t, c)
		})
	}
}

func TestCellAlignment(t *testing.T) {
	forEachAllocator(t, func(t *testing.T, c *Cell) {
		assert.Zero(t, c.Addr()%Align, "cell address %#x is not aligned", c.Addr())
		assert.Zero(t, c.Load(), "fresh cells must be zeroed")
	})
}

func TestCellLoadStore(t *testing.T) {
	forEachAllocator(t, func(t *testing.T, c *Cell) {
		c.Store(42)
		assert.Equal(t, uint64(42), c.Load())
		assert.Equal(t, uint64(42), c.InterlockedLoad())
		assert.Equal(t, uint64(42), c.Swap(7))
		assert.Equal(t, uint64(7), c.Load())
		assert.Equal(t, uint64(9), c.Add(2))
		assert.Equal(t, uint64(8), c.Add(^uint64(0)))
	})
}

func TestCellCompareExchange(t *testing.T) {
	forEachAllocator(t, func(t *testing.T, c *Cell) {
		c.Store(10)

		assert.Equal(t, uint64(10), c.CompareExchange(10, 20), "matching exchange returns the expected value")
		assert.Equal(t, uint64(20), c.Load())

		assert.Equal(t, uint64(20), c.CompareExchange(10, 30), "mismatching exchange returns the current value")
		assert.Equal(t, uint64(20), c.Load())

		assert.True(t, c.CompareAndSwap(20, 1))
		assert.False(t, c.CompareAndSwap(20, 2))
	})
}

func TestCellConcurrentAdd(t *testing.T) {
	forEachAllocator(t, func(t *testing.T, c *Cell) {
		const workers, iterations = 8, 1000
		var group errgroup.Group

		for i := 0; i != workers; i++ {
			group.Go(func() error {
				for j := 0; j != iterations; j++ {
					c.Add(1)
				}
				return nil
			})
		}

		require.NoError(t, group.Wait())
		assert.Equal(t, uint64(workers*iterations), c.Load())
	})
}

func TestCellFreeOnce(t *testing.T) {
	for _, a := range allocators {
		t.Run(a.name, func(t *testing.T) {
			c, err := a.alloc.Alloc()
			require.NoError(t, err)

			calls := 0
			c.OnFree(func() { calls++ })

			require.NoError(t, c.Free())
			assert.True(t, c.Freed())
			assert.ErrorIs(t, c.Free(), ErrFreed)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestAllocatorFunc(t *testing.T) {
	fail := AllocatorFunc(func() (*Cell, error) { return nil, ErrAllocation })

	_, err := fail.Alloc()
	assert.True(t, errors.Is(err, ErrAllocation))
}
