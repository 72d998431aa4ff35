// Package cell provides address-stable, 16 byte aligned storage for a single
// 64 bit machine word.
//
// A Cell exposes the word only through atomic accessors, the program never
// gets a pointer to the underlying memory. The remaining bytes of the aligned
// region are reserved and never read or written.
//
// Cells are obtained from an Allocator and must be freed exactly once:
//
//	c, err := cell.Heap{}.Alloc()
//	if err != nil {
//		return err
//	}
//	defer c.Free()
package cell

import (
	"errors"
	"sync/atomic"
	"unsafe"
)

const (
	// Size is the number of bytes reserved for a cell.
	Size = 16

	// Align is the alignment guaranteed for the address of a cell.
	Align = 16
)

var (
	// ErrAllocation is returned by allocators that could not obtain memory
	// for a cell.
	ErrAllocation = errors.New("cell: allocation failure")

	// ErrFreed is returned by Free when the cell was already released.
	ErrFreed = errors.New("cell: already freed")
)

// An Allocator hands out cells.
type Allocator interface {
	Alloc() (*Cell, error)
}

// AllocatorFunc makes it possible to use regular functions as Allocator.
type AllocatorFunc func() (*Cell, error)

// Alloc calls f.
func (f AllocatorFunc) Alloc() (*Cell, error) { return f() }

// Cell is a 64 bit word stored at an aligned address which never moves until
// the cell is freed.
type Cell struct {
	word    *uint64
	release func() error
	onFree  []func()
	freed   atomic.Bool
}

func newCell(p unsafe.Pointer, release func() error) *Cell {
	return &Cell{word: (*uint64)(p), release: release}
}

// Addr returns the address of the cell, it is only meant to be used for
// diagnostics.
func (c *Cell) Addr() uintptr { return uintptr(unsafe.Pointer(c.word)) }

// Load atomically loads the word.
func (c *Cell) Load() uint64 { return atomic.LoadUint64(c.word) }

// Store atomically stores v.
func (c *Cell) Store(v uint64) { atomic.StoreUint64(c.word, v) }

// InterlockedLoad loads the word with a locked read-modify-write instruction,
// which acts as a full fence on every architecture.
func (c *Cell) InterlockedLoad() uint64 { return atomic.AddUint64(c.word, 0) }

// Swap atomically stores v and returns the previous value.
func (c *Cell) Swap(v uint64) uint64 { return atomic.SwapUint64(c.word, v) }

// Add atomically adds delta to the word and returns the new value.
func (c *Cell) Add(delta uint64) uint64 { return atomic.AddUint64(c.word, delta) }

// CompareAndSwap executes the compare-and-swap operation on the word.
func (c *Cell) CompareAndSwap(old, new uint64) bool {
	return atomic.CompareAndSwapUint64(c.word, old, new)
}

// CompareExchange stores new if the word equals expected. It always returns
// the value that the word held at the time the exchange was decided, the
// exchange happened if and only if that value equals expected.
func (c *Cell) CompareExchange(expected, new uint64) uint64 {
	for {
		if prev := c.Load(); prev != expected {
			return prev
		}
		if c.CompareAndSwap(expected, new) {
			return expected
		}
	}
}

// OnFree registers fn to be called when the cell is freed. It must be called
// before the cell is shared with other goroutines.
func (c *Cell) OnFree(fn func()) { c.onFree = append(c.onFree, fn) }

// Freed reports whether Free was called.
func (c *Cell) Freed() bool { return c.freed.Load() }

// Free releases the memory of the cell. Only the first call has an effect,
// subsequent calls return ErrFreed.
func (c *Cell) Free() error {
	if !c.freed.CompareAndSwap(false, true) {
		return ErrFreed
	}
	for _, fn := range c.onFree {
		fn()
	}
	return c.release()
}
