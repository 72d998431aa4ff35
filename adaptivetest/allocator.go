package adaptivetest

import (
	"sync/atomic"

	"github.com/segmentio/adaptive/cell"
)

var _ cell.Allocator = (*Allocator)(nil)

// Allocator is a cell allocator that records allocations and releases for
// inspection.
type Allocator struct {
	// Base allocates the cells, cell.Heap is used when nil.
	Base cell.Allocator

	// Err, when set, is returned by every call to Alloc.
	Err error

	allocs int32
	frees  int32
}

// Alloc satisfies the cell.Allocator interface.
func (a *Allocator) Alloc() (*cell.Cell, error) {
	if a.Err != nil {
		return nil, a.Err
	}

	base := a.Base
	if base == nil {
		base = cell.Heap{}
	}

	c, err := base.Alloc()
	if err != nil {
		return nil, err
	}

	atomic.AddInt32(&a.allocs, 1)
	c.OnFree(func() { atomic.AddInt32(&a.frees, 1) })
	return c, nil
}

// Allocs returns the number of cells handed out.
func (a *Allocator) Allocs() int { return int(atomic.LoadInt32(&a.allocs)) }

// Frees returns the number of cells released.
func (a *Allocator) Frees() int { return int(atomic.LoadInt32(&a.frees)) }

// Live returns the number of cells handed out and not released yet.
func (a *Allocator) Live() int { return a.Allocs() - a.Frees() }
