package cell

import (
	"runtime"
	"unsafe"
)

// Heap allocates cells from the Go heap. The backing array is over-allocated
// so an aligned region can be carved out of it, and it is pinned until the
// cell is freed.
type Heap struct{}

// Alloc satisfies the Allocator interface.
func (Heap) Alloc() (*Cell, error) {
	buf := new([(Size + Align) / 8]uint64)
	base := unsafe.Pointer(buf)
	off := (Align - uintptr(base)%Align) % Align

	pinner := new(runtime.Pinner)
	pinner.Pin(buf)

	return newCell(unsafe.Add(base, off), func() error {
		pinner.Unpin()
		return nil
	}), nil
}
