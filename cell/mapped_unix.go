//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cell

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mapped allocates every cell on its own anonymous private memory mapping,
// outside of the Go heap. Pages are always aligned far beyond Align, the
// mapping is unmapped when the cell is freed.
type Mapped struct{}

// Alloc satisfies the Allocator interface.
func (Mapped) Alloc() (*Cell, error) {
	mem, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap: %w", ErrAllocation, err)
	}
	return newCell(unsafe.Pointer(&mem[0]), func() error {
		if err := unix.Munmap(mem); err != nil {
			return fmt.Errorf("cell: munmap: %w", err)
		}
		return nil
	}), nil
}
