//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package cell

// Mapped falls back to heap allocation on platforms without anonymous
// memory mappings.
type Mapped struct{}

// Alloc satisfies the Allocator interface.
func (Mapped) Alloc() (*Cell, error) { return Heap{}.Alloc() }
