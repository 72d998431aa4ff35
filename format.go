package adaptive

import (
	"fmt"

	"github.com/segmentio/encoding/json"
	"github.com/segmentio/fasthash/fnv1a"
)

// String returns a human readable representation of the atomic, made of its
// current value, kind and reference count.
func (a *Atomic[T]) String() string {
	if a == nil || a.cell == nil {
		return "<nil>"
	}
	v, err := a.Read()
	if err != nil {
		return fmt.Sprintf("<disposed> (%s, refs=%d)", a.kind, a.Refs())
	}
	return fmt.Sprintf("%v (%s, refs=%d)", v, a.kind, a.Refs())
}

// Equal reports whether a and b hold the same value with the same reference
// count. Disposed atomics are only equal to themselves.
func (a *Atomic[T]) Equal(b *Atomic[T]) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind || a.Refs() != b.Refs() {
		return false
	}
	x, err := a.raw()
	if err != nil {
		return false
	}
	y, err := b.raw()
	if err != nil {
		return false
	}
	return x == y
}

// Hash returns a hash of the value, reference count and kind of the atomic,
// consistent with Equal.
func (a *Atomic[T]) Hash() uint64 {
	h := fnv1a.Init64
	if a == nil {
		return h
	}
	if raw, err := a.raw(); err == nil {
		h = fnv1a.AddUint64(h, raw)
	}
	h = fnv1a.AddUint64(h, uint64(a.Refs()))
	h = fnv1a.AddUint64(h, uint64(a.kind))
	return h
}

// raw returns the canonical representation of the current value.
func (a *Atomic[T]) raw() (uint64, error) {
	exit, err := a.enter()
	if err != nil {
		return 0, err
	}
	defer exit()
	return a.cell.Load(), nil
}

// MarshalJSON encodes the current value.
func (a *Atomic[T]) MarshalJSON() ([]byte, error) {
	v, err := a.Read()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes b and writes the value to the atomic, which must have
// been created with New.
func (a *Atomic[T]) UnmarshalJSON(b []byte) error {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return a.Write(v)
}
