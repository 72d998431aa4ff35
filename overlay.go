package adaptive

// opSet provides the named operations on top of a single dispatch function,
// it is embedded by the types exposing an alternate call path.
type opSet[T Number] struct {
	do func(Op, T) (T, error)
}

func (s opSet[T]) Add(v T) (T, error) { return s.do(OpAdd, v) }
func (s opSet[T]) Subtract(v T) (T, error) { return s.do(OpSubtract, v) }
func (s opSet[T]) Multiply(v T) (T, error) { return s.do(OpMultiply, v) }
func (s opSet[T]) Divide(v T) (T, error) { return s.do(OpDivide, v) }
func (s opSet[T]) Modulus(v T) (T, error) { return s.do(OpModulus, v) }
func (s opSet[T]) And(v T) (T, error) { return s.do(OpAnd, v) }
func (s opSet[T]) Or(v T) (T, error) { return s.do(OpOr, v) }
func (s opSet[T]) Xor(v T) (T, error) { return s.do(OpXor, v) }
func (s opSet[T]) Not() (T, error) { return s.do(OpNot, 0) }
func (s opSet[T]) LeftShift(n T) (T, error) { return s.do(OpLeftShift, n) }
func (s opSet[T]) RightShift(n T) (T, error) { return s.do(OpRightShift, n) }
func (s opSet[T]) RotateLeft(n T) (T, error) { return s.do(OpRotateLeft, n) }
func (s opSet[T]) RotateRight(n T) (T, error) { return s.do(OpRotateRight, n) }
func (s opSet[T]) Apply(op Op, v T) (T, error) { return s.do(op, v) }

// Overlay exposes the operations of an atomic as pure functions: results are
// computed from the current value and returned, the atomic is never
// modified. It is the counterpart of infix operators, while the methods of
// Atomic with the same names are read-modify-write operations.
//
//	a := adaptive.MustNew[int32](10)
//	a.Pure().Add(5) // 15, a still holds 10
//	a.Add(5)        // 15, a now holds 15
type Overlay[T Number] struct {
	opSet[T]
	parent *Atomic[T]
}

// Pure returns the pure overlay of a.
func (a *Atomic[T]) Pure() Overlay[T] {
	return Overlay[T]{opSet: opSet[T]{do: a.compute}, parent: a}
}

// Read returns the current value of the underlying atomic.
func (o Overlay[T]) Read() (T, error) { return o.parent.Read() }

// Increment returns the current value plus one.
func (o Overlay[T]) Increment() (T, error) { return o.do(OpAdd, 1) }

// Decrement returns the current value minus one.
func (o Overlay[T]) Decrement() (T, error) { return o.do(OpSubtract, 1) }
