package adaptive

import (
	"fmt"
	"math"
	"math/bits"
)

// Op identifies an arithmetic, bitwise or rotate operation.
type Op uint8

const (
	OpAdd Op = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
	OpModulus
	OpAnd
	OpOr
	OpXor
	OpNot
	OpLeftShift
	OpRightShift
	OpRotateLeft
	OpRotateRight
)

var opNames = [...]string{
	OpAdd:         "add",
	OpSubtract:    "subtract",
	OpMultiply:    "multiply",
	OpDivide:      "divide",
	OpModulus:     "modulus",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpNot:         "not",
	OpLeftShift:   "left_shift",
	OpRightShift:  "right_shift",
	OpRotateLeft:  "rotate_left",
	OpRotateRight: "rotate_right",
}

func (op Op) String() string {
	if op.valid() {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

func (op Op) valid() bool { return op >= OpAdd && op <= OpRotateRight }

// Bitwise reports whether op operates on the bits of integers, these
// operations are not available on floating point kinds.
func (op Op) Bitwise() bool { return op >= OpAnd && op <= OpRotateRight }

// compute is the arithmetic core shared by the pure and mutating call paths.
func compute[T Number](k Kind, op Op, cur, operand T) (T, error) {
	if !op.valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownOp, op)
	}

	if k.Repr() == FloatBits {
		return computeFloat(op, cur, operand)
	}

	switch op {
	case OpAdd:
		return cur + operand, nil
	case OpSubtract:
		return cur - operand, nil
	case OpMultiply:
		return cur * operand, nil
	case OpDivide:
		if operand == 0 {
			return 0, ErrDivideByZero
		}
		return cur / operand, nil
	}

	if k.Repr() == SignedInt64 {
		r, err := computeSigned(k.Bits(), op, int64(cur), int64(operand))
		return T(r), err
	}
	r, err := computeUnsigned(k.Bits(), op, uint64(cur), uint64(operand))
	return T(r), err
}

func computeFloat[T Number](op Op, cur, operand T) (T, error) {
	switch op {
	case OpAdd:
		return cur + operand, nil
	case OpSubtract:
		return cur - operand, nil
	case OpMultiply:
		return cur * operand, nil
	case OpDivide:
		return cur / operand, nil
	case OpModulus:
		return T(math.Mod(float64(cur), float64(operand))), nil
	default:
		return 0, ErrFloatBitwise
	}
}

func computeSigned(width uint, op Op, cur, operand int64) (int64, error) {
	switch op {
	case OpModulus:
		if operand == 0 {
			return 0, ErrDivideByZero
		}
		return cur % operand, nil
	case OpAnd:
		return cur & operand, nil
	case OpOr:
		return cur | operand, nil
	case OpXor:
		return cur ^ operand, nil
	case OpNot:
		return ^cur, nil
	}

	if operand < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeShift, operand)
	}
	n := uint64(operand)

	switch op {
	case OpLeftShift:
		return truncSigned(width, cur<<n) & maxSigned(width), nil
	case OpRightShift:
		return truncSigned(width, cur>>n) & maxSigned(width), nil
	case OpRotateLeft:
		return rotateSigned(width, cur, int(n%uint64(width))), nil
	default: // OpRotateRight
		return rotateSigned(width, cur, -int(n%uint64(width))), nil
	}
}

func computeUnsigned(width uint, op Op, cur, operand uint64) (uint64, error) {
	switch op {
	case OpModulus:
		if operand == 0 {
			return 0, ErrDivideByZero
		}
		return cur % operand, nil
	case OpAnd:
		return cur & operand, nil
	case OpOr:
		return cur | operand, nil
	case OpXor:
		return cur ^ operand, nil
	case OpNot:
		return ^cur, nil
	case OpLeftShift:
		return truncUnsigned(width, cur<<operand) & uint64(maxSigned(width)), nil
	case OpRightShift:
		return truncUnsigned(width, cur>>operand) & uint64(maxSigned(width)), nil
	case OpRotateLeft:
		return rotateUnsigned(width, cur, int(operand%uint64(width))), nil
	default: // OpRotateRight
		return rotateUnsigned(width, cur, -int(operand%uint64(width))), nil
	}
}

// rotateSigned rotates the low width bits of v by k (right when negative).
// Non-negative values rotate through plain shifts, negative values through
// their unsigned reinterpretation.
func rotateSigned(width uint, v int64, k int) int64 {
	if v >= 0 {
		s := uint(k+int(width)) % width
		return truncSigned(width, v<<s|v>>(width-s))
	}
	return truncSigned(width, int64(rotateBits(width, uint64(v)&mask(width), k)))
}

func rotateUnsigned(width uint, v uint64, k int) uint64 {
	return rotateBits(width, v, k)
}

func rotateBits(width uint, v uint64, k int) uint64 {
	switch width {
	case 8:
		return uint64(bits.RotateLeft8(uint8(v), k))
	case 16:
		return uint64(bits.RotateLeft16(uint16(v), k))
	case 32:
		return uint64(bits.RotateLeft32(uint32(v), k))
	default:
		return bits.RotateLeft64(v, k)
	}
}

func mask(width uint) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return 1<<width - 1
}

func maxSigned(width uint) int64 { return int64(mask(width) >> 1) }

func truncSigned(width uint, v int64) int64 {
	switch width {
	case 8:
		return int64(int8(v))
	case 16:
		return int64(int16(v))
	case 32:
		return int64(int32(v))
	default:
		return v
	}
}

func truncUnsigned(width uint, v uint64) uint64 { return v & mask(width) }
