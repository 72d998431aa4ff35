package adaptive

import (
	"reflect"

	"github.com/segmentio/adaptive/bitcodec"
)

// Kind identifies the element type of an atomic.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var kindNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

var kindBits = [...]uint{
	Int8:    8,
	Int16:   16,
	Int32:   32,
	Int64:   64,
	Uint8:   8,
	Uint16:  16,
	Uint32:  32,
	Uint64:  64,
	Float32: 32,
	Float64: 64,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[Invalid]
}

// Bits returns the width of the element type.
func (k Kind) Bits() uint {
	if int(k) < len(kindBits) {
		return kindBits[k]
	}
	return 0
}

// Repr returns the representation used to store values of the kind.
func (k Kind) Repr() Repr {
	switch k {
	case Int8, Int16, Int32, Int64:
		return SignedInt64
	case Uint8, Uint16, Uint32, Uint64:
		return UnsignedInt64
	case Float32, Float64:
		return FloatBits
	default:
		return 0
	}
}

// ParseKind returns the kind named s, or Invalid.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return Kind(k)
		}
	}
	return Invalid
}

// Repr is the representation of a value in the 64 bits of the storage cell.
type Repr uint8

const (
	// SignedInt64 values are stored sign-extended to 64 bits.
	SignedInt64 Repr = iota + 1
	// UnsignedInt64 values are stored zero-extended to 64 bits.
	UnsignedInt64
	// FloatBits values are stored as their IEEE-754 bit pattern in the low
	// 32 or 64 bits.
	FloatBits
)

func (r Repr) String() string {
	switch r {
	case SignedInt64:
		return "signed"
	case UnsignedInt64:
		return "unsigned"
	case FloatBits:
		return "float"
	default:
		return "invalid"
	}
}

// kindOf resolves the kind of T from its underlying type. int, uint and
// uintptr are rejected since their width depends on the platform.
func kindOf[T Number]() Kind {
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	default:
		return Invalid
	}
}

func toRaw[T Number](k Kind, v T) (uint64, error) {
	switch k.Repr() {
	case SignedInt64:
		return uint64(int64(v)), nil
	case UnsignedInt64:
		return uint64(v), nil
	case FloatBits:
		if k == Float32 {
			bits, err := bitcodec.EncodeFloat32(float32(v))
			return uint64(bits), codecError(err)
		}
		bits, err := bitcodec.EncodeFloat64(float64(v))
		return bits, codecError(err)
	default:
		return 0, ErrUnsupportedType
	}
}

func fromRaw[T Number](k Kind, raw uint64) (T, error) {
	switch k.Repr() {
	case SignedInt64:
		return T(int64(raw)), nil
	case UnsignedInt64:
		return T(raw), nil
	case FloatBits:
		if k == Float32 {
			f, err := bitcodec.DecodeFloat32(uint32(raw))
			return T(f), codecError(err)
		}
		f, err := bitcodec.DecodeFloat64(raw)
		return T(f), codecError(err)
	default:
		return 0, ErrUnsupportedType
	}
}
