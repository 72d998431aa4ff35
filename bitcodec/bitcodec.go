// Package bitcodec converts 32 and 64 bit floating point values to and from
// their IEEE-754 bit patterns.
//
// The conversions never reinterpret memory: the sign, exponent and mantissa
// fields are extracted with shifts and masks and the value is rebuilt with
// ordinary floating point arithmetic (and the reverse direction goes through
// log2/pow). The codec is exact for every finite value of both widths,
// subnormals included.
//
// NaN and infinities have no arithmetic decomposition. Encode rejects them
// with ErrNonFinite, and decoding a bit pattern whose exponent field is all
// ones yields whatever the formula produces; callers must not rely on it.
package bitcodec

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrFieldRange is returned when a sign, exponent or mantissa field does
	// not fit the width reserved for it by the format.
	ErrFieldRange = errors.New("bitcodec: field value out of range")

	// ErrNonFinite is returned when encoding NaN or an infinity, or a value
	// whose exponent does not fit the target format.
	ErrNonFinite = errors.New("bitcodec: value is not finite")
)

// Fields is the decomposition of a floating point bit pattern. The exponent
// is the biased value stored in the bit pattern.
type Fields struct {
	Sign     uint64
	Exponent uint64
	Mantissa uint64
}

type layout struct {
	name     string
	expBits  uint
	mantBits uint
	bias     int
}

var (
	binary32 = layout{name: "binary32", expBits: 8, mantBits: 23, bias: 127}
	binary64 = layout{name: "binary64", expBits: 11, mantBits: 52, bias: 1023}
)

func (l layout) expMax() uint64   { return 1<<l.expBits - 1 }
func (l layout) mantMax() uint64  { return 1<<l.mantBits - 1 }
func (l layout) signShift() uint  { return l.expBits + l.mantBits }
func (l layout) scale() float64   { return pow2(int(l.mantBits)) }
func (l layout) minNormal() int   { return 1 - l.bias }
func (l layout) maxExponent() int { return int(l.expMax()) - 1 - l.bias }

func (l layout) split(bits uint64) Fields {
	return Fields{
		Sign:     bits >> l.signShift() & 1,
		Exponent: bits >> l.mantBits & l.expMax(),
		Mantissa: bits & l.mantMax(),
	}
}

func (l layout) check(f Fields) error {
	switch {
	case f.Sign > 1:
		return l.rangeError("sign", f.Sign, 1)
	case f.Exponent > l.expMax():
		return l.rangeError("exponent", f.Exponent, l.expMax())
	case f.Mantissa > l.mantMax():
		return l.rangeError("mantissa", f.Mantissa, l.mantMax())
	}
	return nil
}

func (l layout) rangeError(field string, v, max uint64) error {
	return fmt.Errorf("%w: %s %s field %#x exceeds %#x", ErrFieldRange, l.name, field, v, max)
}

func (l layout) join(f Fields) (uint64, error) {
	if err := l.check(f); err != nil {
		return 0, err
	}
	return f.Sign<<l.signShift() | f.Exponent<<l.mantBits | f.Mantissa, nil
}

func (l layout) decode(bits uint64) (float64, error) {
	f := l.split(bits)
	if err := l.check(f); err != nil {
		return 0, err
	}

	sign := 1.0
	if f.Sign == 1 {
		sign = -1.0
	}

	frac := float64(f.Mantissa) / l.scale()

	if f.Exponent == 0 {
		if f.Mantissa == 0 {
			return sign * 0, nil
		}
		return sign * frac * pow2(l.minNormal()), nil
	}

	return sign * (1 + frac) * pow2(int(f.Exponent)-l.bias), nil
}

func (l layout) encode(v float64) (uint64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, v)
	}

	var sign uint64
	if v < 0 {
		sign, v = 1, -v
	}

	if v == 0 {
		return l.join(Fields{Sign: sign})
	}

	exp := int(math.Floor(math.Log2(v)))

	// log2 is not exact next to powers of two, the normalized ratio must land
	// in [1, 2) before the mantissa is extracted.
	for v < pow2(exp) {
		exp--
	}
	for v >= pow2(exp+1) {
		exp++
	}

	if exp < l.minNormal() {
		m := math.Round(v * pow2(l.bias-1) * l.scale())
		if m > float64(l.mantMax()) {
			return l.join(Fields{Sign: sign, Exponent: 1})
		}
		return l.join(Fields{Sign: sign, Mantissa: uint64(m)})
	}

	m := math.Round((v/pow2(exp) - 1) * l.scale())
	if m > float64(l.mantMax()) {
		m, exp = 0, exp+1
	}

	if exp > l.maxExponent() {
		return 0, fmt.Errorf("%w: %v overflows %s", ErrNonFinite, v, l.name)
	}

	return l.join(Fields{
		Sign:     sign,
		Exponent: uint64(exp + l.bias),
		Mantissa: uint64(m),
	})
}

func pow2(exp int) float64 { return math.Pow(2, float64(exp)) }

// DecodeFloat32 rebuilds the float32 value of a binary32 bit pattern.
func DecodeFloat32(bits uint32) (float32, error) {
	f, err := binary32.decode(uint64(bits))
	return float32(f), err
}

// EncodeFloat32 returns the binary32 bit pattern of v.
func EncodeFloat32(v float32) (uint32, error) {
	bits, err := binary32.encode(float64(v))
	return uint32(bits), err
}

// DecodeFloat64 rebuilds the float64 value of a binary64 bit pattern.
func DecodeFloat64(bits uint64) (float64, error) {
	return binary64.decode(bits)
}

// EncodeFloat64 returns the binary64 bit pattern of v.
func EncodeFloat64(v float64) (uint64, error) {
	return binary64.encode(v)
}

// Split32 decomposes a binary32 bit pattern.
func Split32(bits uint32) Fields { return binary32.split(uint64(bits)) }

// Split64 decomposes a binary64 bit pattern.
func Split64(bits uint64) Fields { return binary64.split(bits) }

// Join32 packs fields into a binary32 bit pattern, it fails with
// ErrFieldRange if one of the fields does not fit.
func Join32(f Fields) (uint32, error) {
	bits, err := binary32.join(f)
	return uint32(bits), err
}

// Join64 packs fields into a binary64 bit pattern, it fails with
// ErrFieldRange if one of the fields does not fit.
func Join64(f Fields) (uint64, error) {
	return binary64.join(f)
}
