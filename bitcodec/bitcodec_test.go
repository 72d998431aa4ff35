package bitcodec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var float32Values = []float32{
	0,
	1,
	-1,
	0.5,
	0.1,
	-0.1,
	1.5,
	2,
	3,
	10,
	-123.456,
	1 << 24,
	math.MaxFloat32,
	-math.MaxFloat32,
	math.SmallestNonzeroFloat32,
	-math.SmallestNonzeroFloat32,
	1.1754942e-38, // largest subnormal
	1.17549435e-38, // smallest normal
	math.Nextafter32(1, 2),
	math.Nextafter32(2, 0),
	math.Pi,
}

var float64Values = []float64{
	0,
	1,
	-1,
	0.1,
	0.2,
	0.3,
	-2.5,
	1e300,
	-1e-300,
	1 << 53,
	math.MaxFloat64,
	-math.MaxFloat64,
	math.SmallestNonzeroFloat64,
	2.2250738585072009e-308, // largest subnormal
	2.2250738585072014e-308, // smallest normal
	math.Nextafter(1, 2),
	math.Nextafter(4, 0),
	math.E,
}

func TestEncodeFloat32(t *testing.T) {
	for _, v := range float32Values {
		bits, err := EncodeFloat32(v)
		require.NoError(t, err, "encode %v", v)
		assert.Equal(t, math.Float32bits(v), bits, "encode %v", v)
	}
}

func TestEncodeFloat64(t *testing.T) {
	for _, v := range float64Values {
		bits, err := EncodeFloat64(v)
		require.NoError(t, err, "encode %v", v)
		assert.Equal(t, math.Float64bits(v), bits, "encode %v", v)
	}
}

func TestDecodeFloat32(t *testing.T) {
	for _, v := range float32Values {
		f, err := DecodeFloat32(math.Float32bits(v))
		require.NoError(t, err)
		assert.Equal(t, v, f, "decode %#x", math.Float32bits(v))
	}
}

func TestDecodeFloat64(t *testing.T) {
	for _, v := range float64Values {
		f, err := DecodeFloat64(math.Float64bits(v))
		require.NoError(t, err)
		assert.Equal(t, v, f, "decode %#x", math.Float64bits(v))
	}
}

func TestDecodeNegativeZero(t *testing.T) {
	f, err := DecodeFloat32(0x80000000)
	require.NoError(t, err)
	assert.Zero(t, f)
	assert.True(t, math.Signbit(float64(f)))

	d, err := DecodeFloat64(1 << 63)
	require.NoError(t, err)
	assert.Zero(t, d)
	assert.True(t, math.Signbit(d))
}

func TestEncodeNegativeZero(t *testing.T) {
	// The sign is taken from v < 0, negative zero encodes like positive zero.
	bits, err := EncodeFloat64(math.Copysign(0, -1))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bits)
}

func TestRoundTripRandom(t *testing.T) {
	prng := rand.New(rand.NewSource(1))

	for i := 0; i != 10000; i++ {
		bits32 := prng.Uint32()
		if Split32(bits32).Exponent == binary32.expMax() {
			continue
		}
		v32 := math.Float32frombits(bits32)
		enc32, err := EncodeFloat32(v32)
		require.NoError(t, err)
		dec32, err := DecodeFloat32(enc32)
		require.NoError(t, err)
		require.Equal(t, v32, dec32, "binary32 %#x", bits32)

		bits64 := prng.Uint64()
		if Split64(bits64).Exponent == binary64.expMax() {
			continue
		}
		v64 := math.Float64frombits(bits64)
		enc64, err := EncodeFloat64(v64)
		require.NoError(t, err)
		dec64, err := DecodeFloat64(enc64)
		require.NoError(t, err)
		require.Equal(t, v64, dec64, "binary64 %#x", bits64)
	}
}

func TestEncodeNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := EncodeFloat64(v)
		assert.ErrorIs(t, err, ErrNonFinite, "encode %v", v)

		_, err = EncodeFloat32(float32(v))
		assert.ErrorIs(t, err, ErrNonFinite, "encode %v", v)
	}
}

func TestSplit(t *testing.T) {
	assert.Equal(t, Fields{Sign: 0, Exponent: 127, Mantissa: 0}, Split32(math.Float32bits(1)))
	assert.Equal(t, Fields{Sign: 1, Exponent: 128, Mantissa: 1 << 22}, Split32(math.Float32bits(-3)))
	assert.Equal(t, Fields{Sign: 0, Exponent: 0, Mantissa: 1}, Split64(1))
	assert.Equal(t, Fields{Sign: 1, Exponent: 1023, Mantissa: 0}, Split64(math.Float64bits(-1)))
}

func TestJoin(t *testing.T) {
	bits, err := Join32(Fields{Sign: 1, Exponent: 128, Mantissa: 1 << 22})
	require.NoError(t, err)
	assert.Equal(t, math.Float32bits(-3), bits)

	tests := []struct {
		name   string
		fields Fields
	}{
		{name: "sign", fields: Fields{Sign: 2}},
		{name: "exponent", fields: Fields{Exponent: 1 << 11}},
		{name: "mantissa", fields: Fields{Mantissa: 1 << 52}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Join64(test.fields)
			assert.ErrorIs(t, err, ErrFieldRange)
			assert.Contains(t, err.Error(), test.name)
		})
	}

	_, err = Join32(Fields{Exponent: 256})
	assert.ErrorIs(t, err, ErrFieldRange)
}

func BenchmarkCodec(b *testing.B) {
	b.Run("EncodeFloat64", func(b *testing.B) {
		for i := 0; i != b.N; i++ {
			EncodeFloat64(float64(i) + 0.5)
		}
	})

	b.Run("DecodeFloat64", func(b *testing.B) {
		for i := 0; i != b.N; i++ {
			DecodeFloat64(uint64(i))
		}
	})
}
