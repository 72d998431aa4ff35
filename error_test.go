package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segmentio/adaptive/bitcodec"
)

func TestInvalidOperationTaxonomy(t *testing.T) {
	for _, err := range []error{
		ErrDisposed,
		ErrUninitialized,
		ErrRefOverflow,
		ErrRefUnderflow,
		ErrFloatBitwise,
		ErrUnknownOp,
		ErrDivideByZero,
		ErrNegativeShift,
		ErrBatchClosed,
		codecError(bitcodec.ErrFieldRange),
	} {
		assert.ErrorIs(t, err, ErrInvalidOperation, err.Error())
		assert.NotErrorIs(t, err, ErrUnsupportedType)
	}

	assert.ErrorIs(t, codecError(bitcodec.ErrNonFinite), bitcodec.ErrNonFinite)
	assert.Nil(t, codecError(nil))
	assert.Equal(t, "adaptive: invalid operation: bitwise ops unsupported on floating types", ErrFloatBitwise.Error())
}
