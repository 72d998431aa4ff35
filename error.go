package adaptive

import (
	"errors"
	"fmt"

	"github.com/segmentio/adaptive/cell"
)

var (
	// ErrUnsupportedType is returned by New when the element type is not one
	// of the fixed width integer or floating point types.
	ErrUnsupportedType = errors.New("adaptive: unsupported element type")

	// ErrInvalidOperation is the root of every error reported for an
	// operation that cannot be carried out on an atomic.
	ErrInvalidOperation = errors.New("adaptive: invalid operation")

	// ErrAllocation is returned by New when the backing cell could not be
	// acquired.
	ErrAllocation = cell.ErrAllocation
)

var (
	ErrDisposed      = invalid("atomic is disposed")
	ErrUninitialized = invalid("atomic was not created with New")
	ErrRefOverflow   = invalid("reference count overflow")
	ErrRefUnderflow  = invalid("reference count underflow")
	ErrFloatBitwise  = invalid("bitwise ops unsupported on floating types")
	ErrUnknownOp     = invalid("unknown operation")
	ErrDivideByZero  = invalid("integer division by zero")
	ErrNegativeShift = invalid("negative shift count")
	ErrBatchClosed   = invalid("batch already unlocked")
)

type invalidOperation string

func invalid(msg string) error { return invalidOperation(msg) }

func (e invalidOperation) Error() string { return "adaptive: invalid operation: " + string(e) }

func (e invalidOperation) Is(target error) bool { return target == ErrInvalidOperation }

// codecError turns errors of the bit codec into invalid operations.
func codecError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
}
