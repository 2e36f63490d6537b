package blob

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape indicates a negative extent, an empty shape, or a non-positive element size.
	ErrInvalidShape = errors.New("blob: invalid shape")
	// ErrIndexOutOfRange indicates an accessor coordinate outside the tensor extent.
	ErrIndexOutOfRange = errors.New("blob: index out of range")
	// ErrDimensionMismatch indicates a coordinate or size vector of the wrong length.
	ErrDimensionMismatch = errors.New("blob: dimension mismatch")
	// ErrUnsupportedRank indicates a rank the requested operation cannot handle.
	ErrUnsupportedRank = errors.New("blob: unsupported rank")
	// ErrCancelled indicates the operation was aborted through its context.
	ErrCancelled = errors.New("blob: cancelled")
)

// IndexError describes an out-of-range coordinate on a single axis.
type IndexError struct {
	Axis  int
	Name  string
	Value int
	Shape []int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("blob: index %d out of range on axis %d (%s) for shape %s",
		e.Value, e.Axis, e.Name, FormatShape(e.Shape))
}

// Unwrap lets errors.Is match ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// Cancelled wraps a context error so that it matches both ErrCancelled and the
// original cause.
func Cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
