package blob

import (
	"fmt"
	"strings"
)

// Axis identifies one of the five hyperstack axes. Lower-rank tensors drop
// leading axes, so a rank-3 tensor is (Z, Y, X).
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisC
	AxisT
)

// MaxRank is the highest rank addressable through the 5-tuple accessors.
const MaxRank = 5

var axisNames = [MaxRank]string{"x", "y", "z", "c", "t"}

func (a Axis) String() string {
	if a < 0 || int(a) >= MaxRank {
		return fmt.Sprintf("axis(%d)", int(a))
	}
	return axisNames[a]
}

// AxisOf returns the hyperstack axis stored at position i of a tensor with the
// given rank. Positions beyond the 5-axis convention report ok == false.
func AxisOf(rank, i int) (Axis, bool) {
	a := Axis(rank - 1 - i)
	if a < 0 || int(a) >= MaxRank {
		return 0, false
	}
	return a, true
}

// RowMajorStrides returns strides for shape with the first axis outermost:
// stride[last] = 1 and stride[i] = stride[i+1] * shape[i+1].
func RowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Volume returns the number of elements described by shape.
func Volume(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// FormatShape renders shape as "3x64x64".
func FormatShape(shape []int) string {
	if len(shape) == 0 {
		return "()"
	}
	parts := make([]string, len(shape))
	for i, s := range shape {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, "x")
}

func validateShape(shape []int, elementSizeUm []float64) error {
	if len(shape) == 0 {
		return fmt.Errorf("%w: shape must have at least one axis", ErrInvalidShape)
	}
	for i, s := range shape {
		if s < 0 {
			return fmt.Errorf("%w: negative extent %d on axis %d", ErrInvalidShape, s, i)
		}
	}
	if len(elementSizeUm) > len(shape) {
		return fmt.Errorf("%w: %d element sizes for rank %d", ErrInvalidShape, len(elementSizeUm), len(shape))
	}
	if len(elementSizeUm) > 3 {
		return fmt.Errorf("%w: at most 3 spatial axes, got %d", ErrInvalidShape, len(elementSizeUm))
	}
	for i, e := range elementSizeUm {
		if !(e > 0) {
			return fmt.Errorf("%w: element size %g um on spatial axis %d", ErrInvalidShape, e, i)
		}
	}
	return nil
}
