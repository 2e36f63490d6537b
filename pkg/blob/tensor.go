// Package blob provides the dense n-dimensional arrays ("blobs") used to carry
// hyperstacks, annotation masks and label volumes through the rest of hyperblob.
//
// Axes are ordered (T, C, Z, Y, X) with the slowest-moving axis first. Lower-rank
// tensors omit leading axes. The trailing len(ElementSizeUm()) axes are spatial and
// carry a physical sample size in micrometers; only those axes are resampled.
package blob

import "fmt"

// Numeric lists the element types that support arithmetic resampling.
type Numeric interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | float32 | float64
}

// Tensor is a dense row-major array that exclusively owns its buffer.
type Tensor[T any] struct {
	shape         []int
	stride        []int
	elementSizeUm []float64
	data          []T
}

// New allocates a zero-initialized tensor.
//
// elementSizeUm gives the physical size of one sample along each trailing spatial
// axis. It may be shorter than shape (leading axes are non-spatial) but never longer,
// and every entry must be positive.
func New[T any](shape []int, elementSizeUm []float64) (*Tensor[T], error) {
	if err := validateShape(shape, elementSizeUm); err != nil {
		return nil, err
	}
	return &Tensor[T]{
		shape:         append([]int(nil), shape...),
		stride:        RowMajorStrides(shape),
		elementSizeUm: append([]float64(nil), elementSizeUm...),
		data:          make([]T, Volume(shape)),
	}, nil
}

// FromData wraps data in a tensor without copying. len(data) must equal the
// product of shape. The tensor takes ownership of data.
func FromData[T any](data []T, shape []int, elementSizeUm []float64) (*Tensor[T], error) {
	if err := validateShape(shape, elementSizeUm); err != nil {
		return nil, err
	}
	if n := Volume(shape); len(data) != n {
		return nil, fmt.Errorf("%w: %d elements for shape %s (want %d)",
			ErrDimensionMismatch, len(data), FormatShape(shape), n)
	}
	return &Tensor[T]{
		shape:         append([]int(nil), shape...),
		stride:        RowMajorStrides(shape),
		elementSizeUm: append([]float64(nil), elementSizeUm...),
		data:          data,
	}, nil
}

// Shape returns a copy of the extents, slowest axis first.
func (t *Tensor[T]) Shape() []int { return append([]int(nil), t.shape...) }

// Strides returns a copy of the row-major strides.
func (t *Tensor[T]) Strides() []int { return append([]int(nil), t.stride...) }

// ElementSizeUm returns a copy of the physical sample sizes of the spatial axes.
func (t *Tensor[T]) ElementSizeUm() []float64 { return append([]float64(nil), t.elementSizeUm...) }

// Rank is the number of axes.
func (t *Tensor[T]) Rank() int { return len(t.shape) }

// SpatialRank is the number of trailing axes with a physical element size.
func (t *Tensor[T]) SpatialRank() int { return len(t.elementSizeUm) }

// Len is the number of elements.
func (t *Tensor[T]) Len() int { return len(t.data) }

// Data returns the backing buffer by reference. Callers may write elements but must
// not resize it.
func (t *Tensor[T]) Data() []T { return t.data }

// ShapeString describes the extents for error messages.
func (t *Tensor[T]) ShapeString() string { return FormatShape(t.shape) }

func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%T](shape=%s, elementSizeUm=%v)", *new(T), t.ShapeString(), t.elementSizeUm)
}

// Offset converts a full-rank coordinate into a buffer index.
func (t *Tensor[T]) Offset(pos ...int) (int, error) {
	if len(pos) != len(t.shape) {
		return 0, fmt.Errorf("%w: %d coordinates for rank %d tensor of shape %s",
			ErrDimensionMismatch, len(pos), len(t.shape), t.ShapeString())
	}
	off := 0
	for i, p := range pos {
		if p < 0 || p >= t.shape[i] {
			name := fmt.Sprintf("axis%d", i)
			if a, ok := AxisOf(len(t.shape), i); ok {
				name = a.String()
			}
			return 0, &IndexError{Axis: i, Name: name, Value: p, Shape: t.Shape()}
		}
		off += p * t.stride[i]
	}
	return off, nil
}

// At returns the element at a full-rank coordinate.
func (t *Tensor[T]) At(pos ...int) (T, error) {
	off, err := t.Offset(pos...)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.data[off], nil
}

// SetAt stores v at a full-rank coordinate.
func (t *Tensor[T]) SetAt(v T, pos ...int) error {
	off, err := t.Offset(pos...)
	if err != nil {
		return err
	}
	t.data[off] = v
	return nil
}

// pos5 projects a (t, c, z, y, x) tuple onto the tensor's axes: a rank r tensor
// uses the last r components.
func (t *Tensor[T]) pos5(tt, c, z, y, x int) ([]int, error) {
	r := len(t.shape)
	if r > MaxRank {
		return nil, fmt.Errorf("%w: 5-axis access on rank %d tensor of shape %s",
			ErrUnsupportedRank, r, t.ShapeString())
	}
	full := [MaxRank]int{tt, c, z, y, x}
	return full[MaxRank-r:], nil
}

// Get5 reads the element at (t, c, z, y, x). Components for axes the tensor does
// not have are ignored.
func (t *Tensor[T]) Get5(tt, c, z, y, x int) (T, error) {
	pos, err := t.pos5(tt, c, z, y, x)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.At(pos...)
}

// Set5 writes the element at (t, c, z, y, x).
func (t *Tensor[T]) Set5(v T, tt, c, z, y, x int) error {
	pos, err := t.pos5(tt, c, z, y, x)
	if err != nil {
		return err
	}
	return t.SetAt(v, pos...)
}

// Clone returns a deep copy.
func (t *Tensor[T]) Clone() *Tensor[T] {
	return &Tensor[T]{
		shape:         t.Shape(),
		stride:        t.Strides(),
		elementSizeUm: t.ElementSizeUm(),
		data:          append([]T(nil), t.data...),
	}
}

// Layers returns the number of leading (non-spatial) index combinations and the
// number of elements in each spatial block.
func (t *Tensor[T]) Layers() (layers, layerLen int) {
	lead := len(t.shape) - len(t.elementSizeUm)
	return Volume(t.shape[:lead]), Volume(t.shape[lead:])
}

// Map applies f to every element of src and returns a tensor of the same shape
// and element size.
func Map[S, D any](src *Tensor[S], f func(S) D) *Tensor[D] {
	out := make([]D, len(src.data))
	for i, v := range src.data {
		out[i] = f(v)
	}
	return &Tensor[D]{
		shape:         src.Shape(),
		stride:        src.Strides(),
		elementSizeUm: src.ElementSizeUm(),
		data:          out,
	}
}
