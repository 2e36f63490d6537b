package blob

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyperblob/pkg/interpolation"
)

// createTestVolume fills a tensor with a smooth ramp so interpolation has
// something non-trivial to work with.
func createTestVolume(t *testing.T, shape []int, size []float64) *Tensor[float32] {
	t.Helper()
	tensor, err := New[float32](shape, size)
	require.NoError(t, err)
	for i := range tensor.Data() {
		tensor.Data()[i] = float32(i%17) * 0.25
	}
	return tensor
}

func TestRescaleIdentity(t *testing.T) {
	shapes := []struct {
		shape []int
		size  []float64
	}{
		{[]int{7}, []float64{0.3}},
		{[]int{5, 6}, []float64{0.5, 0.25}},
		{[]int{2, 3, 4, 5}, []float64{1, 0.5, 0.5}},
		{[]int{2, 2, 3, 4, 5}, []float64{2, 0.7, 0.7}},
	}
	for _, mode := range []interpolation.Mode{interpolation.Nearest, interpolation.Linear} {
		for _, s := range shapes {
			t.Run(mode.String()+"/"+FormatShape(s.shape), func(t *testing.T) {
				in := createTestVolume(t, s.shape, s.size)
				before := append([]float32(nil), in.Data()...)

				out, err := Rescale(context.Background(), in, in.ElementSizeUm(), mode)
				require.NoError(t, err)
				assert.Same(t, in, out)
				assert.Equal(t, s.shape, out.Shape())
				assert.Equal(t, before, out.Data())
			})
		}
	}
}

func TestRescaleDoesNotModifyInput(t *testing.T) {
	in := createTestVolume(t, []int{4, 6}, []float64{1, 1})
	before := in.Clone()

	out, err := Rescale(context.Background(), in, []float64{0.5, 2}, interpolation.Linear)
	require.NoError(t, err)
	assert.NotSame(t, in, out)
	assert.Equal(t, []int{8, 3}, out.Shape())
	assert.Equal(t, []int{3, 1}, out.Strides())
	assert.Equal(t, []float64{0.5, 2}, out.ElementSizeUm())

	assert.Equal(t, before.Shape(), in.Shape())
	assert.Equal(t, before.ElementSizeUm(), in.ElementSizeUm())
	assert.Equal(t, before.Data(), in.Data())
}

func TestNearestRoundTrip(t *testing.T) {
	orig, err := FromData([]int32{3, 1, 4, 1, 5, 9, 2, 6}, []int{8}, []float64{1})
	require.NoError(t, err)

	for _, n := range []int{2, 3, 4} {
		up, err := Rescale(context.Background(), orig, []float64{1 / float64(n)}, interpolation.Nearest)
		require.NoError(t, err)
		require.Equal(t, []int{8 * n}, up.Shape())

		down, err := Rescale(context.Background(), up, []float64{1}, interpolation.Nearest)
		require.NoError(t, err)
		if diff := cmp.Diff(orig.Data(), down.Data()); diff != "" {
			t.Errorf("factor %d: round trip mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestNearestMirrorsOverflow(t *testing.T) {
	in, err := FromData([]uint8{10, 20, 30, 40}, []int{4}, []float64{1})
	require.NoError(t, err)

	out, err := Rescale(context.Background(), in, []float64{0.5}, interpolation.Nearest)
	require.NoError(t, err)
	// src = i/2; i=7 rounds to 4 and reflects onto index 2.
	assert.Equal(t, []uint8{10, 20, 20, 30, 30, 40, 40, 30}, out.Data())
}

func TestLinear1D(t *testing.T) {
	t.Run("float", func(t *testing.T) {
		in, err := FromData([]float64{0, 10}, []int{2}, []float64{1})
		require.NoError(t, err)
		out, err := Rescale(context.Background(), in, []float64{0.5}, interpolation.Linear)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 5, 10, 5}, out.Data())
	})

	t.Run("integer rounds", func(t *testing.T) {
		in, err := FromData([]int16{0, 5}, []int{2}, []float64{1})
		require.NoError(t, err)
		out, err := Rescale(context.Background(), in, []float64{0.5}, interpolation.Linear)
		require.NoError(t, err)
		// 2.5 rounds away from zero.
		assert.Equal(t, []int16{0, 3, 5, 3}, out.Data())
	})
}

func TestBilinear(t *testing.T) {
	in, err := FromData([]float32{0, 2, 4, 6}, []int{2, 2}, []float64{1, 1})
	require.NoError(t, err)

	out, err := Rescale(context.Background(), in, []float64{0.5, 0.5}, interpolation.Linear)
	require.NoError(t, err)
	require.Equal(t, []int{4, 4}, out.Shape())

	tests := []struct {
		y, x int
		want float32
	}{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 2},
		{1, 1, 3},
		{2, 2, 6},
	}
	for _, tc := range tests {
		v, err := out.At(tc.y, tc.x)
		require.NoError(t, err)
		assert.InDeltaf(t, tc.want, v, 1e-6, "at (%d,%d)", tc.y, tc.x)
	}
}

func TestTrilinearCenter(t *testing.T) {
	data := make([]float32, 8)
	for i := range data {
		data[i] = float32(i)
	}
	in, err := FromData(data, []int{2, 2, 2}, []float64{2, 1, 1})
	require.NoError(t, err)

	out, err := Rescale(context.Background(), in, []float64{1, 0.5, 0.5}, interpolation.Linear)
	require.NoError(t, err)
	require.Equal(t, []int{4, 4, 4}, out.Shape())

	v, err := out.At(1, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, v, 1e-6)
}

func TestRescaleKeepsLeadingAxes(t *testing.T) {
	in, err := New[uint16]([]int{2, 3, 4}, []float64{1, 1})
	require.NoError(t, err)
	layers, n := in.Layers()
	for l := 0; l < layers; l++ {
		for i := 0; i < n; i++ {
			in.Data()[l*n+i] = uint16(100 * (l + 1))
		}
	}

	for _, mode := range []interpolation.Mode{interpolation.Nearest, interpolation.Linear} {
		out, err := Rescale(context.Background(), in, []float64{0.5, 2}, mode)
		require.NoError(t, err)
		require.Equal(t, []int{2, 6, 2}, out.Shape())
		outLayers, outN := out.Layers()
		require.Equal(t, 2, outLayers)
		for l := 0; l < outLayers; l++ {
			for i := 0; i < outN; i++ {
				require.Equal(t, uint16(100*(l+1)), out.Data()[l*outN+i], "%s layer %d element %d", mode, l, i)
			}
		}
	}
}

func TestRescaleNearestBool(t *testing.T) {
	in, err := FromData([]bool{true, false, false, true}, []int{2, 2}, []float64{1, 1})
	require.NoError(t, err)

	out, err := RescaleNearest(context.Background(), in, []float64{0.5, 0.5})
	require.NoError(t, err)
	require.Equal(t, []int{4, 4}, out.Shape())

	v, err := out.At(0, 0)
	require.NoError(t, err)
	assert.True(t, v)
	v, err = out.At(0, 2)
	require.NoError(t, err)
	assert.False(t, v)

	same, err := RescaleNearest(context.Background(), in, []float64{1, 1})
	require.NoError(t, err)
	assert.Same(t, in, same)
}

func TestRescaleErrors(t *testing.T) {
	in := createTestVolume(t, []int{4, 4}, []float64{1, 1})

	_, err := Rescale(context.Background(), in, []float64{1}, interpolation.Linear)
	require.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Rescale(context.Background(), in, []float64{1, 0}, interpolation.Linear)
	require.ErrorIs(t, err, ErrInvalidShape)

	_, err = Rescale(context.Background(), in, []float64{1, math.NaN()}, interpolation.Linear)
	require.ErrorIs(t, err, ErrInvalidShape)

	flat, err := New[float32]([]int{4, 4}, nil)
	require.NoError(t, err)
	_, err = Rescale(context.Background(), flat, nil, interpolation.Nearest)
	require.ErrorIs(t, err, ErrUnsupportedRank)
}

func TestRescaleCancelled(t *testing.T) {
	in := createTestVolume(t, []int{3, 8, 8}, []float64{1, 1, 1})
	before := in.Clone()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range []interpolation.Mode{interpolation.Nearest, interpolation.Linear} {
		out, err := Rescale(ctx, in, []float64{0.5, 0.5, 0.5}, mode)
		require.ErrorIs(t, err, ErrCancelled)
		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, out)
	}
	assert.Equal(t, before.Data(), in.Data())
	assert.Equal(t, before.Shape(), in.Shape())
}

func TestRescaleSingleSampleAxis(t *testing.T) {
	in, err := FromData([]float32{4}, []int{1}, []float64{1})
	require.NoError(t, err)

	for _, mode := range []interpolation.Mode{interpolation.Nearest, interpolation.Linear} {
		out, err := Rescale(context.Background(), in, []float64{0.25}, mode)
		require.NoError(t, err)
		assert.Equal(t, []float32{4, 4, 4, 4}, out.Data(), mode.String())
	}
}
