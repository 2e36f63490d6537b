package interpolation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror(t *testing.T) {
	tests := []struct {
		idx, extent, want int
	}{
		{0, 4, 0},
		{3, 4, 3},
		{4, 4, 2},
		{5, 4, 1},
		{1, 1, 0},
		{-1, 4, 0},
	}
	for _, tc := range tests {
		assert.Equalf(t, tc.want, Mirror(tc.idx, tc.extent), "Mirror(%d, %d)", tc.idx, tc.extent)
	}
}

func TestNewExtent(t *testing.T) {
	assert.Equal(t, 8, NewExtent(4, 2))
	assert.Equal(t, 2, NewExtent(4, 0.5))
	assert.Equal(t, 5, NewExtent(3, 1.5))
	assert.Equal(t, 0, NewExtent(0, 3))
}

func TestComputeTapsNearest(t *testing.T) {
	taps := ComputeTaps(Nearest, 4, 8, 2)
	want := []int{0, 1, 1, 2, 2, 3, 3, 2}
	if diff := cmp.Diff(want, taps.Lower); diff != "" {
		t.Errorf("nearest taps mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, taps.Lower, taps.Upper)
	assert.Equal(t, make([]float64, 8), taps.Frac)
}

func TestComputeTapsLinear(t *testing.T) {
	taps := ComputeTaps(Linear, 3, 6, 2)
	require.Equal(t, 6, taps.Len())

	if diff := cmp.Diff([]int{0, 0, 1, 1, 2, 2}, taps.Lower); diff != "" {
		t.Errorf("lower mismatch (-want +got):\n%s", diff)
	}
	// The last upper tap reaches past the end and reflects onto index 1.
	if diff := cmp.Diff([]int{1, 1, 2, 2, 1, 1}, taps.Upper); diff != "" {
		t.Errorf("upper mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0.5, 0, 0.5, 0, 0.5}, taps.Frac); diff != "" {
		t.Errorf("frac mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeTapsDownsample(t *testing.T) {
	taps := ComputeTaps(Linear, 8, 4, 0.5)
	assert.Equal(t, []int{0, 2, 4, 6}, taps.Lower)
	assert.Equal(t, []float64{0, 0, 0, 0}, taps.Frac)
}

func TestComputeTapsEmptyAxis(t *testing.T) {
	taps := ComputeTaps(Linear, 0, 0, 2)
	assert.Equal(t, 0, taps.Len())
}

func TestIdentityTaps(t *testing.T) {
	taps := IdentityTaps(3)
	assert.Equal(t, []int{0, 1, 2}, taps.Lower)
	assert.Equal(t, []int{0, 1, 2}, taps.Upper)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"nearest": Nearest, "NN": Nearest,
		"linear": Linear, "Bilinear": Linear, "trilinear": Linear,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("cubic")
	require.Error(t, err)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("linear")))
	assert.Equal(t, Linear, m)
	b, err := Nearest.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "nearest", string(b))
}
