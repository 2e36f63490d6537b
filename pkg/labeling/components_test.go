package labeling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyperblob/pkg/blob"
)

func TestComponents2D(t *testing.T) {
	in := parseMask(t,
		"##...",
		"##...",
		"....#",
		"....#",
	)
	labels, counts, err := Label(context.Background(), in, Simple)
	require.NoError(t, err)

	comps, err := Components(labels, counts)
	require.NoError(t, err)
	require.Len(t, comps, 2)

	square := comps[0]
	assert.Equal(t, int32(1), square.Label)
	assert.Equal(t, 4, square.Voxels)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, square.Centroid, 1e-12)
	assert.Equal(t, []int{0, 0}, square.Min)
	assert.Equal(t, []int{1, 1}, square.Max)

	bar := comps[1]
	assert.Equal(t, 2, bar.Voxels)
	assert.InDeltaSlice(t, []float64{2.5, 4}, bar.Centroid, 1e-12)
	assert.Equal(t, []int{2, 4}, bar.Min)
	assert.Equal(t, []int{3, 4}, bar.Max)
}

func TestComponentsPhysicalCentroid(t *testing.T) {
	in, err := blob.New[uint8]([]int{2, 3, 2, 4}, []float64{2.5, 0.5, 0.25})
	require.NoError(t, err)
	require.NoError(t, in.SetAt(1, 1, 1, 0, 0))
	require.NoError(t, in.SetAt(1, 1, 1, 1, 0))

	labels, counts, err := Label(context.Background(), in, Simple)
	require.NoError(t, err)
	comps, err := Components(labels, counts)
	require.NoError(t, err)
	require.Len(t, comps, 1)

	c := comps[0]
	assert.Equal(t, 1, c.Layer)
	assert.Equal(t, 0, c.T)
	assert.Equal(t, 1, c.C)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0}, c.Centroid, 1e-12)
	assert.InDeltaSlice(t, []float64{2.5, 0.25, 0}, c.CentroidUm, 1e-12)
}

func TestComponentsCountMismatch(t *testing.T) {
	labels, err := blob.New[int32]([]int{2, 4, 4}, []float64{1, 1})
	require.NoError(t, err)
	_, err = Components(labels, []int{0})
	require.ErrorIs(t, err, blob.ErrDimensionMismatch)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, SizeSummary{}, Summarize(nil))

	one := Summarize([]Component{{Voxels: 7}})
	assert.Equal(t, 1, one.Count)
	assert.Equal(t, 7.0, one.Mean)
	assert.Equal(t, 0.0, one.StdDev)
	assert.Equal(t, 7.0, one.Median)

	s := Summarize([]Component{{Voxels: 4}, {Voxels: 1}, {Voxels: 10}})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 15, s.TotalVoxels)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 4.5825756949558, s.StdDev, 1e-9)
	assert.Equal(t, 4.0, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
}

func TestCentroidIndex(t *testing.T) {
	comps := []Component{
		{Layer: 0, Label: 1, CentroidUm: []float64{0, 0}},
		{Layer: 0, Label: 2, CentroidUm: []float64{10, 10}},
		{Layer: 0, Label: 3, CentroidUm: []float64{0, 20}},
		{Layer: 1, Label: 1, CentroidUm: []float64{9, 9}},
	}

	idx := NewCentroidIndex(comps, 0)
	require.Equal(t, 3, idx.Len())

	c, dist, ok := idx.Nearest([]float64{8, 10})
	require.True(t, ok)
	assert.Equal(t, int32(2), c.Label)
	assert.InDelta(t, 2.0, dist, 1e-12)

	near := idx.Within([]float64{0, 1}, 5)
	require.Len(t, near, 1)
	assert.Equal(t, int32(1), near[0].Label)

	all := NewCentroidIndex(comps, -1)
	c, _, ok = all.Nearest([]float64{9, 8.5})
	require.True(t, ok)
	assert.Equal(t, 1, c.Layer)

	empty := NewCentroidIndex(nil, -1)
	_, _, ok = empty.Nearest([]float64{0, 0})
	assert.False(t, ok)
	assert.Empty(t, empty.Within([]float64{0, 0}, 100))
}
