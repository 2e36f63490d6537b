package labeling

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"hyperblob/pkg/blob"
)

// Component summarizes one connected region of a label tensor.
type Component struct {
	// Layer is the (time, channel) layer index; T and C are its coordinates.
	Layer int
	T, C  int

	// Label is the dense id inside the layer.
	Label int32

	// Voxels is the number of voxels carrying Label.
	Voxels int

	// Centroid is the mean voxel coordinate in spatial axis order ((z,) y, x).
	Centroid []float64

	// CentroidUm is Centroid scaled by the element size.
	CentroidUm []float64

	// Min and Max bound the component (inclusive), in spatial axis order.
	Min, Max []int
}

// Components collects per-component statistics from the output of Label.
// counts must be the per-layer component counts returned alongside labels.
func Components(labels *blob.Tensor[int32], counts []int) ([]Component, error) {
	g, err := layerGeometry(labels.Shape(), labels.SpatialRank())
	if err != nil {
		return nil, err
	}
	if len(counts) != g.layers {
		return nil, fmt.Errorf("%w: %d component counts for %d layers",
			blob.ErrDimensionMismatch, len(counts), g.layers)
	}

	ns := g.spatial
	size := labels.ElementSizeUm()
	data := labels.Data()
	n := g.layerLen()
	ny, nx := g.dims[1], g.dims[2]

	var out []Component
	for l := 0; l < g.layers; l++ {
		k := counts[l]
		comps := make([]Component, k)
		for i := range comps {
			comps[i] = Component{
				Layer:    l,
				T:        l / g.channels,
				C:        l % g.channels,
				Label:    int32(i + 1),
				Centroid: make([]float64, ns),
				Min:      make([]int, ns),
				Max:      make([]int, ns),
			}
			for d := 0; d < ns; d++ {
				comps[i].Min[d] = math.MaxInt
				comps[i].Max[d] = -1
			}
		}

		layer := data[l*n : (l+1)*n]
		pos := make([]float64, ns)
		for i, lbl := range layer {
			if lbl == 0 {
				continue
			}
			if int(lbl) > k {
				return nil, fmt.Errorf("label %d exceeds component count %d in layer %d", lbl, k, l)
			}
			z, y, x := i/(ny*nx), (i/nx)%ny, i%nx
			coords := [3]int{z, y, x}
			c := &comps[lbl-1]
			c.Voxels++
			for d := 0; d < ns; d++ {
				v := coords[3-ns+d]
				pos[d] = float64(v)
				c.Min[d] = min(c.Min[d], v)
				c.Max[d] = max(c.Max[d], v)
			}
			floats.Add(c.Centroid, pos)
		}

		for i := range comps {
			c := &comps[i]
			if c.Voxels > 0 {
				floats.Scale(1/float64(c.Voxels), c.Centroid)
			}
			c.CentroidUm = make([]float64, ns)
			floats.MulTo(c.CentroidUm, c.Centroid, size)
		}
		out = append(out, comps...)
	}
	return out, nil
}

// SizeSummary describes the distribution of component sizes in voxels.
type SizeSummary struct {
	Count       int
	TotalVoxels int
	Mean        float64
	StdDev      float64
	Median      float64
	Min         float64
	Max         float64
}

// Summarize computes size statistics over comps. An empty input yields a zero summary.
func Summarize(comps []Component) SizeSummary {
	if len(comps) == 0 {
		return SizeSummary{}
	}
	sizes := make([]float64, len(comps))
	total := 0
	for i, c := range comps {
		sizes[i] = float64(c.Voxels)
		total += c.Voxels
	}
	sort.Float64s(sizes)

	s := SizeSummary{
		Count:       len(comps),
		TotalVoxels: total,
		Median:      stat.Quantile(0.5, stat.Empirical, sizes, nil),
		Min:         floats.Min(sizes),
		Max:         floats.Max(sizes),
	}
	s.Mean, s.StdDev = stat.MeanStdDev(sizes, nil)
	if len(sizes) < 2 {
		s.StdDev = 0
	}
	return s
}
