package labeling

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// centroid is a component centroid in micrometers, (z, y, x). 2-D components use z = 0.
type centroid struct {
	Z, Y, X float64
	index   int
}

func (p centroid) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(centroid)
	switch d {
	case 0:
		return p.Z - q.Z
	case 1:
		return p.Y - q.Y
	case 2:
		return p.X - q.X
	default:
		panic("illegal dimension")
	}
}

func (p centroid) Dims() int { return 3 }

// Distance returns the squared Euclidean distance.
func (p centroid) Distance(c kdtree.Comparable) float64 {
	q := c.(centroid)
	dz, dy, dx := p.Z-q.Z, p.Y-q.Y, p.X-q.X
	return dz*dz + dy*dy + dx*dx
}

type centroids []centroid

func (p centroids) Index(i int) kdtree.Comparable         { return p[i] }
func (p centroids) Len() int                              { return len(p) }
func (p centroids) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p centroids) Pivot(d kdtree.Dim) int {
	plane := centroidPlane{centroids: p, Dim: d}
	return kdtree.Partition(plane, kdtree.MedianOfRandoms(plane, 100))
}

// centroidPlane implements kdtree.SortSlicer along one dimension.
type centroidPlane struct {
	centroids
	kdtree.Dim
}

func (p centroidPlane) Less(i, j int) bool {
	return p.centroids[i].Compare(p.centroids[j], p.Dim) < 0
}

func (p centroidPlane) Slice(start, end int) kdtree.SortSlicer {
	return centroidPlane{centroids: p.centroids[start:end], Dim: p.Dim}
}

func (p centroidPlane) Swap(i, j int) {
	p.centroids[i], p.centroids[j] = p.centroids[j], p.centroids[i]
}

func toCentroid(um []float64, index int) centroid {
	var p centroid
	p.index = index
	switch len(um) {
	case 3:
		p.Z, p.Y, p.X = um[0], um[1], um[2]
	case 2:
		p.Y, p.X = um[0], um[1]
	case 1:
		p.X = um[0]
	}
	return p
}

// CentroidIndex answers nearest-component queries over physical centroid
// positions, for matching detections against labeled instances.
type CentroidIndex struct {
	comps []Component
	tree  *kdtree.Tree
}

// NewCentroidIndex indexes comps by CentroidUm. Only components of the given
// layer are indexed; pass layer < 0 to index all of them.
func NewCentroidIndex(comps []Component, layer int) *CentroidIndex {
	idx := &CentroidIndex{}
	var pts centroids
	for _, c := range comps {
		if layer >= 0 && c.Layer != layer {
			continue
		}
		pts = append(pts, toCentroid(c.CentroidUm, len(idx.comps)))
		idx.comps = append(idx.comps, c)
	}
	if len(pts) > 0 {
		idx.tree = kdtree.New(pts, false)
	}
	return idx
}

// Len is the number of indexed components.
func (idx *CentroidIndex) Len() int { return len(idx.comps) }

// Nearest returns the component whose centroid is closest to pointUm (spatial
// axis order, micrometers) and the Euclidean distance to it. ok is false when the
// index is empty.
func (idx *CentroidIndex) Nearest(pointUm []float64) (c Component, dist float64, ok bool) {
	if idx.tree == nil {
		return Component{}, 0, false
	}
	got, d2 := idx.tree.Nearest(toCentroid(pointUm, -1))
	if got == nil {
		return Component{}, 0, false
	}
	return idx.comps[got.(centroid).index], math.Sqrt(d2), true
}

// Within returns the components whose centroids lie within radiusUm of pointUm.
func (idx *CentroidIndex) Within(pointUm []float64, radiusUm float64) []Component {
	if idx.tree == nil {
		return nil
	}
	keeper := kdtree.NewDistKeeper(radiusUm * radiusUm)
	idx.tree.NearestSet(keeper, toCentroid(pointUm, -1))
	var out []Component
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		out = append(out, idx.comps[item.Comparable.(centroid).index])
	}
	return out
}
