// Package labeling extracts connected foreground regions from label volumes.
//
// Label runs a single raster pass per (time, channel) layer. Each foreground voxel
// looks only at its causal half-neighborhood (neighbors already visited), takes
// over a provisional label or allocates a fresh one, and records equivalences in a
// union-find Forest. A compaction pass then maps provisional labels onto dense ids
// 1..k in order of first appearance.
package labeling

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"hyperblob/pkg/blob"
)

// ProgressCallback reports finished layers.
type ProgressCallback func(completed, total int, message string)

type options struct {
	workers  int
	progress ProgressCallback
}

// Option configures Label.
type Option func(*options)

// WithWorkers labels up to n (time, channel) layers concurrently. n <= 0 uses
// runtime.NumCPU(). Output does not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		o.workers = n
	}
}

// WithProgress installs a callback invoked after each layer completes.
func WithProgress(cb ProgressCallback) Option {
	return func(o *options) { o.progress = cb }
}

// geometry describes how a tensor splits into independent layers.
type geometry struct {
	layers   int
	channels int
	dims     [3]int // (z, y, x); z == 1 for 2-D
	spatial  int
}

func layerGeometry(shape []int, spatial int) (geometry, error) {
	if spatial != 2 && spatial != 3 {
		return geometry{}, fmt.Errorf("%w: labeling needs 2 or 3 spatial axes, tensor has %d",
			blob.ErrUnsupportedRank, spatial)
	}
	lead := len(shape) - spatial
	if lead > 2 {
		return geometry{}, fmt.Errorf("%w: labeling supports at most (time, channel) leading axes, shape %s",
			blob.ErrUnsupportedRank, blob.FormatShape(shape))
	}
	g := geometry{
		layers:   blob.Volume(shape[:lead]),
		channels: 1,
		dims:     [3]int{1, 1, 1},
		spatial:  spatial,
	}
	if lead > 0 {
		g.channels = shape[lead-1]
	}
	copy(g.dims[3-spatial:], shape[lead:])
	return g, nil
}

func (g geometry) layerLen() int { return g.dims[0] * g.dims[1] * g.dims[2] }

// Label assigns connected-component ids to the nonzero voxels of in.
//
// The spatial rank is in.SpatialRank() and must be 2 or 3; up to two leading
// axes are interpreted as (time, channel) and labeled independently. The result
// has in's shape and element size, holds 0 for background and 1..k per layer, and
// counts[l] is k for layer l (time-major, then channel).
//
// ctx is checked once per depth plane. When it is cancelled the partial output is
// dropped and the error matches blob.ErrCancelled.
func Label[T comparable](ctx context.Context, in *blob.Tensor[T], conn Connectivity, opts ...Option) (*blob.Tensor[int32], []int, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	g, err := layerGeometry(in.Shape(), in.SpatialRank())
	if err != nil {
		return nil, nil, err
	}
	offsets, err := CausalOffsets(conn, g.spatial)
	if err != nil {
		return nil, nil, err
	}

	out, err := blob.New[int32](in.Shape(), in.ElementSizeUm())
	if err != nil {
		return nil, nil, err
	}
	counts := make([]int, g.layers)
	src, dst := in.Data(), out.Data()
	n := g.layerLen()

	run := func(ctx context.Context, l int) error {
		k, err := labelLayer(ctx, src[l*n:(l+1)*n], dst[l*n:(l+1)*n], g.dims, offsets)
		if err != nil {
			return err
		}
		counts[l] = k
		return nil
	}

	if o.workers <= 1 || g.layers <= 1 {
		for l := 0; l < g.layers; l++ {
			if err := run(ctx, l); err != nil {
				return nil, nil, err
			}
			o.report(l+1, g.layers, l, g.channels)
		}
		return out, counts, nil
	}

	if err := labelParallel(ctx, g, o, run); err != nil {
		return nil, nil, err
	}
	return out, counts, nil
}

func (o options) report(completed, total, layer, channels int) {
	if o.progress == nil {
		return
	}
	o.progress(completed, total, fmt.Sprintf("labeled layer t=%d c=%d", layer/channels, layer%channels))
}

// labelParallel fans layers out to o.workers goroutines. The first failure
// cancels the remaining layers.
func labelParallel(ctx context.Context, g geometry, o options, run func(context.Context, int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
		completed int
	)
	workers := min(o.workers, g.layers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for l := range jobs {
				err := run(ctx, l)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					cancel()
				} else {
					completed++
					o.report(completed, g.layers, l, g.channels)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for l := 0; l < g.layers; l++ {
		select {
		case jobs <- l:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if completed < g.layers {
		return blob.Cancelled(ctx.Err())
	}
	return nil
}

// labelLayer labels one (z, y, x) block in place and returns the number of
// components found.
func labelLayer[T comparable](ctx context.Context, src []T, dst []int32, dims [3]int, offsets []Offset) (int, error) {
	nz, ny, nx := dims[0], dims[1], dims[2]
	planeLen := ny * nx
	deltas := make([]int, len(offsets))
	for i, off := range offsets {
		deltas[i] = off.DZ*planeLen + off.DY*nx + off.DX
	}

	var zero T
	forest := NewForest(64)
	next := 1
	neighbors := make([]int, 0, len(offsets))

	for z := 0; z < nz; z++ {
		if err := ctx.Err(); err != nil {
			return 0, blob.Cancelled(err)
		}
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				i := z*planeLen + y*nx + x
				if src[i] == zero {
					dst[i] = 0
					continue
				}

				neighbors = neighbors[:0]
				for j, off := range offsets {
					if z+off.DZ < 0 || y+off.DY < 0 || y+off.DY >= ny || x+off.DX < 0 || x+off.DX >= nx {
						continue
					}
					if lbl := dst[i+deltas[j]]; lbl != 0 {
						neighbors = append(neighbors, int(lbl))
					}
				}

				if len(neighbors) == 0 {
					forest.MakeNode(next)
					dst[i] = int32(next)
					next++
					continue
				}
				adopted := neighbors[0]
				for _, other := range neighbors[1:] {
					if other != adopted {
						forest.Union(adopted, other)
					}
				}
				dst[i] = int32(adopted)
			}
		}
	}

	// Provisional labels are visited in order of first assignment, so dense ids
	// follow first appearance in the raster scan.
	dense := make([]int32, next)
	rootID := make([]int32, next)
	k := int32(0)
	for p := 1; p < next; p++ {
		r := forest.Find(p)
		if rootID[r] == 0 {
			k++
			rootID[r] = k
		}
		dense[p] = rootID[r]
	}
	for i, lbl := range dst {
		if lbl != 0 {
			dst[i] = dense[lbl]
		}
	}
	return int(k), nil
}
