package blob

import (
	"context"
	"fmt"
	"math"

	"hyperblob/pkg/interpolation"
)

// rescalePlan is the geometry shared by every resampling kernel. Spatial axes are
// padded to (Z, Y, X); a missing axis has extent 1, stride 0 and identity taps.
type rescalePlan struct {
	shape       []int
	elementSize []float64
	layers      int
	srcLayerLen int
	dstLayerLen int
	taps        [3]interpolation.Taps
	srcStride   [3]int
}

// planRescale validates the request and computes taps. same reports that every
// spatial scale factor is exactly 1.
func planRescale[T any](t *Tensor[T], targetUm []float64, mode interpolation.Mode) (p *rescalePlan, same bool, err error) {
	ns := len(t.elementSizeUm)
	if ns == 0 {
		return nil, false, fmt.Errorf("%w: tensor of shape %s has no spatial axes", ErrUnsupportedRank, t.ShapeString())
	}
	if len(targetUm) != ns {
		return nil, false, fmt.Errorf("%w: %d target element sizes for %d spatial axes",
			ErrDimensionMismatch, len(targetUm), ns)
	}
	scale := make([]float64, ns)
	same = true
	for d, target := range targetUm {
		if !(target > 0) {
			return nil, false, fmt.Errorf("%w: target element size %g um on spatial axis %d", ErrInvalidShape, target, d)
		}
		scale[d] = t.elementSizeUm[d] / target
		if scale[d] != 1 {
			same = false
		}
	}
	if same {
		return nil, true, nil
	}

	lead := len(t.shape) - ns
	p = &rescalePlan{
		shape:       append([]int(nil), t.shape...),
		elementSize: append([]float64(nil), targetUm...),
		layers:      Volume(t.shape[:lead]),
		srcLayerLen: Volume(t.shape[lead:]),
	}
	pad := 3 - ns
	for i := 0; i < pad; i++ {
		p.taps[i] = interpolation.IdentityTaps(1)
	}
	for d := 0; d < ns; d++ {
		axis := lead + d
		n := interpolation.NewExtent(t.shape[axis], scale[d])
		p.shape[axis] = n
		p.taps[pad+d] = interpolation.ComputeTaps(mode, t.shape[axis], n, scale[d])
		p.srcStride[pad+d] = t.stride[axis]
	}
	p.dstLayerLen = Volume(p.shape[lead:])
	return p, false, nil
}

func newFromPlan[T any](p *rescalePlan, data []T) *Tensor[T] {
	return &Tensor[T]{
		shape:         p.shape,
		stride:        RowMajorStrides(p.shape),
		elementSizeUm: p.elementSize,
		data:          data,
	}
}

func checkCancelled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return Cancelled(err)
	}
	return nil
}

// Rescale resamples the spatial axes of t to the physical element size targetUm
// (one entry per spatial axis) and returns the result as a new tensor. Leading
// axes keep their extent. t itself is never modified.
//
// When every scale factor is exactly 1, t is returned unchanged without
// allocating, so callers can compare the result with t to detect a no-op.
//
// Linear mode accumulates in float64; integer element types round the result to
// the nearest integer. ctx is checked once per (leading index, depth plane); on
// cancellation the partial output is dropped and the error matches ErrCancelled.
func Rescale[T Numeric](ctx context.Context, t *Tensor[T], targetUm []float64, mode interpolation.Mode) (*Tensor[T], error) {
	p, same, err := planRescale(t, targetUm, mode)
	if err != nil {
		return nil, err
	}
	if same {
		return t, nil
	}
	if mode == interpolation.Nearest {
		return resampleNearest(ctx, p, t)
	}
	return resampleLinear(ctx, p, t)
}

// RescaleNearest is Rescale restricted to nearest-neighbor sampling. It accepts
// any element type, so boolean masks and opaque payloads can be resampled too.
func RescaleNearest[T any](ctx context.Context, t *Tensor[T], targetUm []float64) (*Tensor[T], error) {
	p, same, err := planRescale(t, targetUm, interpolation.Nearest)
	if err != nil {
		return nil, err
	}
	if same {
		return t, nil
	}
	return resampleNearest(ctx, p, t)
}

func resampleNearest[T any](ctx context.Context, p *rescalePlan, t *Tensor[T]) (*Tensor[T], error) {
	out := make([]T, p.layers*p.dstLayerLen)
	tz, ty, tx := p.taps[0], p.taps[1], p.taps[2]
	sz, sy, sx := p.srcStride[0], p.srcStride[1], p.srcStride[2]
	i := 0
	for l := 0; l < p.layers; l++ {
		src := t.data[l*p.srcLayerLen : (l+1)*p.srcLayerLen]
		for z := 0; z < tz.Len(); z++ {
			if err := checkCancelled(ctx); err != nil {
				return nil, err
			}
			zo := tz.Lower[z] * sz
			for y := 0; y < ty.Len(); y++ {
				yo := zo + ty.Lower[y]*sy
				for x := 0; x < tx.Len(); x++ {
					out[i] = src[yo+tx.Lower[x]*sx]
					i++
				}
			}
		}
	}
	return newFromPlan(p, out), nil
}

func resampleLinear[T Numeric](ctx context.Context, p *rescalePlan, t *Tensor[T]) (*Tensor[T], error) {
	out := make([]T, p.layers*p.dstLayerLen)
	round := isInteger[T]()
	tz, ty, tx := p.taps[0], p.taps[1], p.taps[2]
	sz, sy, sx := p.srcStride[0], p.srcStride[1], p.srcStride[2]
	i := 0
	for l := 0; l < p.layers; l++ {
		src := t.data[l*p.srcLayerLen : (l+1)*p.srcLayerLen]
		at := func(off int) float64 { return float64(src[off]) }
		for z := 0; z < tz.Len(); z++ {
			if err := checkCancelled(ctx); err != nil {
				return nil, err
			}
			z0, z1, fz := tz.Lower[z]*sz, tz.Upper[z]*sz, tz.Frac[z]
			for y := 0; y < ty.Len(); y++ {
				y0, y1, fy := ty.Lower[y]*sy, ty.Upper[y]*sy, ty.Frac[y]
				for x := 0; x < tx.Len(); x++ {
					x0, x1, fx := tx.Lower[x]*sx, tx.Upper[x]*sx, tx.Frac[x]
					lower := (1-fy)*((1-fx)*at(z0+y0+x0)+fx*at(z0+y0+x1)) +
						fy*((1-fx)*at(z0+y1+x0)+fx*at(z0+y1+x1))
					v := (1 - fz) * lower
					if fz != 0 {
						upper := (1-fy)*((1-fx)*at(z1+y0+x0)+fx*at(z1+y0+x1)) +
							fy*((1-fx)*at(z1+y1+x0)+fx*at(z1+y1+x1))
						v += fz * upper
					}
					if round {
						v = math.Round(v)
					}
					out[i] = T(v)
					i++
				}
			}
		}
	}
	return newFromPlan(p, out), nil
}

func isInteger[T Numeric]() bool {
	switch any(*new(T)).(type) {
	case float32, float64:
		return false
	default:
		return true
	}
}
