// Package interpolation computes the per-axis sampling taps used when a blob is
// resampled to a new physical element size.
//
// Resampling is separable: for every output coordinate along one spatial axis the
// source position is targetCoord / scale. Nearest mode rounds that position,
// linear mode keeps the two bracketing samples and the fractional weight of the
// upper one. Both modes reflect an index that falls past the last sample back about
// the last valid index (mirror boundary).
package interpolation

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects the interpolation kernel.
type Mode int

const (
	// Nearest picks the closest source sample.
	Nearest Mode = iota
	// Linear blends the bracketing samples: bilinear in 2-D, trilinear in 3-D.
	Linear
)

func (m Mode) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "nearest", "linear", "bilinear" and "trilinear" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest", "nn":
		return Nearest, nil
	case "linear", "bilinear", "trilinear":
		return Linear, nil
	default:
		return 0, fmt.Errorf("unknown interpolation mode %q (must be nearest or linear)", s)
	}
}

// MarshalText implements encoding.TextMarshaler so modes read naturally in config files.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Mirror reflects idx about the last valid sample when it reaches past the end:
// idx' = 2*(extent-1) - idx. The result is clamped into [0, extent-1] so that
// single-sample axes stay addressable.
func Mirror(idx, extent int) int {
	if idx >= extent {
		idx = 2*(extent-1) - idx
	}
	if idx < 0 {
		idx = 0
	}
	if idx > extent-1 {
		idx = extent - 1
	}
	return idx
}

// NewExtent is the resampled length of an axis: round(extent * scale).
func NewExtent(extent int, scale float64) int {
	return int(math.Round(float64(extent) * scale))
}

// Taps holds, for every output coordinate of one axis, the two source indices to
// blend and the weight of Upper. Nearest taps have Lower == Upper and Frac == 0.
type Taps struct {
	Lower []int
	Upper []int
	Frac  []float64
}

// Len is the number of output coordinates described.
func (t Taps) Len() int { return len(t.Lower) }

// ComputeTaps builds the taps that map newExtent output samples onto an axis of
// oldExtent source samples, where scale = newSpacing^-1 * oldSpacing.
func ComputeTaps(mode Mode, oldExtent, newExtent int, scale float64) Taps {
	taps := Taps{
		Lower: make([]int, newExtent),
		Upper: make([]int, newExtent),
		Frac:  make([]float64, newExtent),
	}
	if oldExtent == 0 {
		return taps
	}
	for i := 0; i < newExtent; i++ {
		src := float64(i) / scale
		switch mode {
		case Linear:
			lower := int(math.Floor(src))
			frac := src - float64(lower)
			lower = Mirror(lower, oldExtent)
			upper := lower + 1
			if upper >= oldExtent {
				upper = Mirror(upper, oldExtent)
			}
			taps.Lower[i] = lower
			taps.Upper[i] = upper
			taps.Frac[i] = frac
		default:
			idx := Mirror(int(math.Round(src)), oldExtent)
			taps.Lower[i] = idx
			taps.Upper[i] = idx
		}
	}
	return taps
}

// IdentityTaps maps every coordinate of an axis onto itself.
func IdentityTaps(extent int) Taps {
	taps := Taps{
		Lower: make([]int, extent),
		Upper: make([]int, extent),
		Frac:  make([]float64, extent),
	}
	for i := range taps.Lower {
		taps.Lower[i] = i
		taps.Upper[i] = i
	}
	return taps
}
