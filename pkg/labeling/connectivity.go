package labeling

import (
	"fmt"
	"strings"
)

// Connectivity selects which neighbors join two foreground voxels.
type Connectivity int

const (
	// Simple connects face neighbors: 4-connected in 2-D, 6-connected in 3-D.
	Simple Connectivity = iota
	// Complex also connects edge and corner neighbors: 8-connected in 2-D, 26-connected in 3-D.
	Complex
)

func (c Connectivity) String() string {
	switch c {
	case Simple:
		return "simple"
	case Complex:
		return "complex"
	default:
		return fmt.Sprintf("connectivity(%d)", int(c))
	}
}

// ParseConnectivity accepts "simple"/"complex" or a neighbor count (4, 6, 8, 26).
func ParseConnectivity(s string) (Connectivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple", "4", "6":
		return Simple, nil
	case "complex", "8", "26":
		return Complex, nil
	default:
		return 0, fmt.Errorf("unknown connectivity %q (must be simple or complex)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Connectivity) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Connectivity) UnmarshalText(b []byte) error {
	v, err := ParseConnectivity(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Offset is a (dz, dy, dx) displacement to an already-visited neighbor.
type Offset struct {
	DZ, DY, DX int
}

var (
	simple2D = []Offset{
		{0, -1, 0},
		{0, 0, -1},
	}
	complex2D = []Offset{
		{0, -1, -1},
		{0, -1, 0},
		{0, -1, 1},
		{0, 0, -1},
	}
	simple3D = []Offset{
		{0, 0, -1},
		{0, -1, 0},
		{-1, 0, 0},
	}
	complex3D = func() []Offset {
		offs := make([]Offset, 0, 13)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				offs = append(offs, Offset{-1, dy, dx})
			}
		}
		return append(offs, complex2D...)
	}()
)

// CausalOffsets returns the half-neighborhood visited before the current voxel in
// a depth, row, column raster scan. spatialRank must be 2 or 3.
func CausalOffsets(c Connectivity, spatialRank int) ([]Offset, error) {
	var offs []Offset
	switch {
	case spatialRank == 2 && c == Simple:
		offs = simple2D
	case spatialRank == 2 && c == Complex:
		offs = complex2D
	case spatialRank == 3 && c == Simple:
		offs = simple3D
	case spatialRank == 3 && c == Complex:
		offs = complex3D
	default:
		return nil, fmt.Errorf("no neighborhood for %s connectivity in %d spatial dimensions", c, spatialRank)
	}
	return append([]Offset(nil), offs...), nil
}
