package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"hyperblob/pkg/blob"
)

// Viewer maps the (T, C, Z, Y, X) axis order of a blob onto displayable planes.
// Intensities are rescaled from the tensor's value range onto 16-bit gray.
type Viewer[T blob.Numeric] struct {
	tensor *blob.Tensor[T]

	// layers is the number of (time, channel) combinations; channels is the C extent
	layers   int
	channels int

	// dimensions of one layer
	width  int
	height int
	depth  int

	// value range used for display scaling
	lo, hi float64
}

// NewViewer creates a viewer over a tensor with 2 or 3 spatial axes and at most
// two leading (time, channel) axes
func NewViewer[T blob.Numeric](t *blob.Tensor[T]) (*Viewer[T], error) {
	shape := t.Shape()
	ns := t.SpatialRank()
	if ns != 2 && ns != 3 {
		return nil, fmt.Errorf("%w: viewer needs 2 or 3 spatial axes, got %d", blob.ErrUnsupportedRank, ns)
	}
	lead := len(shape) - ns
	if lead > 2 {
		return nil, fmt.Errorf("%w: viewer supports at most (time, channel) leading axes, shape %s",
			blob.ErrUnsupportedRank, t.ShapeString())
	}

	v := &Viewer[T]{tensor: t, channels: 1, depth: 1}
	v.layers, _ = t.Layers()
	if lead > 0 {
		v.channels = shape[lead-1]
	}
	v.height, v.width = shape[len(shape)-2], shape[len(shape)-1]
	if ns == 3 {
		v.depth = shape[lead]
	}

	v.lo, v.hi = math.Inf(1), math.Inf(-1)
	for _, x := range t.Data() {
		f := float64(x)
		v.lo = math.Min(v.lo, f)
		v.hi = math.Max(v.hi, f)
	}
	return v, nil
}

// Layers returns the number of (time, channel) layers
func (v *Viewer[T]) Layers() int { return v.layers }

// Dims returns the width, height and depth of one layer
func (v *Viewer[T]) Dims() (width, height, depth int) { return v.width, v.height, v.depth }

func (v *Viewer[T]) gray(x T) color.Gray16 {
	if v.hi <= v.lo {
		return color.Gray16{}
	}
	s := (float64(x) - v.lo) / (v.hi - v.lo)
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, s*65535)))}
}

// ExtractSlice extracts a 2D plane of one (time, channel) layer along the given axis
func (v *Viewer[T]) ExtractSlice(layer int, axis string, position int) (image.Image, error) {
	if layer < 0 || layer >= v.layers {
		return nil, fmt.Errorf("layer %d out of range [0, %d)", layer, v.layers)
	}
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	data := v.tensor.Data()
	base := layer * v.width * v.height * v.depth
	at := func(x, y, z int) T {
		return data[base+z*v.width*v.height+y*v.width+x]
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		img = image.NewGray16(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				img.SetGray16(z, y, v.gray(at(position, y, z)))
			}
		}

	case "y", "Y":
		// XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, z, v.gray(at(x, position, z)))
			}
		}

	case "z", "Z":
		// XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, y, v.gray(at(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSliceSequence extracts and saves every plane of a layer along the specified axis
func (v *Viewer[T]) SaveSliceSequence(layer int, axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(layer, axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_l%02d_%s_%03d.png", layer, axis, pos))
		if err := SaveImage(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// LabelColor returns a stable color for a component id; 0 (background) is black
func LabelColor(label int32) color.RGBA {
	if label <= 0 {
		return color.RGBA{A: 255}
	}
	// Golden-ratio hue stepping keeps neighboring ids visually distinct.
	h := math.Mod(float64(label)*0.618033988749895, 1)
	r, g, b := hsvToRGB(h, 0.65, 0.95)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(math.Round(r * 255)), uint8(math.Round(g * 255)), uint8(math.Round(b * 255))
}

// RenderLabels draws the z-plane of one layer of a label tensor in label colors
func RenderLabels(labels *blob.Tensor[int32], layer, z int) (image.Image, error) {
	v, err := NewViewer(labels)
	if err != nil {
		return nil, err
	}
	return v.labelPlane(layer, z)
}

func (v *Viewer[T]) labelPlane(layer, z int) (image.Image, error) {
	if layer < 0 || layer >= v.layers {
		return nil, fmt.Errorf("layer %d out of range [0, %d)", layer, v.layers)
	}
	if z < 0 || z >= v.depth {
		return nil, fmt.Errorf("position %d exceeds depth %d", z, v.depth)
	}

	data := v.tensor.Data()
	base := layer*v.width*v.height*v.depth + z*v.width*v.height
	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			img.SetRGBA(x, y, LabelColor(int32(data[base+y*v.width+x])))
		}
	}
	return img, nil
}

// SaveLabelSequence writes every z-plane of every layer of a label tensor as PNG
// and returns the number of files written
func SaveLabelSequence(labels *blob.Tensor[int32], outputDir string) (int, error) {
	v, err := NewViewer(labels)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	written := 0
	for l := 0; l < v.layers; l++ {
		for z := 0; z < v.depth; z++ {
			img, err := v.labelPlane(l, z)
			if err != nil {
				return written, err
			}
			name := fmt.Sprintf("labels_t%02d_c%02d_z%03d.png", l/v.channels, l%v.channels, z)
			if err := SaveImage(img, filepath.Join(outputDir, name)); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// SaveImage writes img as PNG, or as JPEG when the filename ends in .jpg/.jpeg
func SaveImage(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(file, img)
	}
}
