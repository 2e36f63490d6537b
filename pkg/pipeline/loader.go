package pipeline

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"hyperblob/internal/models"
	"hyperblob/pkg/blob"
)

// LoadStack reads every PNG/JPEG in dir as one plane, ordered by the number
// embedded in each filename. All planes must share the same dimensions.
func LoadStack(dir string) (*models.Stack, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var imageFiles []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(file.Name())) {
		case ".png", ".jpg", ".jpeg":
			imageFiles = append(imageFiles, file.Name())
		}
	}
	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no PNG or JPEG images found in %s", dir)
	}

	sort.SliceStable(imageFiles, func(i, j int) bool {
		ni, nj := extractNumber(imageFiles[i]), extractNumber(imageFiles[j])
		if ni != nj {
			return ni < nj
		}
		return imageFiles[i] < imageFiles[j]
	})

	stack := &models.Stack{}
	for i, name := range imageFiles {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}

		bounds := img.Bounds()
		if i == 0 {
			stack.Width, stack.Height = bounds.Dx(), bounds.Dy()
		} else if bounds.Dx() != stack.Width || bounds.Dy() != stack.Height {
			return nil, fmt.Errorf("image %s is %dx%d, expected %dx%d",
				name, bounds.Dx(), bounds.Dy(), stack.Width, stack.Height)
		}

		stack.Slices = append(stack.Slices, models.Slice{Image: img, Index: i, Filename: name})
	}
	return stack, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() > 0 {
		if num, err := strconv.Atoi(digits.String()); err == nil {
			return num
		}
	}
	return 0
}

// loadImage decodes a PNG or JPEG file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// StackToTensor converts a stack into a float32 tensor with intensities in [0, 1].
//
// With three element sizes the stack becomes a (Z, Y, X) volume. With two, every
// slice is an independent 2-D plane and the result is (C, Y, X).
func StackToTensor(stack *models.Stack, elementSizeUm []float64) (*blob.Tensor[float32], error) {
	if stack == nil || stack.Depth() == 0 {
		return nil, fmt.Errorf("empty stack")
	}
	if n := len(elementSizeUm); n != 2 && n != 3 {
		return nil, fmt.Errorf("%w: need 2 or 3 element sizes, got %d", blob.ErrUnsupportedRank, n)
	}

	t, err := blob.New[float32]([]int{stack.Depth(), stack.Height, stack.Width}, elementSizeUm)
	if err != nil {
		return nil, err
	}

	data := t.Data()
	plane := stack.Width * stack.Height
	for z, s := range stack.Slices {
		bounds := s.Image.Bounds()
		for y := 0; y < stack.Height; y++ {
			for x := 0; x < stack.Width; x++ {
				r, _, _, _ := s.Image.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				// Convert 16-bit color to 0-1 range
				data[z*plane+y*stack.Width+x] = float32(r) / 65535.0
			}
		}
	}
	return t, nil
}
