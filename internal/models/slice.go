package models

import (
	"image"
)

// Slice represents a single annotation or intensity plane loaded from disk
type Slice struct {
	// Image is the decoded plane
	Image image.Image

	// Index is the position of this slice in the sequence
	Index int

	// Filename is the original filename of the slice
	Filename string
}

// Stack is an ordered sequence of equally sized slices forming a z-stack
type Stack struct {
	// Slices are ordered by depth
	Slices []Slice

	// Width and Height are the plane dimensions in pixels
	Width, Height int
}

// Depth is the number of slices in the stack
func (s *Stack) Depth() int {
	return len(s.Slices)
}
