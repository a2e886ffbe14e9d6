// Package images - Pixel-space geometry for detection boxes.
package images

import (
	"fmt"
	"image"
)

// Rect is an axis-aligned box in original image pixel coordinates.
//
// Left/Top is the top-left corner. Width and Height are never negative for rects
// produced by the decoder, but zero-sized (degenerate) rects are allowed.
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Right returns the exclusive right edge.
func (r Rect) Right() int {
	return r.Left + r.Width
}

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int {
	return r.Top + r.Height
}

// Area returns the area in pixels. Degenerate rects have an area of 0.
func (r Rect) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool {
	return r.Area() == 0
}

// ToRectangle converts r to an image.Rectangle.
//
// Returns:
//   - The equivalent image.Rectangle with Max as the exclusive corner.
//
// @example
// r := Rect{Left: 10, Top: 20, Width: 30, Height: 40}
// fmt.Println(r.ToRectangle()) // (10,20)-(40,60)
func (r Rect) ToRectangle() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right(), r.Bottom())
}

// FromRectangle converts an image.Rectangle to a Rect.
func FromRectangle(rect image.Rectangle) Rect {
	rect = rect.Canon()
	return Rect{
		Left:   rect.Min.X,
		Top:    rect.Min.Y,
		Width:  rect.Dx(),
		Height: rect.Dy(),
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.Left, r.Top, r.Width, r.Height)
}

// CalculateIoU returns the Intersection over Union of two rects.
//
// IoU = area(r ∩ o) / area(r ∪ o), a value in [0, 1]. Rects that only touch produce 0.
// Two rects with no area at all produce 1 wherever they are, following OpenCV's
// jaccardDistance, so zero-area duplicates suppress each other. A zero-area rect
// against a real one produces 0.
//
// Arguments:
//   - r: The first rect.
//   - o: The other rect to compare against.
//
// Returns:
//   - float32: The IoU score between 0.0 and 1.0.
//
// Example Usage:
// ```go
//
//	a := Rect{Left: 0, Top: 0, Width: 10, Height: 10}
//	b := Rect{Left: 5, Top: 5, Width: 10, Height: 10}
//
//	fmt.Printf("%f\n", CalculateIoU(a, b)) // 25 / (100 + 100 - 25) = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	if r.Area()+o.Area() <= 0 {
		return 1.0
	}

	// The intersection starts where both rects have begun and ends where the first one ends.
	ix1 := max(r.Left, o.Left)
	iy1 := max(r.Top, o.Top)
	ix2 := min(r.Right(), o.Right())
	iy2 := min(r.Bottom(), o.Bottom())

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	// Inclusion-exclusion.
	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}

	// Areas past 2^24 are not exact in float32.
	return float32(float64(interArea) / float64(unionArea))
}
