// Package layout - Normalizes raw detection output tensors into one candidate per row.
package layout

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShape is returned when a tensor's shape cannot be decoded as a (1, d1, d2) detection output.
var ErrShape = errors.New("invalid tensor shape")

// RawTensor is a model output buffer plus its shape.
type RawTensor struct {
	// Data is the flat float32 buffer, row-major.
	Data []float32
	// Shape is (batch, d1, d2). Which of d1/d2 counts candidates depends on the layout.
	Shape []int
}

// NewRawTensor builds a RawTensor and validates it.
//
// Arguments:
//   - data: The flat output buffer.
//   - shape: The output dimensions, expected to be (1, d1, d2).
//
// Returns:
//   - The tensor, or an error wrapping ErrShape.
//
// @example
// raw, err := NewRawTensor(output, 1, 84, 8400)
func NewRawTensor(data []float32, shape ...int) (*RawTensor, error) {
	t := &RawTensor{Data: data, Shape: shape}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that the tensor has exactly three non-negative dimensions, a batch
// dimension of 1, and a buffer whose length matches the shape.
func (t *RawTensor) Validate() error {
	if t == nil {
		return errors.Wrap(ErrShape, "nil tensor")
	}
	if len(t.Shape) != 3 {
		return errors.Wrapf(ErrShape, "expected 3 dimensions, got %d %v", len(t.Shape), t.Shape)
	}
	for _, d := range t.Shape {
		if d < 0 {
			return errors.Wrapf(ErrShape, "negative dimension in %v", t.Shape)
		}
	}
	if t.Shape[0] != 1 {
		return errors.Wrapf(ErrShape, "batch dimension must be 1, got %d", t.Shape[0])
	}
	if n := t.Shape[1] * t.Shape[2]; n != len(t.Data) {
		return errors.Wrapf(ErrShape, "shape %v holds %d values, buffer has %d", t.Shape, n, len(t.Data))
	}
	return nil
}

func (t *RawTensor) String() string {
	return fmt.Sprintf("RawTensor%v", t.Shape)
}
