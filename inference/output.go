// Package inference - Bridges ONNX Runtime output tensors to the detection pipeline.
//
// Nothing here creates or runs a session: callers own the ORT environment and hand
// over the output tensor after Run.
package inference

import (
	"context"
	"math"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/layout"
	"github.com/nvr-ai/go-detect/models/postprocess"
)

// FromShape wraps an output buffer described by an ORT shape as a RawTensor.
//
// Arguments:
//   - shape: The ORT output shape, e.g. ort.NewShape(1, 84, 8400).
//   - data: The output buffer. It is not copied.
//
// Returns:
//   - The RawTensor, or an error wrapping layout.ErrShape.
//
// @example
// raw, err := FromShape(ort.NewShape(1, 84, 8400), output.GetData())
func FromShape(shape ort.Shape, data []float32) (*layout.RawTensor, error) {
	dims := make([]int, len(shape))
	for i, d := range shape {
		if d < 0 || d > math.MaxInt32 {
			return nil, errors.Wrapf(layout.ErrShape, "dimension %d of %v out of range", i, shape)
		}
		dims[i] = int(d)
	}
	return layout.NewRawTensor(data, dims...)
}

// FromTensor wraps a float32 ORT output tensor as a RawTensor. The tensor must stay
// alive (not Destroyed) while the RawTensor is in use.
func FromTensor(t *ort.Tensor[float32]) (*layout.RawTensor, error) {
	if t == nil {
		return nil, errors.Wrap(layout.ErrShape, "nil output tensor")
	}
	return FromShape(t.GetShape(), t.GetData())
}

// Detect decodes a session output tensor into detections for an image of the given size.
//
// Arguments:
//   - ctx: Checked for cancellation before decoding.
//   - p: The pipeline holding thresholds and the model input size.
//   - output: The session's float32 output tensor.
//   - names: The model's class labels.
//   - imageWidth, imageHeight: The original image size.
//
// Returns:
//   - Detections in suppression order.
//   - An error if ctx is done, the shape is invalid, or the labels do not match.
func Detect(
	ctx context.Context,
	p *postprocess.Pipeline,
	output *ort.Tensor[float32],
	names models.ClassNames,
	imageWidth, imageHeight int,
) ([]postprocess.Detection, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	raw, err := FromTensor(output)
	if err != nil {
		return nil, err
	}
	return p.Process(raw, names, imageWidth, imageHeight)
}
