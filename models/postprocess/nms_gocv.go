//go:build gocv

package postprocess

import (
	"image"

	"gocv.io/x/gocv"
)

// SuppressOpenCV runs OpenCV's dnn NMSBoxes over the candidates and returns the
// kept indices. It ignores ClassAware. Builds with the gocv tag only.
func SuppressOpenCV(candidates []Candidate, config NMSConfig) []int {
	if len(candidates) == 0 {
		return []int{}
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box.ToRectangle()
		scores[i] = c.Confidence
	}

	return gocv.NMSBoxes(boxes, scores, config.ScoreThreshold, config.IoUThreshold)
}
