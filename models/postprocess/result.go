// Package postprocess - Decodes detection outputs into boxes and suppresses duplicates.
package postprocess

import (
	"fmt"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models"
)

// Candidate is a decoded detection proposal before suppression.
type Candidate struct {
	// The predicted class index.
	ClassID int `json:"class_id" yaml:"class_id"`
	// The confidence: objectness for WithObjectness rows, best class score for ScoreOnly rows.
	Confidence float32 `json:"confidence" yaml:"confidence"`
	// The box in original image pixels.
	Box images.Rect `json:"box" yaml:"box"`
}

// Detection is a Candidate that survived suppression.
type Detection Candidate

// Label renders "name:0.87" for the detection's class.
//
// An id without a name falls back to "class_<id>".
func (d Detection) Label(names models.ClassNames) string {
	name, err := names.Name(d.ClassID)
	if err != nil {
		name = fmt.Sprintf("class_%d", d.ClassID)
	}
	return fmt.Sprintf("%s:%.2f", name, d.Confidence)
}

func (d Detection) String() string {
	return fmt.Sprintf("class=%d conf=%.2f box=%s", d.ClassID, d.Confidence, d.Box)
}
