package postprocess

import (
	"math"
	"sync"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/layout"
)

// ErrOutOfRangeClass is returned when the tensor carries more class scores than
// there are class names, meaning the model and the label list do not match.
var ErrOutOfRangeClass = errors.New("class index out of range")

// Decode turns every row of a canonical tensor that passes the thresholds into a Candidate.
//
// WithObjectness rows are dropped when objectness < ConfidenceThreshold, then kept
// only if the best class score is > ScoreThreshold; their confidence is the
// objectness. ScoreOnly rows are kept if the best class score is > ScoreThreshold
// and use that score as confidence. Boxes are converted from center form in model
// input pixels to top-left form in original image pixels.
//
// Arguments:
//   - canon: The normalized model output.
//   - names: The class labels. It must have an entry for every class score channel.
//   - xFactor, yFactor: Original image size divided by model input size.
//   - cfg: Thresholds, rounding and worker count.
//
// Returns:
//   - The candidates in row order. An empty tensor yields an empty slice.
//   - An error wrapping ErrOutOfRangeClass or layout.ErrShape. No partial results are
//     returned on error.
//
// @example
// canon, _ := layout.Normalize(raw)
// xf, yf, _ := cfg.ScaleFactors(1920, 1080)
// candidates, err := Decode(canon, models.YOLOClasses, xf, yf, cfg)
func Decode(
	canon *layout.Canonical,
	names models.ClassNames,
	xFactor, yFactor float32,
	cfg Config,
) ([]Candidate, error) {
	if canon == nil {
		return nil, errors.Wrap(layout.ErrShape, "nil canonical tensor")
	}
	if canon.Empty() {
		return []Candidate{}, nil
	}

	numClasses := canon.NumClasses()
	if numClasses < 1 {
		return nil, errors.Wrapf(layout.ErrShape, "rows of %d fields carry no class scores", canon.Fields)
	}
	if len(canon.Data) < canon.Rows*canon.Fields {
		return nil, errors.Wrapf(layout.ErrShape, "%d rows of %d fields need %d values, have %d",
			canon.Rows, canon.Fields, canon.Rows*canon.Fields, len(canon.Data))
	}
	if len(names) < numClasses {
		return nil, errors.Wrapf(ErrOutOfRangeClass, "%d class score channels but %d class names",
			numClasses, len(names))
	}

	d := rowDecoder{
		convention: canon.Convention,
		numClasses: numClasses,
		names:      names,
		xFactor:    xFactor,
		yFactor:    yFactor,
		cfg:        cfg,
	}

	workers := cfg.Workers
	if workers <= 1 || canon.Rows < workers {
		return d.decodeRange(canon, 0, canon.Rows)
	}

	return d.decodeParallel(canon, workers)
}

// decodeParallel splits the rows into contiguous chunks and joins the results in
// chunk order, so the output matches a sequential decode.
func (d rowDecoder) decodeParallel(canon *layout.Canonical, workers int) ([]Candidate, error) {
	chunk := (canon.Rows + workers - 1) / workers
	parts := make([][]Candidate, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, canon.Rows)
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			parts[w], errs[w] = d.decodeRange(canon, start, end)
		}(w, start, end)
	}
	wg.Wait()

	total := 0
	for w := range parts {
		if errs[w] != nil {
			return nil, errs[w]
		}
		total += len(parts[w])
	}

	candidates := make([]Candidate, 0, total)
	for _, part := range parts {
		candidates = append(candidates, part...)
	}
	return candidates, nil
}

type rowDecoder struct {
	convention layout.Convention
	numClasses int
	names      models.ClassNames
	xFactor    float32
	yFactor    float32
	cfg        Config
}

func (d rowDecoder) decodeRange(canon *layout.Canonical, start, end int) ([]Candidate, error) {
	candidates := make([]Candidate, 0)
	for i := start; i < end; i++ {
		c, ok, err := d.decodeRow(canon.Row(i))
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		if ok {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

func (d rowDecoder) decodeRow(row []float32) (Candidate, bool, error) {
	var confidence float32

	if d.convention == layout.WithObjectness {
		objectness := row[layout.BoxFields]
		if math32.IsNaN(objectness) || objectness < d.cfg.ConfidenceThreshold {
			return Candidate{}, false, nil
		}
		confidence = objectness
	}

	offset := d.convention.ScoreOffset()
	classID, best := argmax(row[offset : offset+d.numClasses])
	if !(best > d.cfg.ScoreThreshold) {
		return Candidate{}, false, nil
	}
	if d.convention == layout.ScoreOnly {
		confidence = best
	}

	if classID >= len(d.names) {
		return Candidate{}, false, errors.Wrapf(ErrOutOfRangeClass, "class %d with %d names", classID, len(d.names))
	}

	return Candidate{
		ClassID:    classID,
		Confidence: confidence,
		Box:        d.box(row[0], row[1], row[2], row[3]),
	}, true, nil
}

// box converts a center-form box in model input pixels to a top-left rect in
// original image pixels. The corner is computed in float64 and the size in float32;
// truncated output at sub-pixel boundaries depends on that split.
func (d rowDecoder) box(cx, cy, w, h float32) images.Rect {
	left := (float64(cx) - 0.5*float64(w)) * float64(d.xFactor)
	top := (float64(cy) - 0.5*float64(h)) * float64(d.yFactor)
	width := w * d.xFactor
	height := h * d.yFactor

	if d.cfg.Rounding == RoundNearest {
		left = math.Round(left)
		top = math.Round(top)
		width = float32(math.Round(float64(width)))
		height = float32(math.Round(float64(height)))
	}

	return images.Rect{
		Left:   int(left),
		Top:    int(top),
		Width:  max(int(width), 0),
		Height: max(int(height), 0),
	}
}

// argmax returns the index and value of the first maximum. NaN scores never win;
// an all-NaN vector returns -Inf.
func argmax(scores []float32) (int, float32) {
	idx := 0
	best := math32.Inf(-1)
	for i, s := range scores {
		if s > best {
			idx = i
			best = s
		}
	}
	return idx, best
}
