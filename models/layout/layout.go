package layout

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Layout is the arrangement of a (1, d1, d2) output tensor.
type Layout int

const (
	// Interleaved has one candidate per row: cx, cy, w, h, [objectness], class scores...
	Interleaved Layout = iota
	// Transposed has one field per row, across all candidates. It must be transposed
	// before decoding.
	Transposed
)

func (l Layout) String() string {
	switch l {
	case Interleaved:
		return "interleaved"
	case Transposed:
		return "transposed"
	default:
		return "unknown"
	}
}

// Convention is the per-row field encoding, resolved from the layout.
type Convention int

const (
	// WithObjectness rows are cx, cy, w, h, objectness, score_0..score_N (YOLOv5 style).
	WithObjectness Convention = iota
	// ScoreOnly rows are cx, cy, w, h, score_0..score_N (YOLOv8 style).
	ScoreOnly
)

func (c Convention) String() string {
	switch c {
	case WithObjectness:
		return "objectness"
	case ScoreOnly:
		return "score-only"
	default:
		return "unknown"
	}
}

// BoxFields is the number of leading box fields (cx, cy, w, h) in every row.
const BoxFields = 4

// ScoreOffset returns the index of the first class score in a row.
func (c Convention) ScoreOffset() int {
	if c == WithObjectness {
		return BoxFields + 1
	}
	return BoxFields
}

// Canonical is a detection output arranged as Rows contiguous rows of Fields floats.
type Canonical struct {
	Data       []float32
	Rows       int
	Fields     int
	Layout     Layout
	Convention Convention
}

// Row returns the fields of candidate i. The slice aliases the canonical buffer.
func (c *Canonical) Row(i int) []float32 {
	start := i * c.Fields
	return c.Data[start : start+c.Fields : start+c.Fields]
}

// Empty reports whether there are no candidates to decode.
func (c *Canonical) Empty() bool {
	return c.Rows == 0 || c.Fields == 0
}

// NumClasses returns the number of class score fields per row.
func (c *Canonical) NumClasses() int {
	return c.Fields - c.Convention.ScoreOffset()
}

// Normalize resolves the layout of a (1, d1, d2) tensor and returns it in canonical
// one-candidate-per-row form.
//
// The larger of d1 and d2 is the candidate count. When d2 > d1 the tensor is
// Transposed: it is transposed to (d2, d1) and uses the ScoreOnly convention.
// Otherwise it is already Interleaved, the buffer is passed through unchanged, and
// the WithObjectness convention applies.
//
// A tensor with no values is a valid empty result.
//
// Arguments:
//   - raw: The model output.
//
// Returns:
//   - The canonical view.
//   - An error wrapping ErrShape if the shape is invalid or rows are too short for
//     the resolved convention.
//
// @example
// raw, _ := NewRawTensor(output, 1, 84, 8400)
// canon, err := Normalize(raw) // canon.Rows == 8400, canon.Fields == 84
func Normalize(raw *RawTensor) (*Canonical, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	d1, d2 := raw.Shape[1], raw.Shape[2]

	if d1 == 0 || d2 == 0 {
		return &Canonical{Data: raw.Data, Layout: Interleaved, Convention: WithObjectness}, nil
	}

	if d2 <= d1 {
		canon := &Canonical{
			Data:       raw.Data,
			Rows:       d1,
			Fields:     d2,
			Layout:     Interleaved,
			Convention: WithObjectness,
		}
		return canon, checkFields(canon)
	}

	data, err := transpose(raw.Data, d1, d2)
	if err != nil {
		return nil, err
	}

	canon := &Canonical{
		Data:       data,
		Rows:       d2,
		Fields:     d1,
		Layout:     Transposed,
		Convention: ScoreOnly,
	}
	return canon, checkFields(canon)
}

func checkFields(c *Canonical) error {
	if c.NumClasses() < 1 {
		return errors.Wrapf(ErrShape, "%s rows need at least %d fields, got %d",
			c.Convention, c.Convention.ScoreOffset()+1, c.Fields)
	}
	return nil
}

// transpose returns a new (cols, rows) row-major copy of a (rows, cols) matrix.
// The input buffer is left untouched.
func transpose(data []float32, rows, cols int) ([]float32, error) {
	// A single row or column has the same memory order either way.
	if rows == 1 || cols == 1 {
		out := make([]float32, len(data))
		copy(out, data)
		return out, nil
	}

	dense := tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(data))
	transposed, err := tensor.Transpose(dense)
	if err != nil {
		return nil, errors.Wrapf(err, "transposing %dx%d output", rows, cols)
	}

	out, ok := transposed.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("unexpected transposed data type %T", transposed.Data())
	}
	return out, nil
}
