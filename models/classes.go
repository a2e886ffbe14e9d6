// Package models - Class label sets for detection model outputs.
package models

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ClassNames is the ordered list of labels a model was trained on. The class id
// decoded from a score vector indexes into it.
type ClassNames []string

// ErrUnknownClass is returned when a class id or name has no entry in a ClassNames.
var ErrUnknownClass = errors.New("unknown class")

// Name returns the label for the given class id.
//
// Arguments:
//   - idx: The class id decoded from the model output.
//
// Returns:
//   - The label and nil, or "" and ErrUnknownClass when idx is out of range.
func (c ClassNames) Name(idx int) (string, error) {
	if idx < 0 || idx >= len(c) {
		return "", errors.Wrapf(ErrUnknownClass, "index %d out of range for %d classes", idx, len(c))
	}
	return c[idx], nil
}

// Index returns the class id for a label.
func (c ClassNames) Index(name string) (int, error) {
	for i, n := range c {
		if n == name {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrUnknownClass, "name %q not found", name)
}

// ParseClassNames reads one label per line.
//
// Surrounding whitespace (including a trailing \r) is trimmed. Blank lines inside the
// list keep their position so ids stay aligned with the model, while trailing blank
// lines are dropped.
//
// Arguments:
//   - r: The reader holding the label list.
//
// Returns:
//   - The parsed ClassNames.
//   - An error if reading fails.
func ParseClassNames(r io.Reader) (ClassNames, error) {
	scanner := bufio.NewScanner(r)

	var names ClassNames
	for scanner.Scan() {
		names = append(names, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading class names")
	}

	for len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}

	return names, nil
}

// LoadClassNames reads a label list file, one label per line.
func LoadClassNames(path string) (ClassNames, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening class names %s", path)
	}
	defer f.Close()

	return ParseClassNames(f)
}

// YOLOClasses is the 80 COCO labels in the order YOLO models emit them (no background class).
var YOLOClasses = ClassNames{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}
