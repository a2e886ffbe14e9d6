package util

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// DType is the element type of a raw tensor dump.
type DType string

const (
	// Float32 is IEEE 754 single precision, little-endian.
	Float32 DType = "fp32"
	// Float16 is IEEE 754 half precision, little-endian.
	Float16 DType = "fp16"
)

// ParseDType accepts "fp32"/"float32" and "fp16"/"float16", case-insensitively.
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fp32", "float32", "":
		return Float32, nil
	case "fp16", "float16", "half":
		return Float16, nil
	default:
		return "", errors.Errorf("unsupported dtype %q", s)
	}
}

// Size returns the number of bytes per element.
func (d DType) Size() int {
	if d == Float16 {
		return 2
	}
	return 4
}

// ReadTensor decodes a raw little-endian dump into float32 values.
//
// Arguments:
//   - r: The dump contents, with no header.
//   - dtype: The element type.
//
// Returns:
//   - The decoded values.
//   - An error if reading fails or the byte count is not a multiple of the element size.
func ReadTensor(r io.Reader, dtype DType) ([]float32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading tensor")
	}

	size := dtype.Size()
	if len(raw)%size != 0 {
		return nil, errors.Errorf("tensor of %d bytes is not a multiple of %d-byte %s elements", len(raw), size, dtype)
	}

	values := make([]float32, len(raw)/size)
	for i := range values {
		chunk := raw[i*size : (i+1)*size]
		if dtype == Float16 {
			values[i] = float16.Frombits(binary.LittleEndian.Uint16(chunk)).Float32()
		} else {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(chunk))
		}
	}
	return values, nil
}

// LoadTensorFile reads a raw tensor dump from disk.
func LoadTensorFile(path string, dtype DType) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening tensor %s", path)
	}
	defer f.Close()

	values, err := ReadTensor(f, dtype)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return values, nil
}

// ParseShape parses a comma or x separated dimension list such as "1,84,8400" or "1x25200x85".
func ParseShape(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == 'x' || r == 'X' || r == ' '
	})
	if len(fields) == 0 {
		return nil, errors.Errorf("empty shape %q", s)
	}

	dims := make([]int, len(fields))
	for i, f := range fields {
		d, err := strconv.Atoi(f)
		if err != nil || d < 0 || d > math.MaxInt32 {
			return nil, errors.Errorf("invalid dimension %q in shape %q", f, s)
		}
		dims[i] = d
	}
	return dims, nil
}
