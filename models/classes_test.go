package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassNames(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ClassNames
	}{
		{
			name:     "unix newlines",
			input:    "person\ncar\ndog\n",
			expected: ClassNames{"person", "car", "dog"},
		},
		{
			name:     "windows newlines and padding",
			input:    "  person \r\ncar\r\n",
			expected: ClassNames{"person", "car"},
		},
		{
			name:     "inner blank line keeps its index",
			input:    "person\n\ndog\n\n\n",
			expected: ClassNames{"person", "", "dog"},
		},
		{
			name:     "no trailing newline",
			input:    "person",
			expected: ClassNames{"person"},
		},
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, err := ParseClassNames(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestLoadClassNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("cat\ndog\n"), 0o644))

	names, err := LoadClassNames(path)
	require.NoError(t, err)
	assert.Equal(t, ClassNames{"cat", "dog"}, names)

	_, err = LoadClassNames(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestClassNames_Lookup(t *testing.T) {
	names := ClassNames{"person", "car"}

	name, err := names.Name(1)
	require.NoError(t, err)
	assert.Equal(t, "car", name)

	_, err = names.Name(2)
	assert.True(t, errors.Is(err, ErrUnknownClass))

	_, err = names.Name(-1)
	assert.True(t, errors.Is(err, ErrUnknownClass))

	idx, err := names.Index("person")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, err = names.Index("truck")
	assert.True(t, errors.Is(err, ErrUnknownClass))
}

func TestYOLOClasses(t *testing.T) {
	assert.Len(t, YOLOClasses, 80)
	assert.Equal(t, "person", YOLOClasses[0])
	assert.Equal(t, "toothbrush", YOLOClasses[79])
}
