package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/postprocess"
)

func TestPrintDetections(t *testing.T) {
	detections := []postprocess.Detection{
		{ClassID: 0, Confidence: 0.91, Box: images.Rect{Left: 10, Top: 20, Width: 30, Height: 40}},
		{ClassID: 7, Confidence: 0.5, Box: images.Rect{Left: -2, Top: 0, Width: 5, Height: 6}},
	}
	names := models.ClassNames{"person", "car"}

	var buf bytes.Buffer
	require.NoError(t, printDetections(&buf, detections, names, false))
	assert.Equal(t, "person:0.91 10 20 30 40\nclass_7:0.50 -2 0 5 6\n", buf.String())

	buf.Reset()
	require.NoError(t, printDetections(&buf, detections, names, true))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "person", decoded[0]["label"])
	assert.Equal(t, "class_7", decoded[1]["label"])
	assert.Equal(t, float64(10), decoded[0]["box"].(map[string]any)["left"])
}
