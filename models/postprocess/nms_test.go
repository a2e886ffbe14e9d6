package postprocess

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/images"
)

func candidate(class int, conf float32, left, top, width, height int) Candidate {
	return Candidate{
		ClassID:    class,
		Confidence: conf,
		Box:        images.Rect{Left: left, Top: top, Width: width, Height: height},
	}
}

// TestSuppress_ClassAgnostic checks that overlapping boxes of different classes
// suppress each other.
//
// @example
// go test -v -run TestSuppress_ClassAgnostic
func TestSuppress_ClassAgnostic(t *testing.T) {
	candidates := []Candidate{
		candidate(0, 0.8, 0, 0, 100, 90),  // IoU with the next box is 0.9
		candidate(1, 0.9, 0, 0, 100, 100), // higher confidence, other class
	}
	require.InDelta(t, 0.9, images.CalculateIoU(candidates[0].Box, candidates[1].Box), 1e-6)

	cfg := DefaultConfig().NMS()
	assert.Equal(t, []int{1}, Suppress(candidates, cfg))

	cfg.ClassAware = true
	assert.Equal(t, []int{1, 0}, Suppress(candidates, cfg))
}

func TestSuppress_IoUBoundary(t *testing.T) {
	// IoU is exactly 0.5.
	candidates := []Candidate{
		candidate(0, 0.9, 0, 0, 10, 10),
		candidate(0, 0.8, 0, 0, 10, 5),
	}

	tests := []struct {
		name      string
		threshold float32
		expected  []int
	}{
		{"IoU equal to threshold is kept", 0.5, []int{0, 1}},
		{"IoU just above threshold is suppressed", math32.Nextafter(0.5, 0), []int{0}},
		{"lower threshold suppresses", 0.45, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NMSConfig{ScoreThreshold: 0.4, IoUThreshold: tt.threshold}
			assert.Equal(t, tt.expected, Suppress(candidates, cfg))
		})
	}
}

func TestSuppress_SelectionOrder(t *testing.T) {
	candidates := []Candidate{
		candidate(0, 0.5, 0, 0, 10, 10),
		candidate(0, 0.9, 100, 100, 10, 10),
		candidate(0, 0.7, 200, 200, 10, 10),
		candidate(0, 0.7, 300, 300, 10, 10), // tie with index 2
	}

	assert.Equal(t, []int{1, 2, 3, 0}, Suppress(candidates, DefaultConfig().NMS()))
}

func TestSuppress_ScoreGate(t *testing.T) {
	candidates := []Candidate{
		candidate(0, 0.4, 0, 0, 10, 10), // equal to score threshold
		candidate(0, 0.41, 50, 50, 10, 10),
		candidate(0, math32.NaN(), 100, 100, 10, 10),
	}

	assert.Equal(t, []int{1}, Suppress(candidates, DefaultConfig().NMS()))
}

func TestSuppress_SuppressedBoxDoesNotSuppress(t *testing.T) {
	// B overlaps A and C, but A and C do not overlap. Once A removes B, C survives.
	candidates := []Candidate{
		candidate(0, 0.9, 0, 0, 10, 10), // A
		candidate(0, 0.8, 4, 0, 10, 10), // B: IoU 60/140 with A and with C
		candidate(0, 0.7, 8, 0, 10, 10), // C: IoU 20/180 with A
	}

	cfg := NMSConfig{ScoreThreshold: 0.4, IoUThreshold: 0.3}
	assert.Equal(t, []int{0, 2}, Suppress(candidates, cfg))
}

func TestSuppress_DegenerateBoxes(t *testing.T) {
	candidates := []Candidate{
		candidate(0, 0.9, 5, 5, 0, 0),
		candidate(0, 0.8, 5, 5, 0, 0),
		candidate(0, 0.7, 0, 0, 10, 10),
		candidate(1, 0.6, 100, 100, 0, 4),
	}

	// Zero-area boxes suppress each other wherever they are, but not real boxes.
	assert.Equal(t, []int{0, 2}, Suppress(candidates, DefaultConfig().NMS()))

	cfg := DefaultConfig().NMS()
	cfg.ClassAware = true
	assert.Equal(t, []int{0, 2, 3}, Suppress(candidates, cfg))
}

func TestSuppress_Empty(t *testing.T) {
	kept := Suppress(nil, DefaultConfig().NMS())
	assert.NotNil(t, kept)
	assert.Empty(t, kept)
	assert.Empty(t, ApplyGreedyNMS(nil, DefaultConfig().NMS()))
}

func randomCandidates(seed int64, n int) []Candidate {
	rng := rand.New(rand.NewSource(seed))
	candidates := make([]Candidate, n)
	for i := range candidates {
		candidates[i] = candidate(
			rng.Intn(3),
			0.3+0.7*rng.Float32(),
			rng.Intn(300), rng.Intn(300), 10+rng.Intn(80), 10+rng.Intn(80),
		)
	}
	return candidates
}

func TestSuppress_Idempotent(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		cfg := DefaultConfig().NMS()
		first := ApplyGreedyNMS(randomCandidates(seed, 300), cfg)
		require.NotEmpty(t, first)

		again := make([]Candidate, len(first))
		for i, d := range first {
			again[i] = Candidate(d)
		}

		assert.Equal(t, first, ApplyGreedyNMS(again, cfg), "seed %d", seed)
	}
}

func TestSuppress_KeptBoxesDoNotOverlap(t *testing.T) {
	cfg := DefaultConfig().NMS()
	kept := ApplyGreedyNMS(randomCandidates(11, 400), cfg)

	for i := range kept {
		for j := i + 1; j < len(kept); j++ {
			assert.LessOrEqual(t, images.CalculateIoU(kept[i].Box, kept[j].Box), cfg.IoUThreshold)
		}
		if i > 0 {
			assert.GreaterOrEqual(t, kept[i-1].Confidence, kept[i].Confidence)
		}
	}
}

func TestApplyGreedyNMS_MapsCandidates(t *testing.T) {
	candidates := []Candidate{
		candidate(2, 0.6, 0, 0, 10, 10),
		candidate(5, 0.95, 40, 40, 10, 10),
	}

	detections := ApplyGreedyNMS(candidates, DefaultConfig().NMS())
	assert.Equal(t, []Detection{Detection(candidates[1]), Detection(candidates[0])}, detections)
}
