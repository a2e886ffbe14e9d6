package postprocess

import (
	"sort"

	"github.com/nvr-ai/go-detect/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	ScoreThreshold float32 // Candidates at or below this confidence are ignored.
	IoUThreshold   float32 // Overlap threshold for suppression.
	ClassAware     bool    // If true, suppress only within same class.
}

// NMS returns the suppression parameters of c.
func (c Config) NMS() NMSConfig {
	return NMSConfig{
		ScoreThreshold: c.ScoreThreshold,
		IoUThreshold:   c.NMSThreshold,
		ClassAware:     c.ClassAware,
	}
}

// Suppress performs greedy Non-Maximum Suppression and returns the indices of the
// candidates to keep, in selection order (descending confidence).
//
// Candidates whose confidence is not above ScoreThreshold are dropped first. The rest
// are ordered by confidence, ties by ascending index. The best remaining candidate is
// kept and every remaining candidate whose IoU with it is > IoUThreshold is
// discarded, until none remain. Unless ClassAware is set, boxes of different classes
// suppress each other.
//
// Arguments:
//   - candidates: Decoded candidates in any order.
//   - config: NMS configuration.
//
// Returns:
//   - Indices into candidates. Empty input returns an empty slice.
func Suppress(candidates []Candidate, config NMSConfig) []int {
	order := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if c.Confidence > config.ScoreThreshold {
			order = append(order, i)
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].Confidence > candidates[order[b]].Confidence
	})

	kept := make([]int, 0, len(order))
	used := make([]bool, len(order))

	for i := range order {
		if used[i] {
			continue
		}

		anchor := candidates[order[i]]
		kept = append(kept, order[i])
		used[i] = true

		for j := i + 1; j < len(order); j++ {
			if used[j] {
				continue
			}

			other := candidates[order[j]]
			if config.ClassAware && anchor.ClassID != other.ClassID {
				continue
			}

			// Suppress if IoU exceeds threshold
			if images.CalculateIoU(anchor.Box, other.Box) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return kept
}

// ApplyGreedyNMS runs Suppress and returns the surviving candidates as Detections,
// in selection order.
func ApplyGreedyNMS(candidates []Candidate, config NMSConfig) []Detection {
	kept := Suppress(candidates, config)

	detections := make([]Detection, len(kept))
	for i, idx := range kept {
		detections[i] = Detection(candidates[idx])
	}
	return detections
}
