package postprocess

import (
	"fmt"
	"testing"

	"github.com/nvr-ai/go-detect/models"
)

// BenchmarkDecode_YOLOv8 decodes a full 640x640 YOLOv8 head (8400 candidates, 80 classes).
//
// @example
// go test -bench=BenchmarkDecode -benchmem ./models/postprocess
func BenchmarkDecode_YOLOv8(b *testing.B) {
	canon := randomCanonical(b, 1, 8400, len(models.YOLOClasses))
	cfg := DefaultConfig()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := Decode(canon, models.YOLOClasses, 1, 1, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecode_YOLOv8Parallel is BenchmarkDecode_YOLOv8 with four workers.
func BenchmarkDecode_YOLOv8Parallel(b *testing.B) {
	canon := randomCanonical(b, 1, 8400, len(models.YOLOClasses))
	cfg := DefaultConfig()
	cfg.Workers = 4

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := Decode(canon, models.YOLOClasses, 1, 1, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSuppress(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		candidates := randomCandidates(int64(n), n)
		cfg := DefaultConfig().NMS()

		b.Run(fmt.Sprintf("candidates=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Suppress(candidates, cfg)
			}
		})
	}
}
