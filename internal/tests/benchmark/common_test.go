package benchmark

import (
	"bytes"
	"fmt"
	"image/color"
	"runtime"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
)

// EntryCounts defines the dataset sizes for benchmarking.
var EntryCounts = []int{100, 1000, 5000, 20000}

// SmallEntryCounts for quick benchmarks.
var SmallEntryCounts = []int{100, 1000}

// FrameSizes are typical phone screenshot dimensions.
var FrameSizes = [][2]int{{720, 1600}, {1080, 2400}}

// newPair builds an annotation pair for capture time ts.
func newPair(ts int64) *domain.AnnotationPair {
	name := domain.ScreenshotName(ts)
	points := []domain.Point{{X: 0.12, Y: 0.2}, {X: 0.48, Y: 0.2}, {X: 0.48, Y: 0.31}, {X: 0.12, Y: 0.31}}
	return &domain.AnnotationPair{
		Cube: domain.CubeAnnotation{
			Screenshot:  name,
			Timestamp:   ts,
			Points:      points,
			Description: fmt.Sprintf("button %d", ts),
		},
		Center: domain.CenterPointAnnotation{
			Screenshot:  name,
			Timestamp:   ts,
			CenterPoint: domain.Centroid(points),
			Description: fmt.Sprintf("button %d center", ts),
		},
	}
}

// newScreenshot encodes a solid PNG of the given size.
func newScreenshot(b *testing.B, width, height int) []byte {
	b.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 30, G: 90, B: 160, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		b.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithEntryCounts runs a benchmark function with various dataset sizes.
func runWithEntryCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("entries_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
