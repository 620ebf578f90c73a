package benchmark

import (
	"fmt"
	"testing"

	"github.com/johnmalek312/android-ui-collector/internal/capture"
)

// BenchmarkNewFrame measures decoding and the blank-frame check on
// screenshot-sized PNGs.
func BenchmarkNewFrame(b *testing.B) {
	for _, size := range FrameSizes {
		b.Run(fmt.Sprintf("%dx%d", size[0], size[1]), func(b *testing.B) {
			data := newScreenshot(b, size[0], size[1])

			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))

			for i := 0; i < b.N; i++ {
				if _, err := capture.NewFrame(data, capture.Options{}); err != nil {
					b.Fatalf("NewFrame() error = %v", err)
				}
			}
		})
	}
}
