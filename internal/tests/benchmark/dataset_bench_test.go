package benchmark

import (
	"testing"

	"github.com/johnmalek312/android-ui-collector/internal/storage/dataset"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
)

func prefillDatasets(b *testing.B, count int) *dataset.Store {
	b.Helper()
	store, err := dataset.Open(dataset.Config{Dir: b.TempDir(), Logger: logger.Discard()})
	if err != nil {
		b.Fatalf("Open() error = %v", err)
	}
	for i := 0; i < count; i++ {
		if _, err := store.AppendPair(newPair(int64(1_700_000_000 + i))); err != nil {
			b.Fatalf("AppendPair() error = %v", err)
		}
	}
	return store
}

// BenchmarkDatasetAppendPair measures a commit's dataset writes as the
// files grow. Each append rewrites the whole file.
func BenchmarkDatasetAppendPair(b *testing.B) {
	runWithEntryCounts(b, SmallEntryCounts, func(b *testing.B, count int) {
		store := prefillDatasets(b, count)
		base := int64(1_800_000_000)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := store.AppendPair(newPair(base + int64(i))); err != nil {
				b.Fatalf("AppendPair() error = %v", err)
			}
		}

		b.StopTimer()
		reportMemory(b, "mem")
	})
}

// BenchmarkDatasetSnapshot measures reading a dataset for upload.
func BenchmarkDatasetSnapshot(b *testing.B) {
	runWithEntryCounts(b, EntryCounts, func(b *testing.B, count int) {
		store := prefillDatasets(b, count)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			data, err := store.Snapshot(store.CubeName())
			if err != nil {
				b.Fatalf("Snapshot() error = %v", err)
			}
			b.SetBytes(int64(len(data)))
		}
	})
}

// BenchmarkDatasetCubes measures decoding the cube dataset.
func BenchmarkDatasetCubes(b *testing.B) {
	runWithEntryCounts(b, SmallEntryCounts, func(b *testing.B, count int) {
		store := prefillDatasets(b, count)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			cubes, err := store.Cubes()
			if err != nil {
				b.Fatalf("Cubes() error = %v", err)
			}
			if len(cubes) != count {
				b.Fatalf("Cubes() = %d entries, want %d", len(cubes), count)
			}
		}
	})
}
