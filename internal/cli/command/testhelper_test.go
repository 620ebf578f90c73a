package command

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/urfave/cli/v2"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/storage/dataset"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
)

// syncBuffer guards a bytes.Buffer shared by log and spinner goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runApp runs the CLI with args and returns stdout, stderr and the error.
func runApp(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("UICOLLECTOR_CONFIG", "")

	var stdout, stderr syncBuffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"uicollector"}, args...))
	return stdout.String(), stderr.String(), err
}

// writeConfig writes a YAML configuration file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uicollector.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// screenshotPNG returns a two-tone PNG that passes the blank-frame check.
func screenshotPNG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(400, 400, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
	img = imaging.Paste(img, imaging.New(200, 120, color.NRGBA{R: 240, G: 240, B: 240, A: 255}), image.Pt(100, 80))
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testPair(ts int64, desc string) *domain.AnnotationPair {
	shot := domain.ScreenshotName(ts)
	points := []domain.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.5}, {X: 0.1, Y: 0.5}}
	return &domain.AnnotationPair{
		Cube: domain.CubeAnnotation{
			Screenshot:  shot,
			Timestamp:   ts,
			Points:      points,
			Description: desc,
		},
		Center: domain.CenterPointAnnotation{
			Screenshot:  shot,
			Timestamp:   ts,
			CenterPoint: domain.Centroid(points),
			Description: desc + " center",
		},
	}
}

// seedDatasets appends n pairs to the default datasets under dir.
func seedDatasets(t *testing.T, dir string, n int) *dataset.Store {
	t.Helper()
	store, err := dataset.Open(dataset.Config{Dir: dir, Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("dataset.Open() error = %v", err)
	}
	for i := 0; i < n; i++ {
		if _, err := store.AppendPair(testPair(int64(1_700_000_000+i), "item "+string(rune('A'+i)))); err != nil {
			t.Fatalf("AppendPair() error = %v", err)
		}
	}
	return store
}
