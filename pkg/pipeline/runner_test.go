package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/scribbleink/scribble/pkg/cache"
	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// testImagePNG encodes a uniform grayscale image for pipeline input.
func testImagePNG(t *testing.T, w, h int, v uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func blackSquareOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		ImageData:           testImagePNG(t, 4, 4, 0),
		Layers:              1,
		Prefactor:           1,
		MaxLineLengthFactor: 0.5,
		Formats:             []string{FormatPNG, FormatSVG, FormatJSON},
	}
}

func TestRunnerExecute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), blackSquareOptions(t))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Stats.FieldWidth != 4 || result.Stats.FieldHeight != 4 {
		t.Errorf("field size = %dx%d, want 4x4", result.Stats.FieldWidth, result.Stats.FieldHeight)
	}
	// A single always-sampled layer picks up every pixel; unit spacing
	// never beats the one-pixel cell width, so no segments are emitted.
	if result.Stats.Points != 16 {
		t.Errorf("points = %d, want 16", result.Stats.Points)
	}
	if result.Stats.Segments != 0 {
		t.Errorf("segments = %d, want 0", result.Stats.Segments)
	}

	if len(result.Artifacts) != 3 {
		t.Fatalf("artifact count = %d, want 3", len(result.Artifacts))
	}
	if !bytes.HasPrefix(result.Artifacts[FormatPNG], []byte("\x89PNG")) {
		t.Error("png artifact missing PNG signature")
	}
	if !bytes.Contains(result.Artifacts[FormatSVG], []byte("</svg>")) {
		t.Error("svg artifact is not a closed SVG document")
	}
	if !bytes.Contains(result.Artifacts[FormatJSON], []byte(`"segments": []`)) {
		t.Error("json artifact should contain an empty segments array")
	}

	if result.FieldHash == "" || result.PathHash == "" {
		t.Error("content hashes should be populated")
	}
	if result.CacheInfo.PathHit || result.CacheInfo.RenderHit {
		t.Error("null cache should never report hits")
	}
}

func TestRunnerExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	opts := blackSquareOptions(t)
	ctx := context.Background()

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.CacheInfo.PathHit || first.CacheInfo.RenderHit {
		t.Error("first run should not hit the cache")
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheInfo.PathHit {
		t.Error("second run should hit the path cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the artifact cache")
	}
	if second.PathHash != first.PathHash {
		t.Errorf("path hash changed across runs: %s vs %s", second.PathHash, first.PathHash)
	}
	for format, data := range first.Artifacts {
		if !bytes.Equal(second.Artifacts[format], data) {
			t.Errorf("%s artifact differs between cached and fresh runs", format)
		}
	}

	// Refresh recomputes but still produces identical bytes.
	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute() error = %v", err)
	}
	if third.CacheInfo.PathHit || third.CacheInfo.RenderHit {
		t.Error("refresh run should bypass the cache")
	}
	if !bytes.Equal(third.Artifacts[FormatPNG], first.Artifacts[FormatPNG]) {
		t.Error("refresh run should reproduce identical artifacts")
	}
}

func TestRunnerExecuteMissingInput(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	opts := Options{Input: filepath.Join(t.TempDir(), "missing.png")}
	_, err := runner.Execute(context.Background(), opts)
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}

func TestRunnerExecuteUndecodableInput(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	opts := Options{ImageData: []byte("definitely not an image")}
	_, err := runner.Execute(context.Background(), opts)
	if err == nil {
		t.Fatal("expected an error for undecodable input")
	}
	if errors.GetCode(err) != errors.ErrCodeMalformedInput {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeMalformedInput)
	}
}

func TestRunnerLogsDegenerateLayers(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	runner := NewRunner(nil, nil, logger)
	defer runner.Close()

	// With exponent 1 the first layer has probability 0 and samples
	// nothing, which the pipeline reports as a skipped layer.
	opts := Options{
		ImageData: testImagePNG(t, 4, 4, 0),
		Layers:    3,
		Exponent:  1,
		Prefactor: 1,
		Formats:   []string{FormatSVG},
		Logger:    logger,
	}
	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "skipped degenerate layer") {
		t.Errorf("log output missing degenerate layer event:\n%s", out)
	}
	if !strings.Contains(out, "finished layer") {
		t.Errorf("log output missing layer completion events:\n%s", out)
	}
}

func TestRunnerForwardsLayerCallback(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	var got []int
	opts := Options{
		ImageData: testImagePNG(t, 4, 4, 0),
		Layers:    3,
		Exponent:  1,
		Prefactor: 1,
		Formats:   []string{FormatSVG},
		OnLayer: func(stat scribble.LayerStat) {
			got = append(got, stat.Index)
		},
	}
	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("callback indices = %v, want [0 1 2]", got)
	}
}
