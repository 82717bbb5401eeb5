package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scribbleink/scribble/pkg/cache"
	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/field"
	"github.com/scribbleink/scribble/pkg/render"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → generate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	f, fieldHash, err := r.LoadField(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.FieldHash = fieldHash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.FieldWidth = f.W
	result.Stats.FieldHeight = f.H

	r.Logger.Info("prepared density field",
		"width", f.W,
		"height", f.H,
		"scale", opts.Scale,
		"duration", result.Stats.LoadTime)

	// Stage 2: Generate
	genStart := time.Now()
	res, pathHit, err := r.GenerateWithCacheInfo(ctx, f, fieldHash, opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	result.Scribble = res
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.Points = res.Points
	result.Stats.Segments = res.Segments()
	result.CacheInfo.PathHit = pathHit

	// Compute path hash for cache keys and API responses
	if data, err := marshalResult(res); err == nil {
		result.PathHash = cache.Hash(data)
	}

	r.Logger.Info("generated path",
		"layers", opts.Layers,
		"points", res.Points,
		"segments", res.Segments(),
		"seed", opts.Seed,
		"duration", result.Stats.GenerateTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res, result.PathHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadField reads the source image and prepares the density field.
// It returns the field together with the content hash of the raw image
// bytes, which seeds the cache keys for later stages.
func (r *Runner) LoadField(ctx context.Context, opts Options) (*field.Field, string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", err
	}

	data := opts.ImageData
	if data == nil {
		var err error
		data, err = os.ReadFile(opts.Input)
		if os.IsNotExist(err) {
			return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "input image %s not found", opts.Input)
		}
		if err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeMalformedInput, err, "failed to read %s", opts.Input)
		}
	}

	f, err := field.Decode(bytes.NewReader(data), opts.Scale)
	if err != nil {
		return nil, "", err
	}
	return f, cache.Hash(data), nil
}

// GenerateWithCacheInfo runs the generator with caching and returns
// cache hit info. On a cache hit the OnLayer callback does not fire;
// per-layer statistics are available from the cached result instead.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, f *field.Field, fieldHash string, opts Options) (*scribble.Result, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.PathKey(fieldHash, opts.PathKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			res, err := unmarshalResult(data)
			if err == nil {
				return res, true, nil // Cache hit
			}
		}
	}

	sopts := opts.ScribbleOptions()
	sopts.OnLayer = layerHook(opts.Logger, opts.OnLayer)

	res, err := scribble.Generate(f, sopts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := marshalResult(res); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLPath)
	}

	return res, false, nil // Cache miss
}

// Generate is a convenience wrapper that calls GenerateWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Generate(ctx context.Context, f *field.Field, fieldHash string, opts Options) (*scribble.Result, error) {
	res, _, err := r.GenerateWithCacheInfo(ctx, f, fieldHash, opts)
	return res, err
}

// RenderWithCacheInfo encodes artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *scribble.Result, pathHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Try to get all formats from cache
	if !opts.Refresh {
		allCached := true
		artifacts := make(map[string][]byte)
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(pathHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(res, format, opts)
		if err != nil {
			return nil, false, err
		}
		rendered[format] = data
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(pathHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res *scribble.Result, pathHash string, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, pathHash, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// layerHook chains per-layer debug logging in front of the caller's
// progress callback. A degenerate layer is an expected outcome, so it is
// logged and skipped rather than surfaced as an error.
func layerHook(logger *log.Logger, next func(scribble.LayerStat)) func(scribble.LayerStat) {
	return func(stat scribble.LayerStat) {
		if stat.Skipped {
			logger.Debug("skipped degenerate layer",
				"layer", stat.Index,
				"points", stat.Points)
		} else {
			logger.Debug("finished layer",
				"layer", stat.Index,
				"points", stat.Points,
				"segments", stat.Segments,
				"cell_width", stat.CellWidth)
		}
		if next != nil {
			next(stat)
		}
	}
}

// renderFormat encodes one output format.
func renderFormat(res *scribble.Result, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatPNG:
		return render.RenderPNG(res)
	case FormatSVG:
		return render.RenderSVG(res), nil
	case FormatGIF:
		return render.RenderGIF(res, opts.Anim)
	case FormatJSON:
		return render.RenderJSON(res)
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedFormat, "invalid format: %q", format)
	}
}

// marshalResult serializes a generation result for cache storage.
// Serialization is deterministic, so the bytes double as the content
// hash input for artifact cache keys.
func marshalResult(res *scribble.Result) ([]byte, error) {
	return json.Marshal(res)
}

// unmarshalResult restores a generation result from cache storage.
func unmarshalResult(data []byte) (*scribble.Result, error) {
	var res scribble.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	if res.Width <= 0 || res.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInternal, "cached path entry is malformed")
	}
	return &res, nil
}
