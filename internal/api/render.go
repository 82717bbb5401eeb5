package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/scribbleink/scribble/pkg/config"
	"github.com/scribbleink/scribble/pkg/errors"
	"github.com/scribbleink/scribble/pkg/pipeline"
	"github.com/scribbleink/scribble/pkg/scribble"
)

// multipartMemory is the in-memory threshold for multipart parsing;
// larger parts spill to temporary files.
const multipartMemory = 8 << 20

// errorResponse is the JSON body returned for failed requests.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleRender runs the full pipeline on an uploaded image and responds
// with the rendered artifact for the requested format.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	opts, format, err := parseRenderRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	artifact, ok := res.Artifacts[format]
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeInternal,
			"no artifact produced for format %q", format))
		return
	}

	s.logger.Info("rendered artifact",
		"request_id", requestIDFrom(r.Context()),
		"format", format,
		"points", res.Stats.Points,
		"segments", res.Stats.Segments,
		"bytes", len(artifact),
		"duration", time.Since(start),
	)

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("X-Path-Hash", res.PathHash)
	if res.CacheInfo.PathHit && res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact)
}

// parseRenderRequest extracts the image and drawing parameters from the
// request. Parameter names match the options file keys; values may arrive
// as multipart form fields or query parameters. An absent exponent falls
// back to the drawing default while an explicit zero is kept.
func parseRenderRequest(r *http.Request) (pipeline.Options, string, error) {
	var opts pipeline.Options

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return opts, "", errors.Wrap(errors.ErrCodeMalformedInput, err,
			"failed to parse multipart form")
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return opts, "", errors.Wrap(errors.ErrCodeMalformedInput, err,
			"request is missing an image file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return opts, "", errors.Wrap(errors.ErrCodeMalformedInput, err,
			"failed to read image upload")
	}

	format := r.FormValue("format")
	if format == "" {
		format = pipeline.FormatPNG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, "", err
	}

	f := &formReader{r: r}
	opts = pipeline.Options{
		ImageData:           data,
		Scale:               f.float("scale", 0),
		Layers:              f.int("layers", 0),
		Exponent:            f.float("exponent", scribble.DefaultExponent),
		Prefactor:           f.float("prefactor", 0),
		MaxLineLengthFactor: f.float("max_line_length_factor", 0),
		Seed:                f.uint("seed", 0),
		Formats:             []string{format},
		Refresh:             f.bool("refresh"),
	}

	if format == pipeline.FormatGIF {
		opts.Anim.Duration = f.float("duration", 0)
		opts.Anim.FPS = f.float("fps", 0)
		opts.Anim.Width = f.int("width", 0)
		opts.Anim.Height = f.int("height", 0)
		opts.Anim.HighlightSecs = f.float("highlight_secs", 0)
		opts.Anim.HoldSecs = f.float("hold_secs", 0)
		if hl := r.FormValue("highlight"); hl != "" {
			c, err := config.ParseHighlight(hl)
			if err != nil {
				return opts, "", err
			}
			opts.Anim.Highlight = c
		}
	}

	if f.err != nil {
		return opts, "", f.err
	}
	return opts, format, nil
}

// formReader reads typed values out of a request form, remembering the
// first parse failure so call sites stay flat.
type formReader struct {
	r   *http.Request
	err error
}

func (f *formReader) float(key string, def float64) float64 {
	v := f.r.FormValue(key)
	if f.err != nil || v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.err = errors.New(errors.ErrCodeInvalidConfig, "invalid %s: %q", key, v)
		return def
	}
	return parsed
}

func (f *formReader) int(key string, def int) int {
	v := f.r.FormValue(key)
	if f.err != nil || v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		f.err = errors.New(errors.ErrCodeInvalidConfig, "invalid %s: %q", key, v)
		return def
	}
	return parsed
}

func (f *formReader) uint(key string, def uint64) uint64 {
	v := f.r.FormValue(key)
	if f.err != nil || v == "" {
		return def
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		f.err = errors.New(errors.ErrCodeInvalidConfig, "invalid %s: %q", key, v)
		return def
	}
	return parsed
}

func (f *formReader) bool(key string) bool {
	v := f.r.FormValue(key)
	if f.err != nil || v == "" {
		return false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		f.err = errors.New(errors.ErrCodeInvalidConfig, "invalid %s: %q", key, v)
		return false
	}
	return parsed
}

// statusForCode maps pipeline error codes onto HTTP status codes.
func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidConfig, errors.ErrCodeMalformedInput, errors.ErrCodeUnsupportedFormat:
		return http.StatusBadRequest
	case errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// contentType returns the response content type for an output format.
func contentType(format string) string {
	switch format {
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatGIF:
		return "image/gif"
	case pipeline.FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// writeError logs the failure and responds with a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusForCode(code)

	s.logger.Error("request failed",
		"request_id", requestIDFrom(r.Context()),
		"status", status,
		"code", string(code),
		"error", err,
	)

	writeJSON(w, status, errorResponse{
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}
