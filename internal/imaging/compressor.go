// Package imaging re-encodes oversized images so they fit a byte budget.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

// Defaults applied when an Options field is left zero
const (
	DefaultQuality  = 0.7
	DefaultFloor    = 0.3
	DefaultStep     = 0.1
	DefaultMaxWidth = 1920
)

var (
	// ErrDecode is returned for corrupt or unreadable image data
	ErrDecode = errors.New("failed to decode image")
	// ErrUnsupportedFormat is returned for image types that cannot be re-encoded in their own format
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrOverBudget is returned by Result.Check when the floor quality still exceeds the budget
	ErrOverBudget = errors.New("image exceeds budget at minimum quality")
	// ErrInvalidBudget is returned for a non-positive byte budget
	ErrInvalidBudget = errors.New("budget must be positive")
)

// Options tunes the compression loop
type Options struct {
	Quality  float64 // starting quality in (0, 1]
	Floor    float64 // lowest quality attempted
	Step     float64 // quality decrement per attempt
	MaxWidth int     // images wider than this are scaled down
}

// DefaultOptions returns the standard compression settings
func DefaultOptions() Options {
	return Options{
		Quality:  DefaultQuality,
		Floor:    DefaultFloor,
		Step:     DefaultStep,
		MaxWidth: DefaultMaxWidth,
	}
}

// Validate checks the option ranges
func (o Options) Validate() error {
	if o.Quality <= 0 || o.Quality > 1 {
		return fmt.Errorf("quality must be in (0, 1], got %v", o.Quality)
	}
	if o.Floor <= 0 || o.Floor > o.Quality {
		return fmt.Errorf("floor must be in (0, quality], got %v", o.Floor)
	}
	if o.Step <= 0 {
		return fmt.Errorf("step must be positive, got %v", o.Step)
	}
	if o.MaxWidth <= 0 {
		return fmt.Errorf("max width must be positive, got %d", o.MaxWidth)
	}
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Quality == 0 {
		o.Quality = d.Quality
	}
	if o.Floor == 0 {
		o.Floor = d.Floor
	}
	if o.Step == 0 {
		o.Step = d.Step
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = d.MaxWidth
	}
	return o
}

// Job is a single compression request
type Job struct {
	Data     []byte
	MimeType string
	Budget   int64
}

// Result is the outcome of a compression job
type Result struct {
	Data         []byte
	MimeType     string
	Width        int
	Height       int
	Quality      float64
	Attempts     int
	Resized      bool
	Reencoded    bool
	WithinBudget bool
}

// Check returns ErrOverBudget when the result still does not fit
func (r *Result) Check() error {
	if !r.WithinBudget {
		return fmt.Errorf("%w: %d bytes", ErrOverBudget, len(r.Data))
	}
	return nil
}

// Compressor fits images into a byte budget by resizing and lowering quality step by step
type Compressor struct {
	opts   Options
	logger *slog.Logger
}

// NewCompressor creates a compressor; zero option fields take the defaults
func NewCompressor(opts Options, logger *slog.Logger) (*Compressor, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid compressor options: %w", err)
	}
	return &Compressor{
		opts:   opts,
		logger: logger.With(slog.String("component", "compressor")),
	}, nil
}

// Options returns the effective settings
func (c *Compressor) Options() Options {
	return c.opts
}

// Compress returns job.Data untouched when it is not an image or already fits.
// Otherwise it decodes, scales down to MaxWidth and re-encodes with decreasing
// quality until the output fits or the floor is reached. The floor result is
// returned even when it is over budget; callers use Result.Check to reject it.
func (c *Compressor) Compress(ctx context.Context, job Job) (*Result, error) {
	if job.Budget <= 0 {
		return nil, ErrInvalidBudget
	}

	mimeType := normalizeMime(job.MimeType)
	if !strings.HasPrefix(mimeType, "image/") || int64(len(job.Data)) <= job.Budget {
		return &Result{
			Data:         job.Data,
			MimeType:     job.MimeType,
			Quality:      1,
			WithinBudget: int64(len(job.Data)) <= job.Budget,
		}, nil
	}

	enc, ok := encoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	src, err := enc.decode(job.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if mimeType == "image/jpeg" {
		src = applyOrientation(src, readOrientation(job.Data))
	}

	surface, resized := render(src, c.opts.MaxWidth)
	bounds := surface.Bounds()

	var (
		best        []byte
		bestQuality float64
		attempts    int
		quality     = c.opts.Quality
	)
	for {
		attempts++
		buf, err := enc.encode(surface, quality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", mimeType, err)
		}

		c.logger.DebugContext(ctx, "compression attempt",
			slog.Int("attempt", attempts),
			slog.Float64("quality", quality),
			slog.Int("bytes", len(buf)),
			slog.Int64("budget", job.Budget))

		if best == nil || len(buf) < len(best) {
			best, bestQuality = buf, quality
		}
		if int64(len(buf)) <= job.Budget || quality <= c.opts.Floor+1e-9 {
			break
		}
		quality = math.Max(c.opts.Floor, roundQuality(quality-c.opts.Step))
	}

	result := &Result{
		Data:      best,
		MimeType:  job.MimeType,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Quality:   bestQuality,
		Attempts:  attempts,
		Resized:   resized,
		Reencoded: true,
	}
	// Re-encoding at the original size can come out larger than a well optimised input.
	if !resized && len(best) >= len(job.Data) {
		result.Data = job.Data
		result.Reencoded = false
	}
	result.WithinBudget = int64(len(result.Data)) <= job.Budget

	c.logger.InfoContext(ctx, "image compressed",
		slog.String("mime_type", mimeType),
		slog.Int("original_bytes", len(job.Data)),
		slog.Int("compressed_bytes", len(result.Data)),
		slog.Int("width", result.Width),
		slog.Int("height", result.Height),
		slog.Float64("quality", result.Quality),
		slog.Bool("within_budget", result.WithinBudget))

	return result, nil
}

// render draws src onto a fresh RGBA surface no wider than maxWidth
func render(src image.Image, maxWidth int) (*image.RGBA, bool) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	if w <= maxWidth {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst, false
	}

	nw, nh := scaledSize(w, h, maxWidth)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst, true
}

// scaledSize shrinks (w, h) so the width equals maxWidth, rounding the height
func scaledSize(w, h, maxWidth int) (int, int) {
	if w <= maxWidth {
		return w, h
	}
	nh := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return maxWidth, nh
}

func roundQuality(q float64) float64 {
	return math.Round(q*100) / 100
}

func normalizeMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "image/jpg" || mimeType == "image/pjpeg" {
		return "image/jpeg"
	}
	return mimeType
}

type codec struct {
	decode func([]byte) (image.Image, error)
	encode func(image.Image, float64) ([]byte, error)
}

// encoders lists the formats that can be written back in their own container.
// WebP, BMP and TIFF have no encoder in the standard library or x/image.
var encoders = map[string]codec{
	"image/jpeg": {
		decode: func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
		encode: func(img image.Image, q float64) ([]byte, error) {
			var buf bytes.Buffer
			err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clamp(int(math.Round(q*100)), 1, 100)})
			return buf.Bytes(), err
		},
	},
	"image/png": {
		decode: func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		encode: func(img image.Image, q float64) ([]byte, error) {
			level := png.DefaultCompression
			if q <= 0.5 {
				level = png.BestCompression
			}
			var buf bytes.Buffer
			err := (&png.Encoder{CompressionLevel: level}).Encode(&buf, img)
			return buf.Bytes(), err
		},
	},
	"image/gif": {
		decode: func(b []byte) (image.Image, error) { return gif.Decode(bytes.NewReader(b)) },
		encode: func(img image.Image, q float64) ([]byte, error) {
			var buf bytes.Buffer
			err := gif.Encode(&buf, img, &gif.Options{NumColors: clamp(int(math.Round(256*q)), 2, 256)})
			return buf.Bytes(), err
		},
	},
}

// SupportsReencode reports whether mimeType can be compressed
func SupportsReencode(mimeType string) bool {
	_, ok := encoders[normalizeMime(mimeType)]
	return ok
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
