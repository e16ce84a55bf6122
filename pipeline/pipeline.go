// Package pipeline implements the deterministic image normalization sequence
// run before recognition: decode, grayscale, upscale-if-small, unsharp
// masking, local contrast normalization, and adaptive binarization. Only
// decoding is fatal; the enhancement stages degrade to the previous stage's
// output when they cannot apply.
package pipeline

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/wudi/ocrkit/imageproc"
)

// Defaults carry the tuning recognition accuracy was measured at. Images
// below the minimum dimensions degrade recognition sharply and are upscaled
// to meet both floors.
const (
	DefaultMinWidth         = 500
	DefaultMinHeight        = 250
	DefaultUnsharpHalfwidth = 5
	DefaultUnsharpAmount    = 2.5
	DefaultContrastTile     = 50
	DefaultContrastMinDiff  = 130
	DefaultBinarizeTile     = 10
)

// Config tunes the pipeline stages. Zero values select the defaults above.
type Config struct {
	MinWidth         int
	MinHeight        int
	UnsharpHalfwidth int
	UnsharpAmount    float64
	ContrastTile     int
	ContrastMinDiff  int
	BinarizeTile     int
	Logger           *zap.Logger
}

// Normalizer runs the fixed normalization sequence. Safe for concurrent use.
type Normalizer struct {
	cfg Config
	log *zap.Logger
}

// New constructs a Normalizer, filling zero config fields with defaults.
func New(cfg Config) *Normalizer {
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = DefaultMinWidth
	}
	if cfg.MinHeight <= 0 {
		cfg.MinHeight = DefaultMinHeight
	}
	if cfg.UnsharpHalfwidth <= 0 {
		cfg.UnsharpHalfwidth = DefaultUnsharpHalfwidth
	}
	if cfg.UnsharpAmount <= 0 {
		cfg.UnsharpAmount = DefaultUnsharpAmount
	}
	if cfg.ContrastTile <= 0 {
		cfg.ContrastTile = DefaultContrastTile
	}
	if cfg.ContrastMinDiff <= 0 {
		cfg.ContrastMinDiff = DefaultContrastMinDiff
	}
	if cfg.BinarizeTile <= 0 {
		cfg.BinarizeTile = DefaultBinarizeTile
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{cfg: cfg, log: log}
}

// Normalized is the pipeline output: the final bitmap to feed to recognition
// plus its serialized form for display or audit.
type Normalized struct {
	Image *image.Gray
	PNG   []byte
}

// Normalize runs the full stage sequence over encoded image bytes. The input
// buffer is never modified. An error is returned only for undecodable input
// or a failed final serialization; enhancement-stage failures fall through to
// the previous stage's output.
func (n *Normalizer) Normalize(data []byte) (*Normalized, error) {
	img, err := imageproc.Decode(data)
	if err != nil {
		return nil, err
	}
	cur := imageproc.ToGray(img)

	w, h := cur.Bounds().Dx(), cur.Bounds().Dy()
	if w < n.cfg.MinWidth || h < n.cfg.MinHeight {
		factor := float64(n.cfg.MinWidth) / float64(w)
		if f := float64(n.cfg.MinHeight) / float64(h); f > factor {
			factor = f
		}
		cur = imageproc.ScaleUniform(cur, factor)
		n.log.Debug("upscaled",
			zap.Int("from_width", w), zap.Int("from_height", h),
			zap.Int("width", cur.Bounds().Dx()), zap.Int("height", cur.Bounds().Dy()))
	}

	if sharp, err := imageproc.UnsharpMask(cur, n.cfg.UnsharpHalfwidth, n.cfg.UnsharpAmount); err != nil {
		n.log.Debug("unsharp mask skipped", zap.Error(err))
	} else {
		cur = sharp
	}

	if contrast, err := imageproc.NormalizeContrast(cur, n.cfg.ContrastTile, n.cfg.ContrastTile, n.cfg.ContrastMinDiff); err != nil {
		n.log.Debug("contrast normalization skipped", zap.Error(err))
	} else {
		cur = contrast
	}

	final := cur
	if bin, err := imageproc.AdaptiveBinarize(cur, n.cfg.BinarizeTile); err != nil {
		n.log.Debug("binarization skipped", zap.Error(err))
	} else {
		final = bin
	}

	encoded, err := imageproc.EncodePNG(final)
	if err != nil {
		return nil, fmt.Errorf("serialize normalized image: %w", err)
	}
	return &Normalized{Image: final, PNG: encoded}, nil
}
