package ocr

import (
	"context"
	"errors"
)

// Mode selects the page segmentation strategy the engine assumes about the
// layout of text in the input image.
type Mode int

const (
	// ModeSingleBlock treats the image as one contiguous block of text. This
	// is the first strategy tried for every image.
	ModeSingleBlock Mode = iota
	// ModeSingleWord treats the image as a single word. Used as the fallback
	// when block segmentation yields nothing usable.
	ModeSingleWord
)

func (m Mode) String() string {
	switch m {
	case ModeSingleBlock:
		return "single-block"
	case ModeSingleWord:
		return "single-word"
	default:
		return "unknown"
	}
}

// ErrInit marks failures that occurred while preparing the engine (loading
// language data, configuring the provider) as opposed to failures during
// recognition itself. Callers distinguish the two when composing sentinel
// text.
var ErrInit = errors.New("ocr: engine initialization failed")

// Engine is the recognition capability: one encoded image in, raw text out.
// The returned text is unprocessed provider output; sanitization is the
// caller's concern.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte, mode Mode) (string, error)
}
