// Package tesseract provides the gosseract-backed default recognition engine.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/ocrkit/ocr"
)

func init() {
	ocr.SetDefaultEngine(New(Config{}))
}

// Config carries engine setup. Zero values select English and the system
// tessdata directory.
type Config struct {
	// Languages lists Tesseract trained-data codes, e.g. "eng". Defaults to
	// English when empty.
	Languages []string
	// TessdataDir overrides the trained-data directory when non-empty.
	TessdataDir string
}

// Engine implements ocr.Engine using the gosseract client. A fresh client is
// created per call, so a single Engine is safe for concurrent use.
type Engine struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine.
func New(cfg Config) *Engine {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	return &Engine{cfg: cfg, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs one recognition pass over an encoded image. Setup failures
// (language data, tessdata path) wrap ocr.ErrInit so callers can tell them
// apart from recognition failures.
func (e *Engine) Recognize(ctx context.Context, image []byte, mode ocr.Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return "", fmt.Errorf("%w: set tessdata prefix: %v", ocr.ErrInit, err)
		}
	}
	if err := c.SetLanguage(e.cfg.Languages...); err != nil {
		return "", fmt.Errorf("%w: set language: %v", ocr.ErrInit, err)
	}
	if err := c.SetPageSegMode(pageSegMode(mode)); err != nil {
		return "", fmt.Errorf("%w: set segmentation mode: %v", ocr.ErrInit, err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

func pageSegMode(mode ocr.Mode) gosseract.PageSegMode {
	if mode == ocr.ModeSingleWord {
		return gosseract.PSM_SINGLE_WORD
	}
	return gosseract.PSM_SINGLE_BLOCK
}
