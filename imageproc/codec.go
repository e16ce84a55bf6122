// Package imageproc implements the pixel-level primitives the normalization
// pipeline orchestrates: decoding, grayscale conversion, uniform scaling,
// unsharp masking, local contrast normalization, and adaptive binarization.
// All transforms allocate fresh bitmaps and never mutate their input.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode turns encoded image bytes into a bitmap. PNG, JPEG, GIF, BMP, TIFF
// and WebP are recognized.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodePNG serializes a bitmap to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
