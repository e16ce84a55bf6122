package imageproc

import (
	"fmt"
	"image"
	"math"
)

// UnsharpMask sharpens edges by adding back the difference between the image
// and a gaussian-blurred copy: out = in + amount*(in - blur). halfwidth is
// the blur kernel half-width. Images smaller than the kernel in either
// dimension cannot be masked and return an error so the caller can fall back
// to the unsharpened input.
func UnsharpMask(g *image.Gray, halfwidth int, amount float64) (*image.Gray, error) {
	if halfwidth < 1 {
		return nil, fmt.Errorf("unsharp mask: halfwidth %d out of range", halfwidth)
	}
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	k := 2*halfwidth + 1
	if w < k || h < k {
		return nil, fmt.Errorf("unsharp mask: image %dx%d smaller than %dpx kernel", w, h, k)
	}

	kernel := gaussianKernel(halfwidth)
	blur := blurSeparable(g, kernel, halfwidth)

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcRow := g.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			orig := float64(g.Pix[srcRow+x])
			diff := orig - blur[y*w+x]
			out.Pix[y*out.Stride+x] = clampByte(orig + amount*diff)
		}
	}
	return out, nil
}

// gaussianKernel builds a normalized 1-D gaussian with sigma = halfwidth/2.
func gaussianKernel(halfwidth int) []float64 {
	sigma := float64(halfwidth) / 2
	if sigma <= 0 {
		sigma = 0.5
	}
	kernel := make([]float64, 2*halfwidth+1)
	var sum float64
	for i := range kernel {
		d := float64(i - halfwidth)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// blurSeparable runs the 1-D kernel horizontally then vertically, clamping
// coordinates at the borders. The result is returned as float intensities in
// row-major order.
func blurSeparable(g *image.Gray, kernel []float64, halfwidth int) []float64 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()

	horiz := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := g.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kernel {
				sx := x + i - halfwidth
				if sx < 0 {
					sx = 0
				} else if sx >= w {
					sx = w - 1
				}
				acc += kv * float64(g.Pix[row+sx])
			}
			horiz[y*w+x] = acc
		}
	}

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kernel {
				sy := y + i - halfwidth
				if sy < 0 {
					sy = 0
				} else if sy >= h {
					sy = h - 1
				}
				acc += kv * horiz[sy*w+x]
			}
			out[y*w+x] = acc
		}
	}
	return out
}
