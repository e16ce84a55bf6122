package imageproc

import (
	"fmt"
	"image"
)

// targetBackground is the intensity the background map is normalized toward
// before thresholding.
const targetBackground = 200

// backgroundFloor excludes probable ink from the background estimate: only
// pixels at or above it contribute to a tile's background level.
const backgroundFloor = 100

// AdaptiveBinarize converts a grayscale image to strict black/white using an
// Otsu threshold computed over a background-normalized copy. The background
// is estimated per tile as the local intensity maximum (text is assumed dark
// on a lighter ground) and smoothed across neighboring tiles, which keeps the
// threshold stable under uneven illumination. Images smaller than one tile
// return an error so the caller can recognize against the grayscale image
// instead.
func AdaptiveBinarize(g *image.Gray, tile int) (*image.Gray, error) {
	if tile < 1 {
		return nil, fmt.Errorf("binarize: tile %d out of range", tile)
	}
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < tile || h < tile {
		return nil, fmt.Errorf("binarize: image %dx%d smaller than %dx%d tile", w, h, tile, tile)
	}

	tilesX := (w + tile - 1) / tile
	tilesY := (h + tile - 1) / tile
	bg := make([]int, tilesX*tilesY)
	var bgSum, bgCount int
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			// Probable ink (below the floor) is excluded so solid text
			// regions do not drag the local background estimate down.
			maxV := 0
			for y := ty * tile; y < (ty+1)*tile && y < h; y++ {
				row := g.PixOffset(b.Min.X, b.Min.Y+y)
				for x := tx * tile; x < (tx+1)*tile && x < w; x++ {
					if v := int(g.Pix[row+x]); v >= backgroundFloor && v > maxV {
						maxV = v
					}
				}
			}
			bg[ty*tilesX+tx] = maxV
			if maxV > 0 {
				bgSum += maxV
				bgCount++
			}
		}
	}
	if bgCount == 0 {
		return nil, fmt.Errorf("binarize: no background found above intensity %d", backgroundFloor)
	}
	fill := bgSum / bgCount
	for i, v := range bg {
		if v == 0 {
			bg[i] = fill
		}
	}
	bg = smoothGrid(bg, tilesX, tilesY)

	// Normalize against the background map, then histogram the result.
	norm := make([]uint8, w*h)
	var hist [256]int
	for y := 0; y < h; y++ {
		ty := y / tile
		row := g.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			ground := bg[ty*tilesX+x/tile]
			if ground < 1 {
				ground = 1
			}
			v := int(g.Pix[row+x]) * targetBackground / ground
			if v > 255 {
				v = 255
			}
			norm[y*w+x] = uint8(v)
			hist[v]++
		}
	}

	threshold, ok := otsuThreshold(hist, w*h)
	if !ok {
		return nil, fmt.Errorf("binarize: no foreground/background separation")
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range norm {
		if int(v) > threshold {
			out.Pix[i] = 255
		}
	}
	return out, nil
}

// otsuThreshold picks the threshold maximizing between-class variance.
// Reports false for degenerate histograms (a single intensity level), where
// no split separates foreground from background.
func otsuThreshold(hist [256]int, total int) (int, bool) {
	var sum float64
	for v, n := range hist {
		sum += float64(v) * float64(n)
	}
	var sumB, wB float64
	var best float64
	threshold := -1
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = t
		}
	}
	if threshold < 0 {
		return 0, false
	}
	return threshold, true
}
