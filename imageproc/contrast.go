package imageproc

import (
	"fmt"
	"image"
)

// NormalizeContrast equalizes regional contrast by stretching each tile's
// intensity range to the full 0..255 scale. Tiles whose local range is below
// minDiff are left untouched so flat regions (paper background, solid fills)
// do not amplify noise. Per-tile bounds are smoothed across neighbors to
// avoid visible tile seams. Images smaller than one tile return an error so
// the caller can fall back to the unnormalized input.
func NormalizeContrast(g *image.Gray, tileW, tileH, minDiff int) (*image.Gray, error) {
	if tileW < 1 || tileH < 1 {
		return nil, fmt.Errorf("contrast norm: tile %dx%d out of range", tileW, tileH)
	}
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < tileW || h < tileH {
		return nil, fmt.Errorf("contrast norm: image %dx%d smaller than %dx%d tile", w, h, tileW, tileH)
	}

	tilesX := (w + tileW - 1) / tileW
	tilesY := (h + tileH - 1) / tileH

	lo := make([]int, tilesX*tilesY)
	hi := make([]int, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			minV, maxV := 255, 0
			for y := ty * tileH; y < (ty+1)*tileH && y < h; y++ {
				row := g.PixOffset(b.Min.X, b.Min.Y+y)
				for x := tx * tileW; x < (tx+1)*tileW && x < w; x++ {
					v := int(g.Pix[row+x])
					if v < minV {
						minV = v
					}
					if v > maxV {
						maxV = v
					}
				}
			}
			lo[ty*tilesX+tx] = minV
			hi[ty*tilesX+tx] = maxV
		}
	}
	lo = smoothGrid(lo, tilesX, tilesY)
	hi = smoothGrid(hi, tilesX, tilesY)

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		ty := y / tileH
		row := g.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			tx := x / tileW
			minV := lo[ty*tilesX+tx]
			maxV := hi[ty*tilesX+tx]
			v := int(g.Pix[row+x])
			if maxV-minV >= minDiff {
				v = (v - minV) * 255 / (maxV - minV)
				if v < 0 {
					v = 0
				} else if v > 255 {
					v = 255
				}
			}
			out.Pix[y*out.Stride+x] = uint8(v)
		}
	}
	return out, nil
}

// smoothGrid replaces each cell with the mean of its 3x3 neighborhood,
// clamping at the grid edges.
func smoothGrid(grid []int, tilesX, tilesY int) []int {
	out := make([]int, len(grid))
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			sum, n := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ny, nx := ty+dy, tx+dx
					if ny < 0 || ny >= tilesY || nx < 0 || nx >= tilesX {
						continue
					}
					sum += grid[ny*tilesX+nx]
					n++
				}
			}
			out[ty*tilesX+tx] = sum / n
		}
	}
	return out
}
