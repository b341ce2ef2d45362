// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package imaging

import (
	"image"
	"math"
)

// Canny hysteresis thresholds. Tuned for the hard sky/sea contrast of
// open-water frames.
const (
	cannyLowThreshold  = 50
	cannyHighThreshold = 150
)

// gradient holds per-pixel gradient magnitude and direction for an image of
// the given dimensions.
type gradient struct {
	w, h int
	mag  []float64
	dir  []float64
}

// EdgeMap runs Canny edge detection over a grayscale image and returns a
// binary edge map (255 = edge, 0 = background).
func EdgeMap(gray *image.Gray) *image.Gray {
	blurred := gaussianBlur(gray)
	g := sobel(blurred)
	thinned := nonMaxSuppress(g)
	return hysteresis(thinned, cannyLowThreshold, cannyHighThreshold)
}

// gaussianBlur applies a 5x5 Gaussian kernel (sigma ~1.4).
func gaussianBlur(gray *image.Gray) *image.Gray {
	kernel := [5][5]float64{
		{2, 4, 5, 4, 2},
		{4, 9, 12, 9, 4},
		{5, 12, 15, 12, 5},
		{4, 9, 12, 9, 4},
		{2, 4, 5, 4, 2},
	}
	const kernelSum = 159.0

	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return float64(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sum += kernel[ky+2][kx+2] * at(x+kx, y+ky)
				}
			}
			out.Pix[y*out.Stride+x] = uint8(sum / kernelSum)
		}
	}
	return out
}

// sobel computes the gradient magnitude and direction (radians) per pixel.
func sobel(gray *image.Gray) *gradient {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	g := &gradient{w: w, h: h, mag: make([]float64, w*h), dir: make([]float64, w*h)}

	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return float64(gray.Pix[y*gray.Stride+x])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			i := y*w + x
			g.mag[i] = math.Hypot(gx, gy)
			g.dir[i] = math.Atan2(gy, gx)
		}
	}
	return g
}

// nonMaxSuppress keeps only pixels that are local maxima along their
// gradient direction.
func nonMaxSuppress(g *gradient) *gradient {
	out := &gradient{w: g.w, h: g.h, mag: make([]float64, len(g.mag)), dir: g.dir}

	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			i := y*g.w + x
			angle := g.dir[i] * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}

			var a, b float64
			switch {
			case angle < 22.5 || angle >= 157.5: // horizontal gradient
				a, b = g.mag[i-1], g.mag[i+1]
			case angle < 67.5: // diagonal /
				a, b = g.mag[(y-1)*g.w+x+1], g.mag[(y+1)*g.w+x-1]
			case angle < 112.5: // vertical gradient
				a, b = g.mag[(y-1)*g.w+x], g.mag[(y+1)*g.w+x]
			default: // diagonal \
				a, b = g.mag[(y-1)*g.w+x-1], g.mag[(y+1)*g.w+x+1]
			}

			if g.mag[i] >= a && g.mag[i] >= b {
				out.mag[i] = g.mag[i]
			}
		}
	}
	return out
}

// hysteresis applies double thresholding: strong edges are kept, weak edges
// survive only when 8-connected to a strong edge.
func hysteresis(g *gradient, low, high float64) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.w, g.h))

	const (
		weak   = 128
		strong = 255
	)

	marks := make([]uint8, len(g.mag))
	var stack []int
	for i, m := range g.mag {
		if m >= high {
			marks[i] = strong
			stack = append(stack, i)
		} else if m >= low {
			marks[i] = weak
		}
	}

	// Flood from strong edges into connected weak ones.
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%g.w, i/g.w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= g.w || ny < 0 || ny >= g.h {
					continue
				}
				j := ny*g.w + nx
				if marks[j] == weak {
					marks[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	for i, m := range marks {
		if m == strong {
			out.Pix[(i/g.w)*out.Stride+i%g.w] = 255
		}
	}
	return out
}
