// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotate rotates an image counterclockwise by the given angle in degrees.
// The output canvas is expanded so no content is clipped; uncovered corners
// stay black. Resampling is Catmull-Rom.
func Rotate(src image.Image, degrees float64) *image.RGBA {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)

	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	// Expanded bounding box of the rotated image. The epsilon keeps exact
	// quarter turns from picking up a row of padding through float error.
	newW := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin) - 1e-9))
	newH := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos) - 1e-9))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))

	// Rotate about the source center, then recenter on the new canvas.
	// Screen coordinates have y growing downward, so a counterclockwise
	// rotation uses the transposed rotation matrix.
	// Centers are in source coordinate space, which may not start at the
	// origin for sub-images.
	cx, cy := float64(b.Min.X)+w/2, float64(b.Min.Y)+h/2
	ncx, ncy := float64(newW)/2, float64(newH)/2

	m := f64.Aff3{
		cos, sin, ncx - cos*cx - sin*cy,
		-sin, cos, ncy + sin*cx - cos*cy,
	}

	draw.CatmullRom.Transform(dst, m, src, b, draw.Over, nil)
	return dst
}
