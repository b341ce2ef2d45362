// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package imaging

import (
	"image"
	"image/draw"
)

// Stitch stacks frames vertically into one gallery image. The canvas is as
// wide as the widest frame and as tall as all frames together; narrower
// frames leave black to their right.
func Stitch(frames []image.Image) *image.RGBA {
	width, height := 0, 0
	for _, f := range frames {
		b := f.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}

	gallery := image.NewRGBA(image.Rect(0, 0, width, height))
	y := 0
	for _, f := range frames {
		b := f.Bounds()
		draw.Draw(gallery, image.Rect(0, y, b.Dx(), y+b.Dy()), f, b.Min, draw.Src)
		y += b.Dy()
	}
	return gallery
}
