// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// package imaging implements the frame processing pipeline: blank-frame
// detection, horizon alignment of the six BuoyCAM panels, and gallery
// stitching.
package imaging

import (
	"image"
	"image/color"
)

// Grayscale converts an image to 8-bit grayscale using the standard
// luminance weights.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// Histogram returns the 256-bucket intensity histogram of a grayscale image.
func Histogram(gray *image.Gray) [256]int {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := gray.PixOffset(b.Min.X, y)
		row := gray.Pix[off : off+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}
