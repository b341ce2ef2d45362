// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package imaging

import (
	"image"
	"image/draw"
)

// panelCount is the number of camera views stacked in one BuoyCAM frame.
const panelCount = 6

// AlignHorizon levels a single panel: estimate the mean horizon angle from
// detected lines and rotate by its negation.
func AlignHorizon(img image.Image) image.Image {
	angle := EstimateHorizonAngle(Grayscale(img))
	if angle == 0 {
		return img
	}
	return Rotate(img, -angle)
}

// ProcessFrame splits a BuoyCAM frame into its six panels, aligns each
// panel's horizon, and recombines them. Frames too small to split are
// returned unchanged.
func ProcessFrame(img image.Image) image.Image {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if height < panelCount {
		return img
	}

	panelHeight := height / panelCount
	aligned := make([]image.Image, 0, panelCount)
	for i := 0; i < panelCount; i++ {
		r := image.Rect(b.Min.X, b.Min.Y+i*panelHeight, b.Max.X, b.Min.Y+(i+1)*panelHeight)
		aligned = append(aligned, AlignHorizon(crop(img, r)))
	}

	combinedHeight := 0
	for _, p := range aligned {
		combinedHeight += p.Bounds().Dy()
	}

	// Recombine at the original width; rotated panels that grew wider are
	// clipped on the right.
	combined := image.NewRGBA(image.Rect(0, 0, width, combinedHeight))
	y := 0
	for _, p := range aligned {
		pb := p.Bounds()
		dst := image.Rect(0, y, width, y+pb.Dy())
		draw.Draw(combined, dst, p, pb.Min, draw.Src)
		y += pb.Dy()
	}

	// Rotation expanded the panels vertically; trim the overflow of the
	// first and last panel so the frame keeps roughly its original height.
	trimTop := aligned[0].Bounds().Dy() - panelHeight
	if trimTop < 0 {
		trimTop = 0
	}
	trimBottom := aligned[panelCount-1].Bounds().Dy() - panelHeight
	if trimBottom < 0 {
		trimBottom = 0
	}
	return crop(combined, image.Rect(0, trimTop, width, combinedHeight-trimBottom))
}

// crop returns the sub-image of img bounded by r.
func crop(img image.Image, r image.Rectangle) image.Image {
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}
