// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package imaging

import (
	"image"
	"math"
)

// houghVoteThreshold is the minimum accumulator count for a detected line.
// Short edge fragments stay below it; a horizon crossing most of a panel
// does not.
const houghVoteThreshold = 150

// PolarLine is a line in Hesse normal form: rho = x*cos(theta) + y*sin(theta).
type PolarLine struct {
	Rho   float64 // distance from origin, pixels
	Theta float64 // radians, [0, pi)
}

// HoughLines runs a standard Hough transform over a binary edge map with 1px
// rho resolution and 1 degree theta resolution. Lines with at least
// threshold votes are returned.
func HoughLines(edges *image.Gray, threshold int) []PolarLine {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()

	const thetaSteps = 180
	diag := int(math.Ceil(math.Hypot(float64(w), float64(h))))
	// rho ranges over [-diag, diag]; index shifted by diag.
	acc := make([]int, thetaSteps*(2*diag+1))

	sin := make([]float64, thetaSteps)
	cos := make([]float64, thetaSteps)
	for t := 0; t < thetaSteps; t++ {
		theta := float64(t) * math.Pi / thetaSteps
		sin[t] = math.Sin(theta)
		cos[t] = math.Cos(theta)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if edges.Pix[y*edges.Stride+x] == 0 {
				continue
			}
			for t := 0; t < thetaSteps; t++ {
				rho := float64(x)*cos[t] + float64(y)*sin[t]
				ri := int(math.Round(rho)) + diag
				acc[t*(2*diag+1)+ri]++
			}
		}
	}

	var lines []PolarLine
	for t := 0; t < thetaSteps; t++ {
		for ri := 0; ri <= 2*diag; ri++ {
			if acc[t*(2*diag+1)+ri] >= threshold {
				lines = append(lines, PolarLine{
					Rho:   float64(ri - diag),
					Theta: float64(t) * math.Pi / thetaSteps,
				})
			}
		}
	}
	return lines
}

// EstimateHorizonAngle returns the mean deviation of detected lines from the
// horizontal, in degrees. No detected lines means no correction: 0.
func EstimateHorizonAngle(gray *image.Gray) float64 {
	edges := EdgeMap(gray)
	lines := HoughLines(edges, houghVoteThreshold)
	if len(lines) == 0 {
		return 0
	}

	sum := 0.0
	for _, l := range lines {
		sum += l.Theta*180/math.Pi - 90
	}
	return sum / float64(len(lines))
}
