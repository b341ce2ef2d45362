// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package imaging

import "image"

// blankFraction is the share of pixels a single intensity may occupy before
// the frame counts as blank.
const blankFraction = 0.95

// IsBlank reports whether a frame is mostly blank: all white, all black, or
// dominated by any single intensity. Cameras that are down tend to return
// solid frames rather than errors.
func IsBlank(img image.Image) bool {
	gray := Grayscale(img)
	hist := Histogram(gray)

	total := 0
	maxCount := 0
	for _, c := range hist {
		total += c
		if c > maxCount {
			maxCount = c
		}
	}
	if total == 0 {
		return true
	}

	limit := int(blankFraction * float64(total))
	if hist[255] > limit || hist[0] > limit {
		return true
	}
	return maxCount > limit
}
