// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package imaging

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
)

// jpegQuality for written galleries.
const jpegQuality = 90

// LoadJPEG reads and decodes a JPEG file.
func LoadJPEG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SaveJPEG encodes an image to path via a temp file and rename, so readers
// never observe a partially written file.
func SaveJPEG(path string, img image.Image) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gallery-*.jpg")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	err = jpeg.Encode(tmp, img, &jpeg.Options{Quality: jpegQuality})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}

	info, err := os.Stat(tmp.Name())
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("move %s into place: %w", path, err)
	}
	return info.Size(), nil
}
