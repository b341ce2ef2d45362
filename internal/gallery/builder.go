// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// package gallery assembles the stitched gallery image from the frames on
// disk and runs the periodic watch loop.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/pelagios/driftwatch/internal/imaging"
	"github.com/pelagios/driftwatch/internal/logging"
	"github.com/pelagios/driftwatch/internal/model"
)

// galleryTimeLayout names gallery files, e.g. gallery_20260828_153000.jpg.
const galleryTimeLayout = "20060102_150405"

// ErrNoFrames is returned by Build when no station has a usable frame.
var ErrNoFrames = errors.New("no usable frames")

// StationSource lists the stations a gallery run covers.
type StationSource interface {
	GetActiveStations() ([]model.Station, error)
}

// Recorder receives one entry per written gallery.
type Recorder interface {
	RecordGallery(rec model.GalleryRecord) (int, error)
}

// Result describes one finished gallery build.
type Result struct {
	Path       string
	FrameCount int
	ByteSize   int64
	Skipped    []model.Station // missing, unreadable or blank frames
}

// Builder stitches the current frames of all active stations into one
// gallery image.
type Builder struct {
	FrameDir  string
	OutputDir string
	Stations  StationSource
	Recorder  Recorder // optional

	// now is swappable for tests.
	now func() time.Time
}

// New returns a Builder reading frames from frameDir and writing galleries
// to outputDir.
func New(frameDir, outputDir string, stations StationSource) *Builder {
	return &Builder{
		FrameDir:  frameDir,
		OutputDir: outputDir,
		Stations:  stations,
		now:       time.Now,
	}
}

// Build loads the latest frame of every active station, drops blank or
// missing ones, aligns each usable frame's horizon and writes the stitched
// gallery. It returns ErrNoFrames when nothing usable is on disk.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	stations, err := b.Stations.GetActiveStations()
	if err != nil {
		return nil, fmt.Errorf("list active stations: %w", err)
	}

	res := &Result{}
	var frames []image.Image
	for _, station := range stations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(b.FrameDir, fmt.Sprintf("%d.jpg", station.ID))
		img, err := imaging.LoadJPEG(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logging.Debugf("gallery: station %s: %v", station, err)
			}
			res.Skipped = append(res.Skipped, station)
			continue
		}

		if imaging.IsBlank(img) {
			logging.Debugf("gallery: station %s: frame is blank", station)
			res.Skipped = append(res.Skipped, station)
			continue
		}

		frames = append(frames, imaging.ProcessFrame(img))
	}

	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	stitched := imaging.Stitch(frames)

	if err := os.MkdirAll(b.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create gallery directory: %w", err)
	}

	name := fmt.Sprintf("gallery_%s.jpg", b.clock()().Format(galleryTimeLayout))
	path := filepath.Join(b.OutputDir, name)
	size, err := imaging.SaveJPEG(path, stitched)
	if err != nil {
		return nil, fmt.Errorf("write gallery: %w", err)
	}

	res.Path = path
	res.FrameCount = len(frames)
	res.ByteSize = size

	if b.Recorder != nil {
		rec := model.GalleryRecord{
			Path:       path,
			CreatedAt:  b.clock()(),
			FrameCount: len(frames),
			ByteSize:   size,
		}
		if _, err := b.Recorder.RecordGallery(rec); err != nil {
			logging.Warnf("gallery: could not record %s: %v", path, err)
		}
	}

	logging.Infof("gallery: wrote %s from %d frames (%d skipped)", path, res.FrameCount, len(res.Skipped))
	return res, nil
}

func (b *Builder) clock() func() time.Time {
	if b.now != nil {
		return b.now
	}
	return time.Now
}
