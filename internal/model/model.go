// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared across Driftwatch.
package model

import (
	"fmt"
	"time"
)

// Station represents a single NDBC buoy station with a camera.
// This is the core entity frames are fetched for.
type Station struct {
	ID       int    // NDBC station number, e.g. 46042.
	Name     string // Human-readable location, e.g. "Monterey".
	Region   string // Coarse grouping, e.g. "Pacific", "Hawaii".
	IsActive bool   // Inactive stations are skipped by fetch and gallery runs.
	Tags     string // Free-form comma-separated tags.
}

// String returns the "46042 (Monterey)" representation used in lists and logs.
func (s Station) String() string {
	if s.Name == "" {
		return fmt.Sprintf("%d", s.ID)
	}
	return fmt.Sprintf("%d (%s)", s.ID, s.Name)
}

// CameraURL returns the BuoyCAM endpoint for this station given a base URL
// containing a single %d verb.
func (s Station) CameraURL(baseURL string) string {
	return fmt.Sprintf(baseURL, s.ID)
}

// Frame is a single camera image saved on disk for a station.
type Frame struct {
	StationID int
	Path      string
	FetchedAt time.Time
	ByteSize  int64
	Blank     bool // True when the blank-frame filter rejected the image.
}

// FetchRecord is one row of the fetch log: a single fetch attempt and its
// outcome, whether it succeeded or not.
type FetchRecord struct {
	ID        int
	StationID int
	FetchedAt time.Time
	OK        bool
	Detail    string // Error text or rejection reason; empty on success.
	Path      string // Where the frame was written; empty on failure.
}

// GalleryRecord describes one stitched gallery image.
type GalleryRecord struct {
	ID         int
	Path       string
	CreatedAt  time.Time
	FrameCount int
	ByteSize   int64
}

// BackupData is the envelope for the zstd-compressed JSON export produced by
// `driftwatch export` and consumed by `driftwatch restore`.
type BackupData struct {
	Stations  []Station       `json:"stations"`
	FetchLog  []FetchRecord   `json:"fetch_log"`
	Galleries []GalleryRecord `json:"galleries"`
}
