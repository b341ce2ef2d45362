// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/pelagios/driftwatch/internal/model"
)

// stationRow is the bun mapping for the stations table.
type stationRow struct {
	bun.BaseModel `bun:"table:stations"`
	ID            int    `bun:"id,pk"`
	Name          string `bun:"name"`
	Region        string `bun:"region"`
	IsActive      bool   `bun:"is_active"`
	Tags          string `bun:"tags"`
}

func (r stationRow) toModel() model.Station {
	return model.Station{
		ID:       r.ID,
		Name:     r.Name,
		Region:   r.Region,
		IsActive: r.IsActive,
		Tags:     r.Tags,
	}
}

func stationRowFromModel(s model.Station) stationRow {
	return stationRow{
		ID:       s.ID,
		Name:     s.Name,
		Region:   s.Region,
		IsActive: s.IsActive,
		Tags:     s.Tags,
	}
}

// fetchLogRow is the bun mapping for the fetch_log table.
type fetchLogRow struct {
	bun.BaseModel `bun:"table:fetch_log"`
	ID            int       `bun:"id,pk,autoincrement"`
	StationID     int       `bun:"station_id"`
	FetchedAt     time.Time `bun:"fetched_at"`
	OK            bool      `bun:"ok"`
	Detail        string    `bun:"detail"`
	Path          string    `bun:"path"`
}

func (r fetchLogRow) toModel() model.FetchRecord {
	return model.FetchRecord{
		ID:        r.ID,
		StationID: r.StationID,
		FetchedAt: r.FetchedAt,
		OK:        r.OK,
		Detail:    r.Detail,
		Path:      r.Path,
	}
}

// galleryRow is the bun mapping for the galleries table.
type galleryRow struct {
	bun.BaseModel `bun:"table:galleries"`
	ID            int       `bun:"id,pk,autoincrement"`
	Path          string    `bun:"path"`
	CreatedAt     time.Time `bun:"created_at"`
	FrameCount    int       `bun:"frame_count"`
	ByteSize      int64     `bun:"byte_size"`
}

func (r galleryRow) toModel() model.GalleryRecord {
	return model.GalleryRecord{
		ID:         r.ID,
		Path:       r.Path,
		CreatedAt:  r.CreatedAt,
		FrameCount: r.FrameCount,
		ByteSize:   r.ByteSize,
	}
}

// knownHostKeyRow is the bun mapping for the known_host_keys table.
type knownHostKeyRow struct {
	bun.BaseModel `bun:"table:known_host_keys"`
	Hostname      string `bun:"hostname,pk"`
	Key           string `bun:"key"`
}
