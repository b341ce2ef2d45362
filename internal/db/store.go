// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/pelagios/driftwatch/internal/model"

// Store defines the interface for all database operations in Driftwatch.
// This allows for multiple database backends to be implemented.
type Store interface {
	// Station methods
	GetAllStations() ([]model.Station, error)
	GetActiveStations() ([]model.Station, error)
	GetStation(id int) (*model.Station, error)
	AddStation(id int, name, region, tags string) error
	ToggleStationStatus(id int) error
	UpdateStationTags(id int, tags string) error
	DeleteStation(id int) error

	// Fetch log methods
	RecordFetch(rec model.FetchRecord) error
	GetRecentFetches(limit int) ([]model.FetchRecord, error)
	GetLastFetch(stationID int) (*model.FetchRecord, error)

	// Gallery methods
	RecordGallery(rec model.GalleryRecord) (int, error)
	GetAllGalleries() ([]model.GalleryRecord, error)
	GetLatestGallery() (*model.GalleryRecord, error)

	// Host key methods (publishing)
	GetKnownHostKey(hostname string) (string, error)
	AddKnownHostKey(hostname, key string) error

	// Backup methods
	ExportBackup() (*model.BackupData, error)
	ImportBackup(data *model.BackupData, full bool) error

	// Close releases the underlying database handles.
	Close() error
}
