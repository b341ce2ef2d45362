// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the bun implementation of the Store interface. It works
// against all three supported dialects; backend-specific behavior lives in
// the migrations and in createBunDB.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/pelagios/driftwatch/internal/model"
)

// BunStore is the bun-backed implementation of the Store interface.
type BunStore struct {
	db  *sql.DB
	bun *bun.DB
}

// Bun exposes the underlying bun handle for maintenance commands.
func (s *BunStore) Bun() *bun.DB { return s.bun }

// Close releases the database handles.
func (s *BunStore) Close() error {
	return s.bun.Close()
}

// GetAllStations returns the full station catalog ordered by ID.
func (s *BunStore) GetAllStations() ([]model.Station, error) {
	var rows []stationRow
	err := s.bun.NewSelect().Model(&rows).Order("id ASC").Scan(context.Background())
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	stations := make([]model.Station, 0, len(rows))
	for _, r := range rows {
		stations = append(stations, r.toModel())
	}
	return stations, nil
}

// GetActiveStations returns only stations enabled for fetching.
func (s *BunStore) GetActiveStations() ([]model.Station, error) {
	var rows []stationRow
	err := s.bun.NewSelect().Model(&rows).Where("is_active = ?", true).Order("id ASC").Scan(context.Background())
	if err != nil {
		return nil, fmt.Errorf("query active stations: %w", err)
	}
	stations := make([]model.Station, 0, len(rows))
	for _, r := range rows {
		stations = append(stations, r.toModel())
	}
	return stations, nil
}

// GetStation returns a single station by ID, or ErrNotFound.
func (s *BunStore) GetStation(id int) (*model.Station, error) {
	row := new(stationRow)
	err := s.bun.NewSelect().Model(row).Where("id = ?", id).Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query station %d: %w", id, err)
	}
	st := row.toModel()
	return &st, nil
}

// AddStation inserts a new station into the catalog, active by default.
func (s *BunStore) AddStation(id int, name, region, tags string) error {
	if _, err := s.GetStation(id); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	row := stationRow{ID: id, Name: name, Region: region, IsActive: true, Tags: tags}
	if _, err := s.bun.NewInsert().Model(&row).Exec(context.Background()); err != nil {
		return fmt.Errorf("insert station %d: %w", id, err)
	}
	return nil
}

// ToggleStationStatus flips a station between active and inactive.
func (s *BunStore) ToggleStationStatus(id int) error {
	st, err := s.GetStation(id)
	if err != nil {
		return err
	}
	_, err = s.bun.NewUpdate().
		Model((*stationRow)(nil)).
		Set("is_active = ?", !st.IsActive).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return fmt.Errorf("toggle station %d: %w", id, err)
	}
	return nil
}

// UpdateStationTags replaces a station's tags.
func (s *BunStore) UpdateStationTags(id int, tags string) error {
	res, err := s.bun.NewUpdate().
		Model((*stationRow)(nil)).
		Set("tags = ?", tags).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return fmt.Errorf("update tags for station %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStation removes a station from the catalog.
func (s *BunStore) DeleteStation(id int) error {
	res, err := s.bun.NewDelete().
		Model((*stationRow)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return fmt.Errorf("delete station %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordFetch appends one fetch attempt to the fetch log.
func (s *BunStore) RecordFetch(rec model.FetchRecord) error {
	row := fetchLogRow{
		StationID: rec.StationID,
		FetchedAt: rec.FetchedAt,
		OK:        rec.OK,
		Detail:    rec.Detail,
		Path:      rec.Path,
	}
	if _, err := s.bun.NewInsert().Model(&row).Exec(context.Background()); err != nil {
		return fmt.Errorf("insert fetch record: %w", err)
	}
	return nil
}

// GetRecentFetches returns the newest fetch log entries, newest first.
func (s *BunStore) GetRecentFetches(limit int) ([]model.FetchRecord, error) {
	var rows []fetchLogRow
	q := s.bun.NewSelect().Model(&rows).Order("fetched_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, fmt.Errorf("query fetch log: %w", err)
	}
	recs := make([]model.FetchRecord, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.toModel())
	}
	return recs, nil
}

// GetLastFetch returns the most recent fetch attempt for one station, or
// ErrNotFound when the station has never been fetched.
func (s *BunStore) GetLastFetch(stationID int) (*model.FetchRecord, error) {
	row := new(fetchLogRow)
	err := s.bun.NewSelect().
		Model(row).
		Where("station_id = ?", stationID).
		Order("fetched_at DESC", "id DESC").
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query last fetch for %d: %w", stationID, err)
	}
	rec := row.toModel()
	return &rec, nil
}

// RecordGallery stores a gallery record and returns its ID.
func (s *BunStore) RecordGallery(rec model.GalleryRecord) (int, error) {
	row := galleryRow{
		Path:       rec.Path,
		CreatedAt:  rec.CreatedAt,
		FrameCount: rec.FrameCount,
		ByteSize:   rec.ByteSize,
	}
	if _, err := s.bun.NewInsert().Model(&row).Exec(context.Background()); err != nil {
		return 0, fmt.Errorf("insert gallery record: %w", err)
	}
	return row.ID, nil
}

// GetAllGalleries returns all gallery records, newest first.
func (s *BunStore) GetAllGalleries() ([]model.GalleryRecord, error) {
	var rows []galleryRow
	err := s.bun.NewSelect().Model(&rows).Order("created_at DESC", "id DESC").Scan(context.Background())
	if err != nil {
		return nil, fmt.Errorf("query galleries: %w", err)
	}
	recs := make([]model.GalleryRecord, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.toModel())
	}
	return recs, nil
}

// GetLatestGallery returns the most recent gallery, or ErrNotFound.
func (s *BunStore) GetLatestGallery() (*model.GalleryRecord, error) {
	row := new(galleryRow)
	err := s.bun.NewSelect().
		Model(row).
		Order("created_at DESC", "id DESC").
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query latest gallery: %w", err)
	}
	rec := row.toModel()
	return &rec, nil
}

// GetKnownHostKey returns the pinned key for a host. An unknown host returns
// an empty string and no error, matching first-connection semantics.
func (s *BunStore) GetKnownHostKey(hostname string) (string, error) {
	row := new(knownHostKeyRow)
	err := s.bun.NewSelect().Model(row).Where("hostname = ?", hostname).Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query known host key: %w", err)
	}
	return row.Key, nil
}

// AddKnownHostKey pins (or replaces) a host key.
func (s *BunStore) AddKnownHostKey(hostname, key string) error {
	row := knownHostKeyRow{Hostname: hostname, Key: key}
	if _, err := s.knownHostKeyUpsert(&row).Exec(context.Background()); err != nil {
		return fmt.Errorf("upsert known host key: %w", err)
	}
	return nil
}

// knownHostKeyUpsert builds the dialect-specific upsert. MySQL has no
// ON CONFLICT clause.
func (s *BunStore) knownHostKeyUpsert(row *knownHostKeyRow) *bun.InsertQuery {
	q := s.bun.NewInsert().Model(row)
	if s.bun.Dialect().Name() == dialect.MySQL {
		return q.On("DUPLICATE KEY UPDATE").Set("`key` = VALUES(`key`)")
	}
	return q.On("CONFLICT (hostname) DO UPDATE").Set("key = EXCLUDED.key")
}

// ExportBackup dumps every table into a BackupData envelope.
func (s *BunStore) ExportBackup() (*model.BackupData, error) {
	stations, err := s.GetAllStations()
	if err != nil {
		return nil, err
	}
	fetches, err := s.GetRecentFetches(0)
	if err != nil {
		return nil, err
	}
	galleries, err := s.GetAllGalleries()
	if err != nil {
		return nil, err
	}
	return &model.BackupData{
		Stations:  stations,
		FetchLog:  fetches,
		Galleries: galleries,
	}, nil
}

// ImportBackup loads a BackupData envelope. The default mode integrates:
// only rows that do not already exist are added. With full=true all tables
// are wiped first.
func (s *BunStore) ImportBackup(data *model.BackupData, full bool) error {
	ctx := context.Background()
	if full {
		for _, m := range []any{
			(*fetchLogRow)(nil),
			(*galleryRow)(nil),
			(*stationRow)(nil),
		} {
			if _, err := s.bun.NewDelete().Model(m).Where("1 = 1").Exec(ctx); err != nil {
				return fmt.Errorf("wipe table: %w", err)
			}
		}
	}

	for _, st := range data.Stations {
		err := s.AddStation(st.ID, st.Name, st.Region, st.Tags)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return err
		}
		if !st.IsActive {
			if err := s.ToggleStationStatus(st.ID); err != nil {
				return err
			}
		}
	}
	// The history tables are append-only and have no natural primary key, so
	// integrate mode matches rows on their identity columns. Without this a
	// repeated restore would duplicate the whole log each time.
	for _, rec := range data.FetchLog {
		exists, err := s.bun.NewSelect().
			Model((*fetchLogRow)(nil)).
			Where("station_id = ?", rec.StationID).
			Where("fetched_at = ?", rec.FetchedAt).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check fetch record: %w", err)
		}
		if exists {
			continue
		}
		if err := s.RecordFetch(rec); err != nil {
			return err
		}
	}
	for _, g := range data.Galleries {
		exists, err := s.bun.NewSelect().
			Model((*galleryRow)(nil)).
			Where("path = ?", g.Path).
			Where("created_at = ?", g.CreatedAt).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check gallery record: %w", err)
		}
		if exists {
			continue
		}
		if _, err := s.RecordGallery(g); err != nil {
			return err
		}
	}
	return nil
}
