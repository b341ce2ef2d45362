// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"

	"github.com/pelagios/driftwatch/internal/model"
)

// defaultStations is the seed catalog of NDBC stations with working BuoyCAMs.
// The IDs are the stations the gallery has always tracked; names and regions
// come from the NDBC station index.
var defaultStations = []model.Station{
	{ID: 45007, Name: "Lake Michigan South", Region: "Great Lakes", IsActive: true},
	{ID: 45012, Name: "Lake Ontario West", Region: "Great Lakes", IsActive: true},
	{ID: 46002, Name: "West Oregon", Region: "Pacific", IsActive: true},
	{ID: 46011, Name: "Santa Maria", Region: "Pacific", IsActive: true},
	{ID: 46012, Name: "Half Moon Bay", Region: "Pacific", IsActive: true},
	{ID: 46015, Name: "Port Orford", Region: "Pacific", IsActive: true},
	{ID: 46025, Name: "Santa Monica Bay", Region: "Pacific", IsActive: true},
	{ID: 46026, Name: "San Francisco", Region: "Pacific", IsActive: true},
	{ID: 46027, Name: "St Georges", Region: "Pacific", IsActive: true},
	{ID: 46028, Name: "Cape San Martin", Region: "Pacific", IsActive: true},
	{ID: 46042, Name: "Monterey", Region: "Pacific", IsActive: true},
	{ID: 46047, Name: "Tanner Bank", Region: "Pacific", IsActive: true},
	{ID: 46053, Name: "East Santa Barbara", Region: "Pacific", IsActive: true},
	{ID: 46054, Name: "West Santa Barbara", Region: "Pacific", IsActive: true},
	{ID: 46059, Name: "West California", Region: "Pacific", IsActive: true},
	{ID: 46066, Name: "South Kodiak", Region: "Alaska", IsActive: true},
	{ID: 46069, Name: "South Santa Rosa", Region: "Pacific", IsActive: true},
	{ID: 46071, Name: "Western Aleutians", Region: "Alaska", IsActive: true},
	{ID: 46072, Name: "Central Aleutians", Region: "Alaska", IsActive: true},
	{ID: 46078, Name: "Albatross Bank", Region: "Alaska", IsActive: true},
	{ID: 46084, Name: "Cape Edgecumbe", Region: "Alaska", IsActive: true},
	{ID: 46085, Name: "Central Gulf of Alaska", Region: "Alaska", IsActive: true},
	{ID: 46086, Name: "San Clemente Basin", Region: "Pacific", IsActive: true},
	{ID: 46087, Name: "Neah Bay", Region: "Pacific", IsActive: true},
	{ID: 46088, Name: "New Dungeness", Region: "Pacific", IsActive: true},
	{ID: 46089, Name: "Tillamook", Region: "Pacific", IsActive: true},
	{ID: 51000, Name: "Northern Hawaii One", Region: "Hawaii", IsActive: true},
	{ID: 51001, Name: "Northwestern Hawaii One", Region: "Hawaii", IsActive: true},
	{ID: 51002, Name: "Southwest Hawaii", Region: "Hawaii", IsActive: true},
	{ID: 51003, Name: "Western Hawaii", Region: "Hawaii", IsActive: true},
	{ID: 51004, Name: "Southeast Hawaii", Region: "Hawaii", IsActive: true},
	{ID: 51101, Name: "Northwestern Hawaii Two", Region: "Hawaii", IsActive: true},
}

// DefaultStationIDs returns the IDs of the seed catalog, in catalog order.
func DefaultStationIDs() []int {
	ids := make([]int, 0, len(defaultStations))
	for _, s := range defaultStations {
		ids = append(ids, s.ID)
	}
	return ids
}

// seedStations inserts the default catalog when the stations table is empty.
// A user who deletes stations on purpose is not re-seeded, because the table
// is only empty on a fresh database.
func (s *BunStore) seedStations() error {
	count, err := s.bun.NewSelect().Model((*stationRow)(nil)).Count(context.Background())
	if err != nil {
		return fmt.Errorf("count stations: %w", err)
	}
	if count > 0 {
		return nil
	}

	rows := make([]stationRow, 0, len(defaultStations))
	for _, st := range defaultStations {
		rows = append(rows, stationRowFromModel(st))
	}
	if _, err := s.bun.NewInsert().Model(&rows).Exec(context.Background()); err != nil {
		return fmt.Errorf("insert seed stations: %w", err)
	}
	dbLogf("db: seeded %d stations", len(rows))
	return nil
}
