// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pelagios/driftwatch/internal/model"
)

// newTestStore opens a fresh in-memory SQLite store.
func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewStoreFromDSN("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewStoreFromDSN: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSeededCatalog(t *testing.T) {
	s := newTestStore(t)

	stations, err := s.GetAllStations()
	if err != nil {
		t.Fatalf("GetAllStations: %v", err)
	}
	ids := DefaultStationIDs()
	if len(stations) != len(ids) {
		t.Fatalf("expected %d seeded stations, got %d", len(ids), len(stations))
	}
	for i, st := range stations {
		if st.ID != ids[i] {
			t.Errorf("seed position %d: station %d, want %d", i, st.ID, ids[i])
		}
		if !st.IsActive {
			t.Errorf("seeded station %d should be active", st.ID)
		}
	}

	monterey, err := s.GetStation(46042)
	if err != nil {
		t.Fatalf("GetStation(46042): %v", err)
	}
	if monterey.Name != "Monterey" {
		t.Errorf("station 46042 name = %q", monterey.Name)
	}
}

func TestStationLifecycle(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddStation(41001, "East Hatteras", "Atlantic", "test"); err != nil {
		t.Fatalf("AddStation: %v", err)
	}
	if err := s.AddStation(41001, "East Hatteras", "Atlantic", ""); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate AddStation err = %v, want ErrDuplicate", err)
	}

	if err := s.ToggleStationStatus(41001); err != nil {
		t.Fatalf("ToggleStationStatus: %v", err)
	}
	st, err := s.GetStation(41001)
	if err != nil {
		t.Fatal(err)
	}
	if st.IsActive {
		t.Error("station should be inactive after toggle")
	}

	active, err := s.GetActiveStations()
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range active {
		if a.ID == 41001 {
			t.Error("inactive station returned by GetActiveStations")
		}
	}

	if err := s.UpdateStationTags(41001, "atlantic,experimental"); err != nil {
		t.Fatalf("UpdateStationTags: %v", err)
	}
	st, _ = s.GetStation(41001)
	if st.Tags != "atlantic,experimental" {
		t.Errorf("tags = %q", st.Tags)
	}

	if err := s.DeleteStation(41001); err != nil {
		t.Fatalf("DeleteStation: %v", err)
	}
	if _, err := s.GetStation(41001); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetStation after delete err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteStation(41001); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteStation err = %v, want ErrNotFound", err)
	}
}

func TestFetchLog(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetLastFetch(46042); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLastFetch on empty log err = %v, want ErrNotFound", err)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	recs := []model.FetchRecord{
		{StationID: 46042, FetchedAt: base, OK: true, Path: "/tmp/46042.jpg"},
		{StationID: 46042, FetchedAt: base.Add(time.Hour), OK: false, Detail: "connection refused"},
		{StationID: 51000, FetchedAt: base.Add(2 * time.Hour), OK: true, Path: "/tmp/51000.jpg"},
	}
	for _, r := range recs {
		if err := s.RecordFetch(r); err != nil {
			t.Fatalf("RecordFetch: %v", err)
		}
	}

	last, err := s.GetLastFetch(46042)
	if err != nil {
		t.Fatalf("GetLastFetch: %v", err)
	}
	if last.OK || last.Detail != "connection refused" {
		t.Errorf("last fetch = %+v, want the failed attempt", last)
	}

	recent, err := s.GetRecentFetches(2)
	if err != nil {
		t.Fatalf("GetRecentFetches: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].StationID != 51000 {
		t.Errorf("newest entry station = %d, want 51000", recent[0].StationID)
	}
}

func TestGalleryRecords(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetLatestGallery(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLatestGallery on empty table err = %v, want ErrNotFound", err)
	}

	first := model.GalleryRecord{Path: "/tmp/gallery_1.jpg", CreatedAt: time.Now().Add(-time.Hour), FrameCount: 10, ByteSize: 1024}
	second := model.GalleryRecord{Path: "/tmp/gallery_2.jpg", CreatedAt: time.Now(), FrameCount: 12, ByteSize: 2048}
	if _, err := s.RecordGallery(first); err != nil {
		t.Fatal(err)
	}
	id, err := s.RecordGallery(second)
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Error("RecordGallery returned zero ID")
	}

	latest, err := s.GetLatestGallery()
	if err != nil {
		t.Fatal(err)
	}
	if latest.Path != "/tmp/gallery_2.jpg" {
		t.Errorf("latest gallery = %q", latest.Path)
	}
}

func TestKnownHostKeys(t *testing.T) {
	s := newTestStore(t)

	key, err := s.GetKnownHostKey("gallery.example.com")
	if err != nil {
		t.Fatalf("GetKnownHostKey: %v", err)
	}
	if key != "" {
		t.Errorf("unknown host returned key %q", key)
	}

	if err := s.AddKnownHostKey("gallery.example.com", "ssh-ed25519 AAAA..."); err != nil {
		t.Fatalf("AddKnownHostKey: %v", err)
	}
	key, err = s.GetKnownHostKey("gallery.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if key != "ssh-ed25519 AAAA..." {
		t.Errorf("key = %q", key)
	}

	// Replacing an existing pin must not error.
	if err := s.AddKnownHostKey("gallery.example.com", "ssh-ed25519 BBBB..."); err != nil {
		t.Fatalf("AddKnownHostKey replace: %v", err)
	}
	key, _ = s.GetKnownHostKey("gallery.example.com")
	if key != "ssh-ed25519 BBBB..." {
		t.Errorf("replaced key = %q", key)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	src := newTestStore(t)
	if err := src.RecordFetch(model.FetchRecord{StationID: 46042, FetchedAt: time.Now(), OK: true, Path: "x.jpg"}); err != nil {
		t.Fatal(err)
	}
	if err := src.ToggleStationStatus(45007); err != nil {
		t.Fatal(err)
	}

	data, err := src.ExportBackup()
	if err != nil {
		t.Fatalf("ExportBackup: %v", err)
	}

	dst := newTestStore(t)
	if err := dst.ImportBackup(data, true); err != nil {
		t.Fatalf("ImportBackup: %v", err)
	}

	stations, err := dst.GetAllStations()
	if err != nil {
		t.Fatal(err)
	}
	if len(stations) != 32 {
		t.Fatalf("restored %d stations, want 32", len(stations))
	}
	st, err := dst.GetStation(45007)
	if err != nil {
		t.Fatal(err)
	}
	if st.IsActive {
		t.Error("inactive flag lost in backup round trip")
	}
	fetches, err := dst.GetRecentFetches(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetches) != 1 {
		t.Errorf("restored %d fetch records, want 1", len(fetches))
	}
}

func TestImportBackupIntegrateSkipsExistingHistory(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordFetch(model.FetchRecord{
		StationID: 46042,
		FetchedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		OK:        true,
		Path:      "/tmp/46042.jpg",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordGallery(model.GalleryRecord{
		Path:       "/tmp/gallery_1.jpg",
		CreatedAt:  time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC),
		FrameCount: 10,
		ByteSize:   1024,
	}); err != nil {
		t.Fatal(err)
	}

	data, err := s.ExportBackup()
	if err != nil {
		t.Fatalf("ExportBackup: %v", err)
	}

	// Restoring a backup into the database it was taken from must be a no-op,
	// even when repeated.
	for i := 0; i < 2; i++ {
		if err := s.ImportBackup(data, false); err != nil {
			t.Fatalf("ImportBackup #%d: %v", i+1, err)
		}
	}

	fetches, err := s.GetRecentFetches(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetches) != 1 {
		t.Errorf("fetch log has %d rows after integrate restore, want 1", len(fetches))
	}
	galleries, err := s.GetAllGalleries()
	if err != nil {
		t.Fatal(err)
	}
	if len(galleries) != 1 {
		t.Errorf("galleries has %d rows after integrate restore, want 1", len(galleries))
	}
}

func TestImportBackupIntegrateAddsNewHistory(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordFetch(model.FetchRecord{
		StationID: 46042,
		FetchedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		OK:        true,
		Path:      "/tmp/46042.jpg",
	}); err != nil {
		t.Fatal(err)
	}

	data := &model.BackupData{
		FetchLog: []model.FetchRecord{
			{StationID: 46042, FetchedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), OK: true, Path: "/tmp/46042.jpg"},
			{StationID: 51000, FetchedAt: time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC), OK: false, Detail: "timeout"},
		},
		Galleries: []model.GalleryRecord{
			{Path: "/tmp/gallery_2.jpg", CreatedAt: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC), FrameCount: 8, ByteSize: 512},
		},
	}
	if err := s.ImportBackup(data, false); err != nil {
		t.Fatalf("ImportBackup: %v", err)
	}

	fetches, err := s.GetRecentFetches(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetches) != 2 {
		t.Fatalf("fetch log has %d rows, want 2", len(fetches))
	}
	if fetches[0].StationID != 51000 || fetches[0].Detail != "timeout" {
		t.Errorf("new fetch record not integrated: %+v", fetches[0])
	}
	galleries, err := s.GetAllGalleries()
	if err != nil {
		t.Fatal(err)
	}
	if len(galleries) != 1 {
		t.Errorf("galleries has %d rows, want 1", len(galleries))
	}
}

func TestKnownHostKeyUpsertMySQL(t *testing.T) {
	// Opening a handle does not connect; only the rendered SQL is checked.
	sqlDB, err := sql.Open("mysql", "driftwatch:driftwatch@tcp(127.0.0.1:3306)/driftwatch")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	s := &BunStore{db: sqlDB, bun: createBunDB(sqlDB, "mysql")}

	q := s.knownHostKeyUpsert(&knownHostKeyRow{Hostname: "gallery.example.com", Key: "ssh-ed25519 AAAA..."})
	raw, err := q.AppendQuery(s.bun.QueryGen(), nil)
	if err != nil {
		t.Fatalf("AppendQuery: %v", err)
	}
	sqlText := string(raw)
	if !strings.Contains(sqlText, "ON DUPLICATE KEY UPDATE") {
		t.Errorf("mysql upsert = %q, want ON DUPLICATE KEY UPDATE", sqlText)
	}
	if strings.Contains(sqlText, "ON CONFLICT") {
		t.Errorf("mysql upsert must not use ON CONFLICT: %q", sqlText)
	}
}
