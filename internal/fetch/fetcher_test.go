// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/pelagios/driftwatch/internal/model"
)

// fakeRecorder collects fetch records in memory.
type fakeRecorder struct {
	mu   sync.Mutex
	recs []model.FetchRecord
}

func (r *fakeRecorder) RecordFetch(rec model.FetchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

// jpegStub is not a decodable JPEG, but fetch only checks the Content-Type.
var jpegStub = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

func newCamServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		station := r.URL.Query().Get("station")
		switch station {
		case "46042":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(jpegStub)
		case "51000":
			// Camera offline: NDBC answers with an HTML page.
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>No recent image</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T, srv *httptest.Server) *Fetcher {
	t.Helper()
	f := New(t.TempDir())
	f.Client = srv.Client()
	f.BaseURL = srv.URL + "/buoycam.php?station=%d"
	return f
}

func TestFetchStationSavesFrame(t *testing.T) {
	srv := newCamServer(t)
	f := newTestFetcher(t, srv)

	frame, err := f.FetchStation(context.Background(), model.Station{ID: 46042, Name: "Monterey"})
	if err != nil {
		t.Fatalf("FetchStation: %v", err)
	}
	if frame.StationID != 46042 {
		t.Errorf("StationID = %d", frame.StationID)
	}
	if frame.ByteSize != int64(len(jpegStub)) {
		t.Errorf("ByteSize = %d, want %d", frame.ByteSize, len(jpegStub))
	}

	data, err := os.ReadFile(f.FramePath(46042))
	if err != nil {
		t.Fatalf("frame file missing: %v", err)
	}
	if string(data) != string(jpegStub) {
		t.Error("frame file content mismatch")
	}

	// No temp files may remain after a successful fetch.
	entries, _ := os.ReadDir(f.OutputDir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestFetchStationRejectsNonImage(t *testing.T) {
	srv := newCamServer(t)
	f := newTestFetcher(t, srv)

	_, err := f.FetchStation(context.Background(), model.Station{ID: 51000})
	if err == nil {
		t.Fatal("expected error for non-image content type")
	}
	if !strings.Contains(err.Error(), "non-image") {
		t.Errorf("err = %v", err)
	}
	if _, statErr := os.Stat(f.FramePath(51000)); !os.IsNotExist(statErr) {
		t.Error("rejected response must not leave a frame file")
	}
}

func TestFetchStationStatusError(t *testing.T) {
	srv := newCamServer(t)
	f := newTestFetcher(t, srv)

	_, err := f.FetchStation(context.Background(), model.Station{ID: 99999})
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("err = %v, want status 404 error", err)
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	srv := newCamServer(t)
	f := newTestFetcher(t, srv)
	rec := &fakeRecorder{}
	f.Recorder = rec

	stations := []model.Station{
		{ID: 46042, Name: "Monterey"},
		{ID: 51000},
		{ID: 99999},
	}
	results := f.FetchAll(context.Background(), stations)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}

	byID := map[int]Result{}
	for _, r := range results {
		byID[r.Station.ID] = r
	}
	if byID[46042].Err != nil {
		t.Errorf("station 46042 failed: %v", byID[46042].Err)
	}
	if byID[51000].Err == nil || byID[99999].Err == nil {
		t.Error("expected failures for 51000 and 99999")
	}

	if len(rec.recs) != 3 {
		t.Fatalf("recorded %d attempts, want 3", len(rec.recs))
	}
	okCount := 0
	for _, r := range rec.recs {
		if r.OK {
			okCount++
			if r.Path == "" {
				t.Error("successful record missing path")
			}
		} else if r.Detail == "" {
			t.Error("failed record missing detail")
		}
	}
	if okCount != 1 {
		t.Errorf("recorded %d successes, want 1", okCount)
	}
}

func TestFetchAllRespectsContextCancel(t *testing.T) {
	srv := newCamServer(t)
	f := newTestFetcher(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stations := make([]model.Station, 0, 8)
	for i := 0; i < 8; i++ {
		stations = append(stations, model.Station{ID: 46042})
	}
	results := f.FetchAll(ctx, stations)
	if len(results) != 8 {
		t.Fatalf("got %d results", len(results))
	}
	for _, r := range results {
		if r.Err == nil {
			t.Error("fetch with canceled context must fail")
		}
	}
}

func TestFramePath(t *testing.T) {
	f := New("/data/frames")
	want := fmt.Sprintf("/data/frames/%d.jpg", 46025)
	if got := f.FramePath(46025); got != want {
		t.Errorf("FramePath = %q, want %q", got, want)
	}
}
