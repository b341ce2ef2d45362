// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// package fetch downloads BuoyCAM frames from the NDBC endpoint and saves
// them to the frame directory, one file per station.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pelagios/driftwatch/internal/logging"
	"github.com/pelagios/driftwatch/internal/model"
)

// DefaultBaseURL is the NDBC BuoyCAM endpoint. The %d verb takes the
// station ID.
const DefaultBaseURL = "https://www.ndbc.noaa.gov/buoycam.php?station=%d"

// DefaultConcurrency bounds parallel downloads when the config does not.
const DefaultConcurrency = 4

// Recorder receives one entry per fetch attempt, successful or not.
type Recorder interface {
	RecordFetch(rec model.FetchRecord) error
}

// Result pairs a station with the outcome of its fetch.
type Result struct {
	Station model.Station
	Frame   *model.Frame
	Err     error
}

// Fetcher downloads frames for stations.
type Fetcher struct {
	Client      *http.Client
	BaseURL     string
	OutputDir   string
	Concurrency int
	Recorder    Recorder // optional

	// now is swappable for tests.
	now func() time.Time
}

// New returns a Fetcher writing frames to outputDir.
func New(outputDir string) *Fetcher {
	return &Fetcher{
		Client:      &http.Client{Timeout: 30 * time.Second},
		BaseURL:     DefaultBaseURL,
		OutputDir:   outputDir,
		Concurrency: DefaultConcurrency,
		now:         time.Now,
	}
}

// FetchStation downloads the current frame for one station and writes it to
// `<OutputDir>/<id>.jpg` via a temp file and rename, so a concurrent gallery
// build never sees a half-written frame.
func (f *Fetcher) FetchStation(ctx context.Context, station model.Station) (*model.Frame, error) {
	frame, err := f.fetchStation(ctx, station)
	f.record(station, frame, err)
	return frame, err
}

func (f *Fetcher) fetchStation(ctx context.Context, station model.Station) (*model.Frame, error) {
	url := station.CameraURL(f.baseURL())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for station %d: %w", station.ID, err)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch station %d: %w", station.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("station %d returned status %d", station.ID, resp.StatusCode)
	}

	// Stations without a working camera answer 200 with an HTML error page.
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "image") {
		return nil, fmt.Errorf("station %d returned non-image content type %q", station.ID, ct)
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(f.OutputDir, fmt.Sprintf(".%d-*.jpg", station.ID))
	if err != nil {
		return nil, fmt.Errorf("create temp frame file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("write frame for station %d: %w", station.ID, err)
	}

	finalPath := filepath.Join(f.OutputDir, fmt.Sprintf("%d.jpg", station.ID))
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("move frame into place: %w", err)
	}

	return &model.Frame{
		StationID: station.ID,
		Path:      finalPath,
		FetchedAt: f.clock()(),
		ByteSize:  n,
	}, nil
}

// FetchAll downloads frames for all given stations with bounded concurrency.
// One station failing never aborts the others; per-station errors are
// reported in the returned results.
func (f *Fetcher) FetchAll(ctx context.Context, stations []model.Station) []Result {
	results := make([]Result, len(stations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency())

	for i, station := range stations {
		g.Go(func() error {
			frame, err := f.FetchStation(gctx, station)
			if err != nil {
				logging.Debugf("fetch: station %s: %v", station, err)
			}
			results[i] = Result{Station: station, Frame: frame, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// FramePath returns where a station's current frame lives on disk.
func (f *Fetcher) FramePath(stationID int) string {
	return filepath.Join(f.OutputDir, fmt.Sprintf("%d.jpg", stationID))
}

func (f *Fetcher) record(station model.Station, frame *model.Frame, err error) {
	if f.Recorder == nil {
		return
	}
	rec := model.FetchRecord{
		StationID: station.ID,
		FetchedAt: f.clock()(),
		OK:        err == nil,
	}
	if err != nil {
		rec.Detail = err.Error()
	} else if frame != nil {
		rec.Path = frame.Path
	}
	if rerr := f.Recorder.RecordFetch(rec); rerr != nil {
		logging.Warnf("fetch: could not record attempt for station %d: %v", station.ID, rerr)
	}
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fetcher) baseURL() string {
	if f.BaseURL != "" {
		return f.BaseURL
	}
	return DefaultBaseURL
}

func (f *Fetcher) concurrency() int {
	if f.Concurrency > 0 {
		return f.Concurrency
	}
	return DefaultConcurrency
}

func (f *Fetcher) clock() func() time.Time {
	if f.now != nil {
		return f.now
	}
	return time.Now
}
