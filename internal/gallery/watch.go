// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package gallery

import (
	"context"
	"errors"
	"time"

	"github.com/pelagios/driftwatch/internal/fetch"
	"github.com/pelagios/driftwatch/internal/logging"
)

// DefaultInterval between watch cycles when the config does not set one.
const DefaultInterval = 30 * time.Minute

// Watcher runs the fetch-then-build cycle forever at a fixed interval.
// A failing cycle is logged and the loop keeps going; only context
// cancellation stops it.
type Watcher struct {
	Fetcher  *fetch.Fetcher
	Builder  *Builder
	Interval time.Duration

	// cycle is swappable for tests; defaults to runOnce.
	cycle func(ctx context.Context)
}

// NewWatcher wires a fetcher and a builder into a watch loop.
func NewWatcher(fetcher *fetch.Fetcher, builder *Builder, interval time.Duration) *Watcher {
	return &Watcher{Fetcher: fetcher, Builder: builder, Interval: interval}
}

// Run performs one cycle immediately and then one per interval until the
// context is cancelled. Cancellation is the normal way to stop and returns
// nil.
func (w *Watcher) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	run := w.cycle
	if run == nil {
		run = w.runOnce
	}

	run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Infof("watch: stopping")
			return nil
		case <-ticker.C:
			run(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	stations, err := w.Builder.Stations.GetActiveStations()
	if err != nil {
		logging.Errorf("watch: list active stations: %v", err)
		return
	}

	results := w.Fetcher.FetchAll(ctx, stations)
	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	logging.Infof("watch: fetched %d/%d stations", ok, len(results))

	if _, err := w.Builder.Build(ctx); err != nil {
		if errors.Is(err, ErrNoFrames) {
			logging.Warnf("watch: no usable frames, skipping gallery")
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.Errorf("watch: gallery build failed: %v", err)
	}
}
