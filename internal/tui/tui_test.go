// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pelagios/driftwatch/internal/gallery"
	"github.com/pelagios/driftwatch/internal/model"
)

func testEntries() []stationEntry {
	fetched := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	return []stationEntry{
		{
			station: model.Station{ID: 46042, Name: "Monterey", Region: "Pacific", IsActive: true},
			last:    &model.FetchRecord{StationID: 46042, FetchedAt: fetched, OK: true},
		},
		{
			station: model.Station{ID: 51000, Name: "Northern Hawaii One", Region: "Hawaii", IsActive: false},
		},
	}
}

func TestUpdateQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		t.Run(key, func(t *testing.T) {
			m := initialModel(Options{})
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
			if key != "q" {
				// Control keys arrive as typed key messages, not runes.
				switch key {
				case "ctrl+c":
					_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
				case "esc":
					_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
				}
			}
			if cmd == nil {
				t.Fatal("no command returned")
			}
			if msg := cmd(); msg != tea.Quit() {
				t.Errorf("key %q returned %v, want tea.Quit", key, msg)
			}
		})
	}
}

func TestUpdateCursorMovement(t *testing.T) {
	m := initialModel(Options{})
	updated, _ := m.Update(stationsLoadedMsg{entries: testEntries()})
	m = updated.(dashboardModel)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(dashboardModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d after down, want 1", m.cursor)
	}

	// Stays at the last entry.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(dashboardModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d at list end, want 1", m.cursor)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(dashboardModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", m.cursor)
	}
}

func TestUpdateStationsLoaded(t *testing.T) {
	m := initialModel(Options{})
	updated, _ := m.Update(stationsLoadedMsg{entries: testEntries()})
	m = updated.(dashboardModel)

	if len(m.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(m.entries))
	}

	view := m.View()
	if !strings.Contains(view, "46042 (Monterey)") {
		t.Error("view missing station line")
	}
	if !strings.Contains(view, "never fetched") {
		t.Error("view missing never-fetched status")
	}
}

func TestUpdateStationsLoadedError(t *testing.T) {
	m := initialModel(Options{})
	updated, _ := m.Update(stationsLoadedMsg{err: errors.New("database gone")})
	m = updated.(dashboardModel)

	if m.err == nil {
		t.Fatal("error not kept")
	}
	if !strings.Contains(m.View(), "database gone") {
		t.Error("view does not surface the error")
	}
}

func TestUpdateFetchLifecycle(t *testing.T) {
	m := initialModel(Options{})
	updated, _ := m.Update(stationsLoadedMsg{entries: testEntries()})
	m = updated.(dashboardModel)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = updated.(dashboardModel)
	if m.busy == "" {
		t.Error("fetch did not mark the model busy")
	}
	if cmd == nil {
		t.Error("fetch returned no command")
	}

	// A second press while busy is ignored.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd != nil {
		t.Error("fetch started again while busy")
	}

	updated, _ = m.Update(fetchDoneMsg{ok: 3, total: 4})
	m = updated.(dashboardModel)
	if m.busy != "" {
		t.Error("fetch completion did not clear busy state")
	}
	if !strings.Contains(m.status, "3/4") {
		t.Errorf("status = %q, want fetch summary", m.status)
	}
}

func TestUpdateGalleryDone(t *testing.T) {
	m := initialModel(Options{})
	m.busy = "building gallery"

	updated, _ := m.Update(galleryDoneMsg{result: &gallery.Result{Path: "/tmp/g.jpg", FrameCount: 5}})
	m = updated.(dashboardModel)
	if m.busy != "" {
		t.Error("gallery completion did not clear busy state")
	}
	if !strings.Contains(m.status, "/tmp/g.jpg") {
		t.Errorf("status = %q, want gallery path", m.status)
	}
}

func TestUpdateGalleryNoFrames(t *testing.T) {
	m := initialModel(Options{})
	m.busy = "building gallery"

	updated, _ := m.Update(galleryDoneMsg{err: gallery.ErrNoFrames})
	m = updated.(dashboardModel)
	if m.err != nil {
		t.Errorf("no-frames outcome treated as error: %v", m.err)
	}
	if m.status == "" {
		t.Error("no-frames outcome has no status line")
	}
}
