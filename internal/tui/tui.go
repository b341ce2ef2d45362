// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// This file is the entry point for the dashboard: a station list with the
// outcome of the last fetch per station, plus keys to fetch, toggle and
// build a gallery without leaving the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pelagios/driftwatch/internal/db"
	"github.com/pelagios/driftwatch/internal/fetch"
	"github.com/pelagios/driftwatch/internal/gallery"
	"github.com/pelagios/driftwatch/internal/model"
)

// Options carries the resolved configuration the dashboard works with.
type Options struct {
	FrameDir    string
	OutputDir   string
	BaseURL     string
	Concurrency int
}

// stationEntry pairs a station with its most recent fetch attempt.
type stationEntry struct {
	station model.Station
	last    *model.FetchRecord
}

// stationsLoadedMsg delivers the refreshed station list.
type stationsLoadedMsg struct {
	entries []stationEntry
	err     error
}

// fetchDoneMsg signals a completed fetch round.
type fetchDoneMsg struct {
	ok    int
	total int
}

// galleryDoneMsg signals a completed gallery build.
type galleryDoneMsg struct {
	result *gallery.Result
	err    error
}

type dashboardModel struct {
	opts    Options
	entries []stationEntry
	cursor  int
	spinner spinner.Model
	busy    string // non-empty while a background action runs
	status  string
	err     error
	width   int
	height  int
}

func initialModel(opts Options) dashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedItemStyle
	return dashboardModel{opts: opts, spinner: sp}
}

// Run starts the dashboard. The database must be initialized first.
func Run(opts Options) error {
	_, err := tea.NewProgram(
		initialModel(opts),
		tea.WithAltScreen(),
	).Run()
	return err
}

func loadStationsCmd() tea.Cmd {
	return func() tea.Msg {
		stations, err := db.Default().GetAllStations()
		if err != nil {
			return stationsLoadedMsg{err: err}
		}
		entries := make([]stationEntry, 0, len(stations))
		for _, s := range stations {
			last, err := db.Default().GetLastFetch(s.ID)
			if err != nil && !errors.Is(err, db.ErrNotFound) {
				return stationsLoadedMsg{err: err}
			}
			entries = append(entries, stationEntry{station: s, last: last})
		}
		return stationsLoadedMsg{entries: entries}
	}
}

func (m dashboardModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		stations, err := db.Default().GetActiveStations()
		if err != nil {
			return stationsLoadedMsg{err: err}
		}

		f := fetch.New(m.opts.FrameDir)
		if m.opts.BaseURL != "" {
			f.BaseURL = m.opts.BaseURL
		}
		if m.opts.Concurrency > 0 {
			f.Concurrency = m.opts.Concurrency
		}
		f.Recorder = db.Default()

		results := f.FetchAll(context.Background(), stations)
		ok := 0
		for _, r := range results {
			if r.Err == nil {
				ok++
			}
		}
		return fetchDoneMsg{ok: ok, total: len(results)}
	}
}

func (m dashboardModel) galleryCmd() tea.Cmd {
	return func() tea.Msg {
		b := gallery.New(m.opts.FrameDir, m.opts.OutputDir, db.Default())
		b.Recorder = db.Default()
		res, err := b.Build(context.Background())
		return galleryDoneMsg{result: res, err: err}
	}
}

func toggleStationCmd(id int) tea.Cmd {
	return func() tea.Msg {
		if err := db.Default().ToggleStationStatus(id); err != nil {
			return stationsLoadedMsg{err: err}
		}
		return loadStationsCmd()()
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(loadStationsCmd(), m.spinner.Tick)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stationsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.entries = msg.entries
		m.err = nil
		if m.cursor >= len(m.entries) && len(m.entries) > 0 {
			m.cursor = len(m.entries) - 1
		}
		return m, nil

	case fetchDoneMsg:
		m.busy = ""
		m.status = fmt.Sprintf("fetched %d/%d stations", msg.ok, msg.total)
		return m, loadStationsCmd()

	case galleryDoneMsg:
		m.busy = ""
		if msg.err != nil {
			if errors.Is(msg.err, gallery.ErrNoFrames) {
				m.status = "no usable frames, gallery skipped"
			} else {
				m.err = msg.err
			}
			return m, nil
		}
		m.status = fmt.Sprintf("gallery written: %s (%d frames)", msg.result.Path, msg.result.FrameCount)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m dashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case "r":
		if m.busy == "" {
			m.busy = "fetching frames"
			m.status = ""
			return m, tea.Batch(m.fetchCmd(), m.spinner.Tick)
		}

	case "g":
		if m.busy == "" {
			m.busy = "building gallery"
			m.status = ""
			return m, tea.Batch(m.galleryCmd(), m.spinner.Tick)
		}

	case " ", "enter":
		if m.busy == "" && m.cursor < len(m.entries) {
			return m, toggleStationCmd(m.entries[m.cursor].station.ID)
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Driftwatch — BuoyCAM stations"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	for i, e := range m.entries {
		cursor := "  "
		style := itemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		if !e.station.IsActive {
			style = inactiveItemStyle
		}
		b.WriteString(cursor + style.Render(stationLine(e)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.busy != "":
		b.WriteString(m.spinner.View() + " " + m.busy + "...")
	case m.status != "":
		b.WriteString(successStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r: fetch • g: gallery • space: toggle station • q: quit"))

	return docStyle.Render(b.String())
}

// stationLine formats one row of the station table.
func stationLine(e stationEntry) string {
	status := "never fetched"
	if e.last != nil {
		when := e.last.FetchedAt.Format("Jan 02 15:04")
		if e.last.OK {
			status = "ok  " + when
		} else {
			status = "err " + when
		}
	}
	return fmt.Sprintf("%-28s %-10s %s", e.station.String(), e.station.Region, status)
}
