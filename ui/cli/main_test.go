// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/charmbracelet/log"

	"github.com/pelagios/driftwatch/internal/db"
	"github.com/pelagios/driftwatch/internal/i18n"
	"github.com/pelagios/driftwatch/internal/model"
)

// setupTestDB initializes an in-memory SQLite database for isolated testing
// and ensures the i18n system is ready.
func setupTestDB(t *testing.T) {
	t.Helper()

	// A unique shared-cache in-memory database per test keeps tests isolated
	// while letting the pool open more than one connection.
	uniq := fmt.Sprintf("memdb_%d", time.Now().UnixNano())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uniq)

	i18n.Init("en")
	if _, err := db.New("sqlite", dsn); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.SetStore(nil) })

	// Keep command side effects inside the test directory.
	t.Setenv("DRIFTWATCH_OUTPUT_DIR", t.TempDir())
}

// executeCommand runs the root command with the given arguments and captures
// its output. It can optionally take an io.Reader to mock stdin for
// interactive commands.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) string {
	t.Helper()

	oldOut := os.Stdout
	oldErr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w
	log.SetOutput(w)
	defer log.SetOutput(os.Stderr)
	defer func() {
		os.Stdout = oldOut
		os.Stderr = oldErr
	}()

	if stdin != nil {
		oldIn := os.Stdin
		inR, inW, _ := os.Pipe()
		go func() {
			_, _ = io.Copy(inW, stdin)
			_ = inW.Close()
		}()
		os.Stdin = inR
		defer func() { os.Stdin = oldIn }()
	}

	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	_ = w.Close()
	out, _ := io.ReadAll(r)
	if err != nil {
		t.Fatalf("command %v failed: %v\noutput: %s", args, err, out)
	}
	return string(out)
}

func TestStationsListShowsSeededCatalog(t *testing.T) {
	setupTestDB(t)

	out := executeCommand(t, nil, "stations")
	if !strings.Contains(out, "46042 (Monterey)") {
		t.Errorf("catalog listing missing seeded station:\n%s", out)
	}
	if !strings.Contains(out, "[+]") {
		t.Errorf("seeded stations should list as active:\n%s", out)
	}
}

func TestStationsAddAndShow(t *testing.T) {
	setupTestDB(t)

	out := executeCommand(t, nil, "stations", "add", "41009", "Canaveral", "Atlantic", "--tags", "east")
	if !strings.Contains(out, "Added station 41009 (Canaveral).") {
		t.Errorf("unexpected add output:\n%s", out)
	}

	out = executeCommand(t, nil, "stations", "show", "41009")
	if !strings.Contains(out, "41009 (Canaveral)") {
		t.Errorf("show output missing station:\n%s", out)
	}
	if !strings.Contains(out, "Atlantic") {
		t.Errorf("show output missing region:\n%s", out)
	}
	if !strings.Contains(out, "buoycam.php?station=41009") {
		t.Errorf("show output missing camera URL:\n%s", out)
	}
	if !strings.Contains(out, "east") {
		t.Errorf("show output missing tags:\n%s", out)
	}
}

func TestStationsEnableDisable(t *testing.T) {
	setupTestDB(t)

	out := executeCommand(t, nil, "stations", "disable", "46042")
	if !strings.Contains(out, "Disabled station 46042 (Monterey).") {
		t.Errorf("unexpected disable output:\n%s", out)
	}
	station, err := db.Default().GetStation(46042)
	if err != nil {
		t.Fatalf("GetStation: %v", err)
	}
	if station.IsActive {
		t.Error("station still active after disable")
	}

	// Disabling again stays disabled.
	executeCommand(t, nil, "stations", "disable", "46042")
	station, _ = db.Default().GetStation(46042)
	if station.IsActive {
		t.Error("second disable flipped the station back on")
	}

	out = executeCommand(t, nil, "stations", "enable", "46042")
	if !strings.Contains(out, "Enabled station 46042 (Monterey).") {
		t.Errorf("unexpected enable output:\n%s", out)
	}
	station, _ = db.Default().GetStation(46042)
	if !station.IsActive {
		t.Error("station not active after enable")
	}
}

func TestGalleryCmdWithoutFrames(t *testing.T) {
	setupTestDB(t)

	out := executeCommand(t, nil, "gallery")
	if !strings.Contains(out, "No images available for gallery.") {
		t.Errorf("expected the no-frames message:\n%s", out)
	}
}

func TestExportAndRestoreRoundTrip(t *testing.T) {
	setupTestDB(t)

	if err := db.Default().AddStation(41009, "Canaveral", "Atlantic", ""); err != nil {
		t.Fatalf("AddStation: %v", err)
	}

	backupFile := filepath.Join(t.TempDir(), "backup.json")
	out := executeCommand(t, nil, "export", backupFile)
	if !strings.Contains(out, "Backup written to "+backupFile+".zst") {
		t.Errorf("unexpected export output:\n%s", out)
	}
	if _, err := os.Stat(backupFile + ".zst"); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	if err := db.Default().DeleteStation(41009); err != nil {
		t.Fatalf("DeleteStation: %v", err)
	}

	out = executeCommand(t, nil, "restore", backupFile+".zst")
	if !strings.Contains(out, "Restore complete.") {
		t.Errorf("unexpected restore output:\n%s", out)
	}
	if _, err := db.Default().GetStation(41009); err != nil {
		t.Errorf("station missing after restore: %v", err)
	}
}

func TestBackupFileRoundTrip(t *testing.T) {
	data := &model.BackupData{
		Stations: []model.Station{{ID: 46042, Name: "Monterey", Region: "Pacific", IsActive: true}},
	}

	path := filepath.Join(t.TempDir(), "roundtrip.json.zst")
	if err := writeCompressedBackup(path, data); err != nil {
		t.Fatalf("writeCompressedBackup: %v", err)
	}

	got, err := readCompressedBackup(path)
	if err != nil {
		t.Fatalf("readCompressedBackup: %v", err)
	}
	if len(got.Stations) != 1 || got.Stations[0].Name != "Monterey" {
		t.Errorf("round trip lost data: %+v", got)
	}
}

func TestVersionCommand(t *testing.T) {
	setupTestDB(t)

	out := executeCommand(t, nil, "version")
	if !strings.Contains(out, "version:") || !strings.Contains(out, "commit:") {
		t.Errorf("unexpected version output:\n%s", out)
	}
}
