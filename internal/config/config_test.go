// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func testDefaults() map[string]any {
	return map[string]any{
		"database.type": "sqlite",
		"database.dsn":  "./driftwatch.db",
		"output_dir":    "./buoy_images",
		"interval":      time.Hour,
		"concurrency":   4,
		"language":      "en",
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}

	c, err := LoadConfig[Config](cmd, testDefaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", c.Database.Type)
	}
	if c.OutputDir != "./buoy_images" {
		t.Errorf("OutputDir = %q, want ./buoy_images", c.OutputDir)
	}
	if c.Interval != time.Hour {
		t.Errorf("Interval = %v, want 1h", c.Interval)
	}
}

func TestLoadConfigExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := "output_dir: /tmp/frames\nconcurrency: 2\npublish:\n  host: gallery.example.com\n  user: www\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{Use: "test"}
	c, err := LoadConfig[Config](cmd, testDefaults(), &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.OutputDir != "/tmp/frames" {
		t.Errorf("OutputDir = %q, want /tmp/frames", c.OutputDir)
	}
	if c.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", c.Concurrency)
	}
	if c.Publish.Host != "gallery.example.com" || c.Publish.User != "www" {
		t.Errorf("Publish = %+v", c.Publish)
	}
}

func TestLoadConfigFlagOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("language: de\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("language", "en", "")
	if err := cmd.Flags().Set("language", "en"); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig[Config](cmd, testDefaults(), &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Language != "en" {
		t.Errorf("Language = %q, want flag value en", c.Language)
	}
}
