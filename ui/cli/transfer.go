// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// transfer.go contains the 'export' and 'restore' commands for moving the
// database between installations or backends via zstd-compressed JSON
// backups.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/pelagios/driftwatch/internal/db"
	"github.com/pelagios/driftwatch/internal/i18n"
	"github.com/pelagios/driftwatch/internal/model"
)

// exportCmd represents the 'export' command.
// It dumps the station catalog, fetch log and gallery history into a single
// compressed JSON file.
var exportCmd = &cobra.Command{
	Use:   "export [output-file]",
	Short: "Create a compressed (zstd) JSON backup of the database",
	Long: `Dumps the entire contents of the Driftwatch database (stations, fetch
log, gallery history) into a single, Zstandard-compressed JSON file.

If an output file is specified, '.zst' will be appended to the name if it's
not already present. If no output file is specified, a default filename
'driftwatch-backup-YYYY-MM-DD.json.zst' is used.

This file can be used for disaster recovery or for migrating to a
different database backend.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		var outputFile string
		if len(args) == 0 {
			outputFile = fmt.Sprintf("driftwatch-backup-%s.json.zst", time.Now().Format("2006-01-02"))
		} else {
			outputFile = args[0]
			if !strings.HasSuffix(outputFile, ".zst") {
				outputFile += ".zst"
			}
		}

		fmt.Println(i18n.T("export.starting"))
		data, err := db.Default().ExportBackup()
		if err != nil {
			log.Fatalf("%s", i18n.T("export.error", err))
		}
		if err := writeCompressedBackup(outputFile, data); err != nil {
			log.Fatalf("%s", i18n.T("export.error", err))
		}
		fmt.Println(i18n.T("export.success", outputFile))
	},
}

// restoreCmd represents the 'restore' command.
// It restores the database from a compressed JSON backup file.
var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file.zst>",
	Short: "Restore the database from a compressed JSON backup",
	Long: `Restores the Driftwatch database from a Zstandard-compressed JSON
backup file. By default, this command performs a non-destructive
"integration" restore, only adding data that does not already exist.

To perform a full, destructive restore that WIPES all existing data before
importing, use the --full flag.
WARNING: The --full flag is destructive and not reversible.

Example (Integrate):
  driftwatch restore ./driftwatch-backup-2026-08-28.json.zst

Example (Full Restore):
  driftwatch restore --full ./driftwatch-backup-2026-08-28.json.zst`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		inputFile := args[0]
		fmt.Println(i18n.T("restore.starting", inputFile))

		data, err := readCompressedBackup(inputFile)
		if err != nil {
			log.Fatalf("%s", i18n.T("restore.error", err))
		}
		if err := db.Default().ImportBackup(data, fullRestore); err != nil {
			log.Fatalf("%s", i18n.T("restore.error", err))
		}
		fmt.Println(i18n.T("restore.success"))
	},
}

// writeCompressedBackup handles the process of writing the backup data to a
// zstd-compressed file. It streams the JSON encoding directly to the zstd
// writer for memory efficiency.
func writeCompressedBackup(filename string, data *model.BackupData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdWriter, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	defer func() { _ = zstdWriter.Close() }()

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ") // Pretty-print the JSON inside the compressed file

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}

	return zstdWriter.Close()
}

// readCompressedBackup handles reading and decoding a zstd-compressed JSON
// backup file.
func readCompressedBackup(filename string) (*model.BackupData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var backupData model.BackupData
	if err := json.NewDecoder(zstdReader).Decode(&backupData); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}

	return &backupData, nil
}
