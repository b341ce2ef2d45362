// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// stations.go contains the 'stations' command group for managing the NDBC
// station catalog: listing, adding, enabling and disabling stations, and
// showing a single station's details.

package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/atotto/clipboard"
	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pelagios/driftwatch/internal/db"
	"github.com/pelagios/driftwatch/internal/i18n"
	"github.com/pelagios/driftwatch/internal/model"
)

func init() {
	stationsAddCmd.Flags().StringVar(&stationTags, "tags", "", "Comma-separated tags for the new station")
	stationsShowCmd.Flags().BoolVar(&copyURL, "copy", false, "Copy the camera URL to the clipboard")

	stationsCmd.AddCommand(
		stationsAddCmd,
		stationsEnableCmd,
		stationsDisableCmd,
		stationsShowCmd,
	)
}

// parseStationID converts a CLI argument into an NDBC station number.
func parseStationID(arg string) int {
	id, err := strconv.Atoi(arg)
	if err != nil {
		log.Fatalf("invalid station ID %q", arg)
	}
	return id
}

// mustGetStation looks up a station or exits with a localized message.
func mustGetStation(id int) *model.Station {
	station, err := db.Default().GetStation(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			log.Fatalf("%s", i18n.T("stations.not_found", id))
		}
		log.Fatalf("%v", err)
	}
	return station
}

// stationsCmd represents the 'stations' command.
// Without a subcommand it lists the whole catalog with each station's
// status and last fetch outcome.
var stationsCmd = &cobra.Command{
	Use:     "stations",
	Short:   "Manage the BuoyCAM station catalog",
	Long:    `Lists all stations in the catalog. Active stations are fetched by 'fetch' and 'watch'; disabled ones are kept but skipped.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		stations, err := db.Default().GetAllStations()
		if err != nil {
			log.Fatalf("%v", err)
		}
		if len(stations) == 0 {
			fmt.Println(i18n.T("stations.none"))
			return
		}
		for _, s := range stations {
			last, err := db.Default().GetLastFetch(s.ID)
			if err != nil && !errors.Is(err, db.ErrNotFound) {
				log.Fatalf("%v", err)
			}
			fmt.Println(stationStatusLine(s, last))
		}
	},
}

// stationsAddCmd represents the 'stations add' command.
var stationsAddCmd = &cobra.Command{
	Use:     "add <station-id> <name> [region]",
	Short:   "Add a station to the catalog",
	Args:    cobra.RangeArgs(2, 3),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		id := parseStationID(args[0])
		name := args[1]
		region := ""
		if len(args) > 2 {
			region = args[2]
		}

		if err := db.Default().AddStation(id, name, region, stationTags); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				log.Fatalf("station %d already exists", id)
			}
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("stations.added", model.Station{ID: id, Name: name}))
	},
}

// stationsEnableCmd represents the 'stations enable' command.
var stationsEnableCmd = &cobra.Command{
	Use:     "enable <station-id>",
	Short:   "Enable a station for fetching",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		station := mustGetStation(parseStationID(args[0]))
		if !station.IsActive {
			if err := db.Default().ToggleStationStatus(station.ID); err != nil {
				log.Fatalf("%v", err)
			}
		}
		fmt.Println(i18n.T("stations.enabled", station))
	},
}

// stationsDisableCmd represents the 'stations disable' command.
var stationsDisableCmd = &cobra.Command{
	Use:     "disable <station-id>",
	Short:   "Disable a station without removing it",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		station := mustGetStation(parseStationID(args[0]))
		if station.IsActive {
			if err := db.Default().ToggleStationStatus(station.ID); err != nil {
				log.Fatalf("%v", err)
			}
		}
		fmt.Println(i18n.T("stations.disabled", station))
	},
}

// stationsShowCmd represents the 'stations show' command.
// It prints one station's details including its camera URL; --copy places
// the URL on the clipboard for pasting into a browser.
var stationsShowCmd = &cobra.Command{
	Use:     "show <station-id>",
	Short:   "Show a station's details and camera URL",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		station := mustGetStation(parseStationID(args[0]))

		status := "active"
		if !station.IsActive {
			status = "disabled"
		}
		url := station.CameraURL(appConfig.BaseURL)

		fmt.Printf("Station:  %s\n", station)
		fmt.Printf("Region:   %s\n", station.Region)
		fmt.Printf("Status:   %s\n", status)
		if station.Tags != "" {
			fmt.Printf("Tags:     %s\n", station.Tags)
		}
		fmt.Printf("Camera:   %s\n", url)

		last, err := db.Default().GetLastFetch(station.ID)
		if err == nil && last != nil {
			outcome := "ok"
			if !last.OK {
				outcome = "failed: " + last.Detail
			}
			fmt.Printf("Fetched:  %s (%s)\n", last.FetchedAt.Format("2006-01-02 15:04:05"), outcome)
		}

		if copyURL {
			if err := clipboard.WriteAll(url); err != nil {
				log.Fatalf("could not copy to clipboard: %v", err)
			}
			fmt.Println(i18n.T("stations.copied"))
		}
	},
}
