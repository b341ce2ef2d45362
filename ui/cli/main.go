// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for Driftwatch using the
// Cobra library. It defines the root command, subcommands (like fetch,
// gallery, watch, publish), flags, and the main entry point for execution.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"syscall"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pelagios/driftwatch/buildvars"
	"github.com/pelagios/driftwatch/internal/config"
	"github.com/pelagios/driftwatch/internal/db"
	"github.com/pelagios/driftwatch/internal/fetch"
	"github.com/pelagios/driftwatch/internal/gallery"
	"github.com/pelagios/driftwatch/internal/i18n"
	"github.com/pelagios/driftwatch/internal/logging"
	"github.com/pelagios/driftwatch/internal/model"
	"github.com/pelagios/driftwatch/internal/setup"
	"github.com/pelagios/driftwatch/internal/tui"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)
var cfgFile string
var fullRestore bool   // Flag for the restore command
var stationTags string // Flag for 'stations add'
var copyURL bool       // Flag for 'stations show'
var verbose bool
var showVersionFlag bool

var appConfig config.Config

// configDefaults are the fallback values when neither the config file, the
// environment nor the flags provide one.
var configDefaults = map[string]any{
	"database.type": "sqlite",
	"database.dsn":  "./driftwatch.db",
	"output_dir":    "./buoycam",
	"base_url":      fetch.DefaultBaseURL,
	"interval":      "30m",
	"concurrency":   fetch.DefaultConcurrency,
	"language":      "en",
}

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	// Load optional config file argument from cli
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, configDefaults, optionalConfigPath)
	// A "file not found" error is expected on first run, so we handle it
	// specifically and write a default config for the user to inspect.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			log.Warnf("Warning: could not write default config file: %v", writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Post-process config to ensure critical values are not empty, falling
	// back to defaults. This handles config files with empty values.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = configDefaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = configDefaults["database.dsn"].(string)
	}
	if appConfig.OutputDir == "" {
		appConfig.OutputDir = configDefaults["output_dir"].(string)
	}
	if appConfig.BaseURL == "" {
		appConfig.BaseURL = configDefaults["base_url"].(string)
	}
	if appConfig.Language == "" {
		appConfig.Language = configDefaults["language"].(string)
	}

	// Initialize i18n
	i18n.Init(appConfig.Language)

	// Initialize the database if not already initialized by tests or
	// earlier setup.
	if !db.IsInitialized() {
		if _, err := db.New(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
	}

	return nil
}

// Execute runs the CLI entrypoint. The root main package should call this
// function and handle process exit.
func Execute() error {
	rootCmd := NewRootCmd()
	return rootCmd.Execute()
}

func applyDefaultFlags(cmd *cobra.Command) {
	// Avoid redefining flags if they already exist (NewRootCmd may be called
	// multiple times in tests which creates a new root but uses package-level
	// subcommands). pflag will panic on duplicate flag definitions, so check
	// first.
	if cmd.Flags().Lookup("database.type") == nil {
		cmd.Flags().String("database.type", "sqlite", "Database type (e.g., sqlite, postgres)")
	}
	if cmd.Flags().Lookup("database.dsn") == nil {
		cmd.Flags().String("database.dsn", "./driftwatch.db", "Database connection string (DSN)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}
		if path == "" {
			return nil, nil
		}
		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// frameDir is where per-station frames are written.
func frameDir() string {
	return filepath.Join(appConfig.OutputDir, "frames")
}

// galleryDir is where stitched galleries are written.
func galleryDir() string {
	return appConfig.OutputDir
}

// newFetcher builds a Fetcher from the loaded config, with all attempts
// recorded in the fetch log.
func newFetcher() *fetch.Fetcher {
	f := fetch.New(frameDir())
	if appConfig.BaseURL != "" {
		f.BaseURL = appConfig.BaseURL
	}
	if appConfig.Concurrency > 0 {
		f.Concurrency = appConfig.Concurrency
	}
	f.Recorder = db.Default()
	return f
}

// newBuilder builds a gallery Builder from the loaded config.
func newBuilder() *gallery.Builder {
	b := gallery.New(frameDir(), galleryDir(), db.Default())
	b.Recorder = db.Default()
	return b
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driftwatch",
		Short: "Driftwatch builds horizon-aligned galleries from NOAA BuoyCAM images.",
		Long: `Driftwatch fetches the camera images of NOAA NDBC buoy stations,
filters out blank frames, levels each camera panel against the horizon
and stitches the results into a single gallery image. The station
catalog, fetch history and published galleries live in a database.

Running without a subcommand will launch the interactive dashboard.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				fmt.Printf("%s\n", compositeVersion())
				os.Exit(0)
			}
			if verbose {
				logging.SetDebug(true)
				db.SetDebug(true)
			}
			return setupDefaultServices(cmd, args)
		},
		Run: func(cmd *cobra.Command, args []string) {
			// The database and i18n are already initialized by
			// PersistentPreRunE, so we can just run the dashboard.
			if err := tui.Run(tuiOptions()); err != nil {
				log.Fatalf("%v", err)
			}
		},
	}

	cmd.Version = compositeVersion()

	// Define flags
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (sets -v for DB logs)")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `Output language ("en", "de")`)
	applyDefaultFlags(cmd)

	// Add subcommand flags
	applyDefaultFlags(fetchCmd)
	applyDefaultFlags(galleryCmd)
	applyDefaultFlags(watchCmd)
	applyDefaultFlags(stationsCmd)
	applyDefaultFlags(publishCmd)
	applyDefaultFlags(trustHostCmd)
	applyDefaultFlags(exportCmd)
	applyDefaultFlags(restoreCmd)
	if restoreCmd.Flags().Lookup("full") == nil {
		restoreCmd.Flags().BoolVar(&fullRestore, "full", false, "Perform a full, destructive restore (wipes all existing data first)")
	}

	// Add subcommands to the newly created root command.
	cmd.AddCommand(
		setupCmd,
		fetchCmd,
		galleryCmd,
		watchCmd,
		stationsCmd,
		publishCmd,
		trustHostCmd,
		exportCmd,
		restoreCmd,
		newVersionCmd(),
	)

	return cmd
}

func tuiOptions() tui.Options {
	return tui.Options{
		FrameDir:    frameDir(),
		OutputDir:   galleryDir(),
		BaseURL:     appConfig.BaseURL,
		Concurrency: appConfig.Concurrency,
	}
}

// compositeVersion renders version, commit and build date in one line.
func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	var ok bool
	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
			ok = true
		}
	} else {
		ok = true
	}

	if ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// If Main doesn't contain the version (some build paths), try to
		// find our module in the dependencies and use that version.
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/pelagios/driftwatch" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}

		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort, if no version was discovered, but a gitCommit was
	// provided via ldflags, show that to aid support.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}

func newVersionCmd() *cobra.Command {
	// A lightweight `version` subcommand so users and CI can run
	// `driftwatch version`.
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			fmt.Printf("version: %s\n", v)
			fmt.Printf("commit: %s\n", c)
			if d != "" {
				fmt.Printf("built: %s\n", d)
			}
		},
	}
}

// setupCmd represents the 'setup' command.
// It provisions the Python virtual environment the legacy analysis scripts
// expect, without touching the database.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the legacy Python analysis environment",
	Long: `Creates a Python virtual environment named 'venv' in the current
directory, upgrades pip inside it and installs the imaging packages the
legacy analysis scripts depend on (requests, Pillow, numpy, opencv).`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(i18n.T("setup.starting"))
		if err := setup.New().Run(cmd.Context()); err != nil {
			// The failing tool's error is passed on as-is.
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// fetchCmd represents the 'fetch' command.
// It downloads the current BuoyCAM frame for one station, or for all active
// stations when no station ID is given.
var fetchCmd = &cobra.Command{
	Use:   "fetch [station-id]",
	Short: "Fetch BuoyCAM frames",
	Long: `Downloads the current camera image for every active station in the
catalog, or for a single station when its NDBC ID is given. Every
attempt is recorded in the fetch log.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		f := newFetcher()

		if len(args) > 0 {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				log.Fatalf("invalid station ID %q", args[0])
			}
			station, err := db.Default().GetStation(id)
			if err != nil {
				if errors.Is(err, db.ErrNotFound) {
					log.Fatalf("%s", i18n.T("stations.not_found", id))
				}
				log.Fatalf("%v", err)
			}

			frame, err := f.FetchStation(cmd.Context(), *station)
			if err != nil {
				log.Fatalf("%s", i18n.T("fetch.station_fail", station, err))
			}
			fmt.Println(i18n.T("fetch.station_ok", station, frame.Path))
			return
		}

		stations, err := db.Default().GetActiveStations()
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("fetch.start", len(stations)))

		results := f.FetchAll(cmd.Context(), stations)
		ok, failed := 0, 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Println(i18n.T("fetch.station_fail", r.Station, r.Err))
				continue
			}
			ok++
			fmt.Println(i18n.T("fetch.station_ok", r.Station, r.Frame.Path))
		}
		fmt.Println(i18n.T("fetch.summary", ok, failed))
	},
}

// galleryCmd represents the 'gallery' command.
// It stitches the frames on disk into a new gallery image.
var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Build a gallery from the fetched frames",
	Long: `Loads the latest frame of every active station, drops blank or missing
frames, levels each camera panel against the horizon and writes the
stitched result as a new timestamped gallery image.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(i18n.T("gallery.start"))
		res, err := newBuilder().Build(cmd.Context())
		if err != nil {
			if errors.Is(err, gallery.ErrNoFrames) {
				fmt.Println(i18n.T("gallery.none"))
				return
			}
			log.Fatalf("%v", err)
		}
		for _, s := range res.Skipped {
			fmt.Println(i18n.T("gallery.skip_blank", s))
		}
		fmt.Println(i18n.T("gallery.created", res.Path))
	},
}

// watchCmd represents the 'watch' command.
// It runs the fetch-then-build cycle forever at the configured interval.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously fetch frames and rebuild the gallery",
	Long: `Runs one fetch-and-gallery cycle immediately and then repeats it at the
configured interval until interrupted. Failing cycles are logged and the
loop keeps going.`,
	PreRunE: setupDefaultServices,
	Run: func(cmd *cobra.Command, args []string) {
		stations, err := db.Default().GetActiveStations()
		if err != nil {
			log.Fatalf("%v", err)
		}

		interval := appConfig.Interval
		if interval <= 0 {
			interval = gallery.DefaultInterval
		}
		fmt.Println(i18n.T("watch.start", len(stations), interval))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := gallery.NewWatcher(newFetcher(), newBuilder(), interval)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("%v", err)
		}
		fmt.Println(i18n.T("watch.stopping"))
	},
}

// stationStatusLine formats one line of `driftwatch stations` output.
func stationStatusLine(s model.Station, last *model.FetchRecord) string {
	marker := "+"
	if !s.IsActive {
		marker = "-"
	}
	line := fmt.Sprintf("[%s] %-26s %s", marker, s.String(), s.Region)
	if last != nil {
		outcome := "ok"
		if !last.OK {
			outcome = "failed"
		}
		line += fmt.Sprintf("  last fetch: %s (%s)", last.FetchedAt.Format("2006-01-02 15:04"), outcome)
	}
	return line
}
