// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// package config loads and persists the Driftwatch configuration file. Viper
// merges defaults, the YAML config file, environment variables and CLI flags
// in ascending order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Database  DatabaseConfig `mapstructure:"database" yaml:"database"`
	OutputDir string         `mapstructure:"output_dir" yaml:"output_dir"`
	BaseURL   string         `mapstructure:"base_url" yaml:"base_url"`
	Interval  time.Duration  `mapstructure:"interval" yaml:"interval"`
	// Concurrency bounds the number of stations fetched in parallel.
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	Language    string        `mapstructure:"language" yaml:"language"`
	Publish     PublishConfig `mapstructure:"publish" yaml:"publish"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

// PublishConfig describes the remote host galleries are published to.
type PublishConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	User        string `mapstructure:"user" yaml:"user"`
	RemoteDir   string `mapstructure:"remote_dir" yaml:"remote_dir"`
	KeyFile     string `mapstructure:"key_file" yaml:"key_file"`
	KeepHistory bool   `mapstructure:"keep_history" yaml:"keep_history"`
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Driftwatch")
		default: // Linux, macOS, etc.
			configDir = "/etc/driftwatch"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "driftwatch")
	}

	return filepath.Join(configDir, "driftwatch.yaml"), nil
}

// LoadConfig assembles a Config from defaults, the config file, environment
// variables (DRIFTWATCH_ prefix) and the command's flags.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. File search setup
	v.SetConfigName("driftwatch")
	v.SetConfigType("yaml")

	// An explicit --config path has the highest precedence for file config.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	// 3. Standard config locations
	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	// 4. Read the primary config file. Not finding one is fine.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// 5. Environment variables
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("driftwatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 6. CLI flags
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile persists the configuration as YAML. Used to write the
// default config on first run so users have a file to inspect and edit.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}

	return nil
}
