// Package config provides file-based configuration for coursedash.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the coursedash configuration, loaded from a TOML file.
// Every field has a working default; a missing config file is not an error.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Watch    WatchConfig    `toml:"watch"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PipelineConfig holds the reconciliation defaults. The fallback years are
// placeholders applied to rows with no resolvable reporting date; they are
// configurable precisely because the stock values are arbitrary.
type PipelineConfig struct {
	LegacyFallbackYear int `toml:"legacy_fallback_year"`
	ModernFallbackYear int `toml:"modern_fallback_year"`
	// InProgressYear of 0 means the current calendar year.
	InProgressYear int `toml:"in_progress_year"`
}

// InProgressYearOrNow resolves the synthesized-instance year.
func (p PipelineConfig) InProgressYearOrNow() int {
	if p.InProgressYear != 0 {
		return p.InProgressYear
	}
	return time.Now().Year()
}

// WatchConfig holds watch-mode settings: the file names looked for inside
// the watched directory, and the event debounce.
type WatchConfig struct {
	LegacyFile    string `toml:"legacy_file"`
	ModernFile    string `toml:"modern_file"`
	TimeSpentFile string `toml:"timespent_file"`
	Debounce      string `toml:"debounce"`
}

// DebounceDuration returns the parsed debounce duration (default: 2s).
func (w WatchConfig) DebounceDuration() time.Duration {
	if w.Debounce != "" {
		if d, err := time.ParseDuration(w.Debounce); err == nil {
			return d
		}
	}
	return 2 * time.Second
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "localhost", Port: 7480},
		Pipeline: PipelineConfig{
			LegacyFallbackYear: 2024,
			ModernFallbackYear: 2026,
		},
		Watch: WatchConfig{
			LegacyFile:    "legacy.xlsx",
			ModernFile:    "modern.xlsx",
			TimeSpentFile: "timespent.xlsx",
		},
	}
}

// Load reads configuration from path. A missing file yields defaults;
// present keys override defaults, absent keys keep them.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
