package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Station describes the radio station this client plays.
	Station StationConfig `koanf:"station"`
}

// StationConfig holds the stream sources and metadata endpoint.
type StationConfig struct {
	Name        string `koanf:"name"`         // display name
	ManifestURL string `koanf:"manifest_url"` // adaptive-stream manifest
	StreamURL   string `koanf:"stream_url"`   // plain MP3 stream fallback
	NowPlaying  string `koanf:"now_playing"`  // now-playing JSON endpoint
	PollSeconds int    `koanf:"poll_seconds"` // metadata poll cadence (default: 15)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize the endpoint URL (remove trailing slash)
	cfg.Station.NowPlaying = strings.TrimSuffix(cfg.Station.NowPlaying, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/aether/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "aether", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasNowPlaying returns true if a metadata endpoint is configured.
func (c *Config) HasNowPlaying() bool {
	return c.Station.NowPlaying != ""
}

// PollInterval returns the metadata poll cadence with the default applied.
func (c *Config) PollInterval() time.Duration {
	secs := c.Station.PollSeconds
	if secs <= 0 {
		secs = 15
	}
	return time.Duration(secs) * time.Second
}

// DisplayName returns the station name with a fallback for bare configs.
func (c *Config) DisplayName() string {
	if c.Station.Name != "" {
		return c.Station.Name
	}
	return "aether radio"
}
