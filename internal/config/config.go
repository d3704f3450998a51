// Package config provides configuration loading and structs for the starmap viewer.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug" toml:"debug"`
	LogLevel    string            `yaml:"log_level" toml:"log_level"`
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Viewport    ViewportConfig    `yaml:"viewport" toml:"viewport"`
	Camera      CameraConfig      `yaml:"camera" toml:"camera"`
	Render      RenderConfig      `yaml:"render" toml:"render"`
	Similarity  SimilarityConfig  `yaml:"similarity" toml:"similarity"`
	Interaction InteractionConfig `yaml:"interaction" toml:"interaction"`
	Dataset     DatasetConfig     `yaml:"dataset" toml:"dataset"`
	Search      SearchConfig      `yaml:"search" toml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host" toml:"host"`
	Port        int    `yaml:"port" toml:"port"`
	MaxSessions int    `yaml:"max_sessions" toml:"max_sessions"`
}

// ViewportConfig is the initial drawing surface. Margin pads the world rectangle on every side.
type ViewportConfig struct {
	Width  int     `yaml:"width" toml:"width"`
	Height int     `yaml:"height" toml:"height"`
	Margin float64 `yaml:"margin" toml:"margin"`
}

// CameraConfig holds zoom limits and wheel step factors.
type CameraConfig struct {
	ZoomMin     float64 `yaml:"zoom_min" toml:"zoom_min"`
	ZoomMax     float64 `yaml:"zoom_max" toml:"zoom_max"`
	ZoomInStep  float64 `yaml:"zoom_in_step" toml:"zoom_in_step"`
	ZoomOutStep float64 `yaml:"zoom_out_step" toml:"zoom_out_step"`
}

// RenderConfig holds frame scheduling and the connection-edge heuristics.
type RenderConfig struct {
	FPS               int     `yaml:"fps" toml:"fps"`
	EdgeZoomThreshold float64 `yaml:"edge_zoom_threshold" toml:"edge_zoom_threshold"`
	EdgeMaxPoints     int     `yaml:"edge_max_points" toml:"edge_max_points"`
	Neighbors         int     `yaml:"neighbors" toml:"neighbors"`
	LabelMaxLen       int     `yaml:"label_max_len" toml:"label_max_len"`
	StarCount         int     `yaml:"star_count" toml:"star_count"`
	StarSeed          int64   `yaml:"star_seed" toml:"star_seed"`
}

// SimilarityConfig holds the search-highlight thresholds and point styling.
type SimilarityConfig struct {
	HighThreshold    float64 `yaml:"high_threshold" toml:"high_threshold"`
	MidThreshold     float64 `yaml:"mid_threshold" toml:"mid_threshold"`
	BaseRadius       float64 `yaml:"base_radius" toml:"base_radius"`
	MatchRadiusScale float64 `yaml:"match_radius_scale" toml:"match_radius_scale"`
	HoverRadiusScale float64 `yaml:"hover_radius_scale" toml:"hover_radius_scale"`
	BaseOpacity      float64 `yaml:"base_opacity" toml:"base_opacity"`
	GhostOpacity     float64 `yaml:"ghost_opacity" toml:"ghost_opacity"`
}

// InteractionConfig holds hit-testing and gesture settings.
type InteractionConfig struct {
	HitThreshold   float64 `yaml:"hit_threshold" toml:"hit_threshold"`
	CellSize       float64 `yaml:"cell_size" toml:"cell_size"`
	DragSlop       float64 `yaml:"drag_slop" toml:"drag_slop"`
	AutoCenterTopK int     `yaml:"auto_center_top_k" toml:"auto_center_top_k"`
}

// DatasetConfig points at the projection output to load at startup.
type DatasetConfig struct {
	Path  string `yaml:"path" toml:"path"`
	Watch *bool  `yaml:"watch" toml:"watch"`
}

// WatchOrDefault returns whether to reload the dataset on change; defaults to true when unset.
func (d *DatasetConfig) WatchOrDefault() bool {
	if d.Watch != nil {
		return *d.Watch
	}
	return true
}

// SearchConfig holds settings for the local label search.
type SearchConfig struct {
	Limit     int `yaml:"limit" toml:"limit"`
	// CacheSize is the number of cached query results; 0 means the default, negative disables the cache.
	CacheSize int `yaml:"cache_size" toml:"cache_size"`
	// Fuzziness is the edit distance used when an exact match finds nothing; negative disables the retry.
	Fuzziness int `yaml:"fuzziness" toml:"fuzziness"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.Dataset.Path != "" {
		cfg.Dataset.Path = expandPath(cfg.Dataset.Path, filepath.Dir(path))
	}

	return &cfg, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Validate rejects settings that cannot work together.
func Validate(cfg *Config) error {
	if cfg.Camera.ZoomMin > cfg.Camera.ZoomMax {
		return fmt.Errorf("camera.zoom_min (%v) exceeds camera.zoom_max (%v)", cfg.Camera.ZoomMin, cfg.Camera.ZoomMax)
	}
	if cfg.Similarity.MidThreshold >= cfg.Similarity.HighThreshold {
		return fmt.Errorf("similarity.mid_threshold (%v) must be below similarity.high_threshold (%v)",
			cfg.Similarity.MidThreshold, cfg.Similarity.HighThreshold)
	}
	if h := cfg.Interaction.HitThreshold; h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return fmt.Errorf("interaction.hit_threshold must be a non-negative number, got %v", h)
	}
	if cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must have positive size, got %dx%d", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	return nil
}

// Save writes the config to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
