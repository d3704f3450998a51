package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
viewport:
  width: 1024
  height: 768
render:
  edge_max_points: 250
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Viewport.Width != 1024 || cfg.Viewport.Height != 768 {
		t.Errorf("unexpected viewport: %+v", cfg.Viewport)
	}
	if cfg.Render.EdgeMaxPoints != 250 {
		t.Errorf("edge_max_points: got %d, want 250", cfg.Render.EdgeMaxPoints)
	}
	if cfg.Render.EdgeZoomThreshold != 0.7 {
		t.Errorf("edge_zoom_threshold default: got %v, want 0.7", cfg.Render.EdgeZoomThreshold)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
debug = true

[camera]
zoom_min = 0.25
zoom_max = 8.0

[similarity]
high_threshold = 0.7
mid_threshold = 0.4
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.Camera.ZoomMin != 0.25 || cfg.Camera.ZoomMax != 8 {
		t.Errorf("unexpected camera config: %+v", cfg.Camera)
	}
	if cfg.Similarity.HighThreshold != 0.7 || cfg.Similarity.MidThreshold != 0.4 {
		t.Errorf("unexpected similarity config: %+v", cfg.Similarity)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
dataset:
  path: "./data/projection.json"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "data", "projection.json")
	if cfg.Dataset.Path != want {
		t.Errorf("dataset path: got %q, want %q", cfg.Dataset.Path, want)
	}
	if !cfg.Dataset.WatchOrDefault() {
		t.Error("watch should default to true when a dataset is configured")
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zoom limits inverted", "camera:\n  zoom_min: 5\n  zoom_max: 2\n"},
		{"thresholds inverted", "similarity:\n  high_threshold: 0.2\n  mid_threshold: 0.5\n"},
		{"negative viewport", "viewport:\n  width: -10\n"},
		{"negative hit threshold", "interaction:\n  hit_threshold: -5\n"},
		{"infinite hit threshold", "interaction:\n  hit_threshold: .inf\n"},
		{"malformed yaml", "viewport: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Camera.ZoomMin != 0.5 || cfg.Camera.ZoomMax != 10 {
		t.Errorf("zoom limits: got [%v, %v]", cfg.Camera.ZoomMin, cfg.Camera.ZoomMax)
	}
	if cfg.Interaction.AutoCenterTopK != 5 {
		t.Errorf("auto_center_top_k: got %d, want 5", cfg.Interaction.AutoCenterTopK)
	}
	if cfg.Dataset.Watch != nil {
		t.Error("watch should stay unset without a dataset path")
	}
	if cfg.Search.CacheSize != 256 {
		t.Errorf("cache_size: got %d, want 256", cfg.Search.CacheSize)
	}
}

func TestApplyDefaults_negativeDisablesSearchExtras(t *testing.T) {
	cfg := Config{Search: SearchConfig{CacheSize: -1, Fuzziness: -1}}
	ApplyDefaults(&cfg)
	if cfg.Search.CacheSize != -1 {
		t.Errorf("cache_size: got %d, want -1 kept", cfg.Search.CacheSize)
	}
	if cfg.Search.Fuzziness != -1 {
		t.Errorf("fuzziness: got %d, want -1 kept", cfg.Search.Fuzziness)
	}
}

func TestSave_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Viewport.Width = 1280
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Viewport.Width != 1280 {
		t.Errorf("width after save/load: got %d", loaded.Viewport.Width)
	}
}
