package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"


	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/internal/dataset"
)

const testDataset = `{
  "points": [
    {"id": "a", "x": 0.1, "y": 0.1, "label": "neural networks"},
    {"id": "b", "x": 0.5, "y": 0.5, "label": "graph theory"},
    {"id": "c", "x": 0.9, "y": 0.9, "label": "neural search"}
  ],
  "clusters": [
    {"label": "ml", "x": 0.3, "y": 0.3, "point_ids": ["a", "c"]}
  ]
}`

// writeFixtures writes a config and a dataset into a temp dir and returns their paths.
func writeFixtures(t *testing.T) (cfgPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	dataPath = filepath.Join(dir, "points.json")
	if err := os.WriteFile(cfgPath, []byte("log_level: error\nviewport:\n  width: 200\n  height: 100\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dataPath, []byte(testDataset), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, dataPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_subcommands(t *testing.T) {
	root := NewRootCmd("test")
	want := []string{"serve", "view", "render", "convert", "version"}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			found, _, err := root.Find([]string{name})
			if err != nil || found == root {
				t.Fatalf("subcommand %q not registered", name)
			}
		})
	}
	for _, flag := range []string{"config", "debug"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestRenderCmd_flags(t *testing.T) {
	cmd := NewRenderCmd()
	for _, flag := range []string{"dataset", "out", "width", "height", "zoom", "similarities", "query"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("render is missing --%s", flag)
		}
	}
	if got := cmd.Flags().Lookup("out").DefValue; got != "starmap.png" {
		t.Errorf("default --out = %q", got)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		cfgPath, _ := writeFixtures(t)
		cfg, resolved, err := loadConfig(cfgPath)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if resolved != cfgPath {
			t.Errorf("resolved = %q, want %q", resolved, cfgPath)
		}
		if cfg.Viewport.Width != 200 || cfg.Viewport.Height != 100 {
			t.Errorf("viewport = %dx%d", cfg.Viewport.Width, cfg.Viewport.Height)
		}
	})

	t.Run("missing explicit path fails", func(t *testing.T) {
		if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("default path falls back to cwd config", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9911\n"), 0644); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)
		cfg, resolved, err := loadConfig(defaultConfigPath)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.Server.Port != 9911 {
			t.Errorf("port = %d, want 9911", cfg.Server.Port)
		}
		if filepath.Base(resolved) != "config.yaml" {
			t.Errorf("resolved = %q", resolved)
		}
	})

	t.Run("default path without files uses defaults", func(t *testing.T) {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			t.Skip("a system config exists")
		}
		t.Chdir(t.TempDir())
		cfg, resolved, err := loadConfig(defaultConfigPath)
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if resolved != "" {
			t.Errorf("resolved = %q, want empty", resolved)
		}
		if cfg.Server.Port != config.Default().Server.Port {
			t.Errorf("port = %d", cfg.Server.Port)
		}
	})
}

func TestRenderCmd_writesPNG(t *testing.T) {
	cfgPath, dataPath := writeFixtures(t)
	out := filepath.Join(t.TempDir(), "frames", "map.png")

	stdout, err := execute(t, "render", "--config", cfgPath, "--dataset", dataPath, "--out", out, "--query", "neural")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("image size = %dx%d, want 200x100 from config", b.Dx(), b.Dy())
	}
	for _, want := range []string{"rendered", "3 drawn", "matches"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRenderCmd_similaritiesFileAndSize(t *testing.T) {
	cfgPath, dataPath := writeFixtures(t)
	dir := t.TempDir()
	simPath := filepath.Join(dir, "sims.json")
	data, _ := json.Marshal(map[string]float64{"b": 0.9})
	if err := os.WriteFile(simPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "map.png")

	stdout, err := execute(t, "render", "--config", cfgPath, "--dataset", dataPath, "--out", out,
		"--similarities", simPath, "--width", "64", "--height", "48")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "64x48") {
		t.Errorf("output missing size:\n%s", stdout)
	}
}

func TestRenderCmd_jsonSummary(t *testing.T) {
	cfgPath, dataPath := writeFixtures(t)
	out := filepath.Join(t.TempDir(), "map.png")

	stdout, err := execute(t, "render", "--config", cfgPath, "--dataset", dataPath, "--out", out, "--format", "json", "--zoom", "2")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, stdout)
	}
	var summary struct {
		Output string  `json:"output"`
		Zoom   float64 `json:"zoom"`
		Stats  struct {
			Points int `json:"points"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, stdout)
	}
	if summary.Output != out || summary.Zoom != 2 || summary.Stats.Points != 3 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRenderCmd_errors(t *testing.T) {
	cfgPath, dataPath := writeFixtures(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no dataset", []string{"render", "--config", cfgPath}},
		{"unsupported format", []string{"render", "--config", cfgPath, "--dataset", filepath.Join(t.TempDir(), "x.csv")}},
		{"bad format", []string{"render", "--config", cfgPath, "--dataset", dataPath, "--format", "xml"}},
		{"bad similarities", []string{"render", "--config", cfgPath, "--dataset", dataPath, "--similarities", filepath.Join(t.TempDir(), "none.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConvertCmd_roundTrip(t *testing.T) {
	cfgPath, dataPath := writeFixtures(t)
	dbPath := filepath.Join(t.TempDir(), "points.db")

	stdout, err := execute(t, "convert", "--config", cfgPath, dataPath, dbPath)
	if err != nil {
		t.Fatalf("convert: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "3 points, 1 clusters") {
		t.Errorf("unexpected output:\n%s", stdout)
	}

	ds, err := dataset.NewSQLiteSource(dbPath).Load(context.Background())
	if err != nil {
		t.Fatalf("load converted: %v", err)
	}
	if len(ds.Points) != 3 || ds.Points[2].Label != "neural search" {
		t.Errorf("points = %+v", ds.Points)
	}
	if len(ds.Clusters) != 1 || len(ds.Clusters[0].PointIDs) != 2 {
		t.Errorf("clusters = %+v", ds.Clusters)
	}
}

func TestVersionCmd(t *testing.T) {
	stdout, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "starmap test") {
		t.Errorf("version output = %q", stdout)
	}
}
