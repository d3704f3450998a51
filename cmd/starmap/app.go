package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/camera"
	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/internal/dataset"
	"github.com/hyperjump/starmap/internal/interaction"
	"github.com/hyperjump/starmap/internal/lookup"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/internal/render"
	"github.com/hyperjump/starmap/internal/similarity"
)

// view bundles one scene with the renderer and controller that work on it.
type view struct {
	scene    *render.Scene
	renderer *render.Renderer
	ctrl     *interaction.Controller
}

func newView(cfg *config.Config, width, height float64, logger *zap.Logger) *view {
	cam := camera.New(
		camera.Viewport{Width: width, Height: height, Margin: cfg.Viewport.Margin},
		camera.Limits{ZoomMin: cfg.Camera.ZoomMin, ZoomMax: cfg.Camera.ZoomMax},
	)
	scene := render.NewScene(cam, cfg.Interaction.CellSize)
	return &view{
		scene:    scene,
		renderer: render.NewRenderer(render.OptionsFromConfig(&cfg.Render), similarity.NewEncoder(&cfg.Similarity), logger),
		ctrl:     interaction.New(scene, interaction.OptionsFromConfig(cfg), logger),
	}
}

// datasetPath picks the flag value over the configured path.
func datasetPath(cfg *config.Config, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Dataset.Path != "" {
		return cfg.Dataset.Path, nil
	}
	return "", fmt.Errorf("no dataset: pass --dataset or set dataset.path in the config")
}

func loadDataset(ctx context.Context, path string) (dataset.Source, *models.Dataset, error) {
	src, err := dataset.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return src, ds, nil
}

// readSimilarities reads a JSON object of id -> score.
func readSimilarities(path string) (models.SimilarityMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read similarities: %w", err)
	}
	var m models.SimilarityMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse similarities: %w", err)
	}
	return m, nil
}

// resolveSimilarities returns the similarity map from a file, or from a label query over ds,
// or nil when neither is given.
func resolveSimilarities(ctx context.Context, cfg *config.Config, ds *models.Dataset, file, query string, logger *zap.Logger) (models.SimilarityMap, error) {
	if file != "" {
		return readSimilarities(file)
	}
	if query == "" {
		return nil, nil
	}
	idx, err := lookup.NewIndex(&cfg.Search, lookup.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer idx.Close()
	if err := idx.Rebuild(ctx, ds); err != nil {
		return nil, err
	}
	return idx.Search(ctx, query, 0)
}
