package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/dataset"
	"github.com/hyperjump/starmap/internal/models"
	"github.com/hyperjump/starmap/internal/viewer"
)

func NewViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the desktop viewer",
		Long: `Open a window with the star map. Scroll to zoom, drag to pan, hover for labels and
click to select a point. Escape clears the search highlight.`,
		Args: cobra.NoArgs,
		RunE: runView,
	}
	cmd.Flags().String("dataset", "", "dataset file (.json, .db, .xlsx)")
	cmd.Flags().String("similarities", "", "JSON file of id -> score to highlight")
	cmd.Flags().StringP("query", "q", "", "highlight points whose labels match the query")
	return cmd
}

func runView(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	flagPath, _ := cmd.Flags().GetString("dataset")
	path, err := datasetPath(cfg, flagPath)
	if err != nil {
		return err
	}
	src, ds, err := loadDataset(cmd.Context(), path)
	if err != nil {
		return err
	}
	simFile, _ := cmd.Flags().GetString("similarities")
	query, _ := cmd.Flags().GetString("query")
	sims, err := resolveSimilarities(cmd.Context(), cfg, ds, simFile, query, logger)
	if err != nil {
		return err
	}

	v := newView(cfg, float64(cfg.Viewport.Width), float64(cfg.Viewport.Height), logger)
	v.scene.SetDataset(ds)
	game := viewer.NewGame(v.scene, v.renderer, v.ctrl, logger)
	if sims.Active() {
		game.SetSimilarities(sims)
	}

	if cfg.Dataset.WatchOrDefault() {
		w := dataset.NewWatcher(src, func(next *models.Dataset) { game.SetDataset(next) }, dataset.WithLogger(logger))
		if err := w.Start(cmd.Context()); err != nil {
			logger.Warn("dataset watch disabled", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	return viewer.Run(game, "starmap - "+src.Path())
}
