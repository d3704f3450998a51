package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperjump/starmap/internal/canvas"
	"github.com/hyperjump/starmap/internal/cli"
)

func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one frame to a PNG file",
		Long:  `Render a single headless frame of the dataset, optionally highlighting a similarity map or a label query.`,
		Example: `  starmap render --dataset projection.json --out map.png
  starmap render --dataset projection.db --query "neural" --zoom 2`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}
	cmd.Flags().String("dataset", "", "dataset file (.json, .db, .xlsx)")
	cmd.Flags().StringP("out", "o", "starmap.png", "output PNG path")
	cmd.Flags().Int("width", 0, "frame width (defaults to the configured viewport)")
	cmd.Flags().Int("height", 0, "frame height (defaults to the configured viewport)")
	cmd.Flags().Float64("zoom", 1, "camera zoom")
	cmd.Flags().String("similarities", "", "JSON file of id -> score to highlight")
	cmd.Flags().StringP("query", "q", "", "highlight points whose labels match the query")
	cmd.Flags().String("format", "text", "summary format: text or json")
	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := cli.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	flagPath, _ := cmd.Flags().GetString("dataset")
	path, err := datasetPath(cfg, flagPath)
	if err != nil {
		return err
	}
	_, ds, err := loadDataset(cmd.Context(), path)
	if err != nil {
		return err
	}

	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	if width <= 0 {
		width = cfg.Viewport.Width
	}
	if height <= 0 {
		height = cfg.Viewport.Height
	}

	simFile, _ := cmd.Flags().GetString("similarities")
	query, _ := cmd.Flags().GetString("query")
	sims, err := resolveSimilarities(cmd.Context(), cfg, ds, simFile, query, logger)
	if err != nil {
		return err
	}

	v := newView(cfg, float64(width), float64(height), logger)
	v.scene.SetDataset(ds)
	if sims.Active() {
		v.ctrl.SetSimilarities(sims)
	}
	if zoom, _ := cmd.Flags().GetFloat64("zoom"); zoom > 0 {
		v.scene.Camera().SetZoom(zoom)
	}

	raster := canvas.NewRaster(width, height)
	stats := v.renderer.Frame(v.scene, raster)

	out, _ := cmd.Flags().GetString("out")
	if err := writePNG(out, raster); err != nil {
		return err
	}

	return cli.WriteRenderSummary(cmd.OutOrStdout(), &cli.RenderSummary{
		Output:    out,
		Dataset:   path,
		Width:     width,
		Height:    height,
		Zoom:      v.scene.Camera().Zoom(),
		Stats:     stats,
		Highlight: query != "" || simFile != "",
		Matches:   len(sims),
	}, format)
}

func writePNG(path string, r *canvas.Raster) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, r.Image()); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return f.Close()
}
