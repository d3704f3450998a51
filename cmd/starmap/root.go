package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/config"
	"github.com/hyperjump/starmap/pkg/utils"
)

const defaultConfigPath = "/usr/local/etc/starmap/config.yaml"

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "starmap",
		Short:         "Explore embedding projections as an interactive star map",
		Long:          `Render projected embeddings as a zoomable point cloud, highlight search results and serve interactive sessions over HTTP.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "config file path (.yaml or .toml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(
		NewServeCmd(),
		NewViewCmd(),
		NewRenderCmd(),
		NewConvertCmd(),
		NewVersionCmd(version),
	)
	return rootCmd
}

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if it exists, and a missing default file means built-in defaults.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads the config named by the persistent flags and creates the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, resolved, err := loadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLoggerLevel(debugMode, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger, nil
}
