package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/starmap/internal/cli"
	"github.com/hyperjump/starmap/internal/dataset"
	"github.com/hyperjump/starmap/internal/server"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive sessions over HTTP",
		Long:  `Start the HTTP host. Every session renders in its own loop; clients send pointer events and fetch frames.`,
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("dataset", "", "dataset file every new session starts with")
	cmd.Flags().String("host", "", "listen host (overrides config)")
	cmd.Flags().Int("port", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	var opts []server.Option
	path, _ := cmd.Flags().GetString("dataset")
	if path == "" {
		path = cfg.Dataset.Path
	}
	if path != "" {
		src, err := dataset.Open(path)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithSource(src))
	}

	srv := server.NewServer(cfg, logger, opts...)
	if err := srv.Open(cmd.Context()); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	fmt.Fprintf(cmd.OutOrStdout(), "%s listening on %s\n",
		cli.Brand.Sprint("starmap"), fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port))

	select {
	case err := <-errCh:
		_ = srv.Stop(context.Background())
		return err
	case <-cmd.Context().Done():
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Warn("shutdown failed", zap.Error(err))
	}
	return nil
}
