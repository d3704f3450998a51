package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/starmap/internal/cli"
	"github.com/hyperjump/starmap/internal/dataset"
)

func NewConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output.db>",
		Short: "Convert a dataset into the SQLite layout",
		Long:  `Load a dataset from JSON, SQLite or an Excel workbook and write it to a SQLite database.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			_, ds, err := loadDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := dataset.WriteSQLite(cmd.Context(), args[1], ds); err != nil {
				return err
			}
			cli.Done(cmd.OutOrStdout(), fmt.Sprintf("wrote %s (%d points, %d clusters)",
				cli.Brand.Sprint(args[1]), len(ds.Points), len(ds.Clusters)))
			return nil
		},
	}
}
