package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/starmap/internal/cli"
)

func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.Brand.Sprint("starmap"), version)
		},
	}
}
