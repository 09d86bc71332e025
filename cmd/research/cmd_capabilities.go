package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-research-pipeline/internal/format"
	"go-research-pipeline/internal/pipeline"
)

var capabilitiesFormat string

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List the agent roles and their dependencies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mode, err := format.ParseMode(capabilitiesFormat)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), format.Capabilities(mode, pipeline.Builtin().List()))
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	capabilitiesCmd.Flags().StringVar(&capabilitiesFormat, "format", "ascii", "table format: ascii or markdown")
}
