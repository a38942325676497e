package main

import (
	"fmt"

	"github.com/blutspende/labops"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload analysis results to downstream systems",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "observations <analysis-id>",
		Short: "Load the variant observations of an analysis into loqusdb",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysisID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid analysis id %q: %w", args[0], err)
			}
			return withApp(cmd.Context(), func(app *labops.App) error {
				err := app.Observations.Process(cmd.Context(), analysisID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "observations of analysis %s uploaded\n", analysisID)
				return nil
			})
		},
	})
	return cmd
}

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Store results in the bundle archive",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "analysis <config.yaml>",
		Short: "Archive the files of a finished pipeline run and record the analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *labops.App) error {
				analysis, err := app.Analyses.StoreAnalysis(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), analysis)
			})
		},
	})
	return cmd
}
