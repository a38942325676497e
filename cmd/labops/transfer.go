package main

import (
	"fmt"

	"github.com/blutspende/labops"
	"github.com/blutspende/labops/utils"
	"github.com/spf13/cobra"
)

func newTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer data from the LIMS and the stats database into the status store",
	}
	cmd.AddCommand(newTransferKindCmd(labops.EntityKindSample, "Transfer sample dates from the LIMS"))
	cmd.AddCommand(newTransferKindCmd(labops.EntityKindPool, "Transfer pool dates from the LIMS"))
	cmd.AddCommand(newTransferKindCmd(labops.EntityKindMicrobialSample, "Transfer microbial sample dates from the LIMS"))
	cmd.AddCommand(newTransferFlowcellCmd())
	return cmd
}

func newTransferKindCmd(kind labops.EntityKind, short string) *cobra.Command {
	var status, include string

	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage := labops.Stage(status)
			if !labops.IsTransferStage(kind, stage) {
				return fmt.Errorf("%w: %s has no %q stage, use one of %s", labops.ErrInvalidStage, kind, status,
					utils.JoinEnumsAsString(labops.TransferStages(kind), ", "))
			}
			includeOption, err := labops.ParseIncludeOption(include)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(app *labops.App) error {
				report, err := app.Transfers.Transfer(cmd.Context(), kind, stage, includeOption)
				app.Metrics.ObserveTransfer(report)
				printErr := printJSON(cmd.OutOrStdout(), report)
				if err != nil {
					return err
				}
				return printErr
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", string(labops.StageReceived), "stage to transfer")
	cmd.Flags().StringVarP(&include, "include", "i", "", "candidates: awaiting (default), not-invoiced or all")
	return cmd
}

func newTransferFlowcellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flowcell <name>",
		Short: "Transfer a flowcell from the stats database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *labops.App) error {
				flowcells, err := app.RequireFlowcells()
				if err != nil {
					return err
				}
				flowcell, err := flowcells.Transfer(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), flowcell)
			})
		},
	}
}
