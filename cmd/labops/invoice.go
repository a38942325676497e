package main

import (
	"fmt"

	"github.com/blutspende/labops"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newInvoiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Prepare invoices",
	}
	cmd.AddCommand(newInvoicePrepareCmd())
	return cmd
}

func newInvoicePrepareCmd() *cobra.Command {
	var costCenterValue string

	cmd := &cobra.Command{
		Use:   "prepare <invoice-id>",
		Short: "Print the billing data of an invoice for one cost center",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid invoice id %q: %w", args[0], err)
			}
			costCenter, err := labops.ParseCostCenter(costCenterValue)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(app *labops.App) error {
				data, diagnostics, err := app.Invoices.Prepare(cmd.Context(), invoiceID, costCenter)
				if err != nil {
					return err
				}
				for _, diagnostic := range diagnostics {
					fmt.Fprintln(cmd.ErrOrStderr(), diagnostic)
				}
				if data == nil {
					return fmt.Errorf("invoice %s can not be prepared", invoiceID)
				}
				return printJSON(cmd.OutOrStdout(), data)
			})
		},
	}

	cmd.Flags().StringVarP(&costCenterValue, "costcenter", "c", string(labops.CostCenterKI), "cost center: ki or kth")
	return cmd
}
