package main

import (
	"os"

	"github.com/blutspende/labops"
	"github.com/spf13/cobra"
)

func newOrderformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orderform",
		Short: "Work with order form workbooks",
	}
	cmd.AddCommand(newOrderformParseCmd())
	return cmd
}

func newOrderformParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <orderform.xlsx>",
		Short: "Parse an order form and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			orderForm, err := labops.ParseOrderForm(file)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), orderForm)
		},
	}
}
