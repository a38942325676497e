package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/blutspende/labops"
	"github.com/blutspende/labops/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "labops",
		Short:         "Lab operations for the clinical genomics status store",
		Long:          "labops takes orders, keeps sample lifecycles in sync with the LIMS, archives analyses and prepares invoices.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newOrderformCmd())
	cmd.AddCommand(newTransferCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newStoreCmd())
	cmd.AddCommand(newInvoiceCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "labops %s (commit: %s)\n", Version, Commit)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the status store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *labops.App) error {
				err := app.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema %s is up to date\n", app.Config.DBSchema)
				return nil
			})
		},
	}
}

func configureLogger(level zerolog.Level) zerolog.Logger {
	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.Out = os.Stderr
	consoleWriter.TimeFormat = "2006-01-02T15:04:05Z07:00"
	log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
	return log.Logger
}

// withApp reads the configuration from the environment and runs fn against a connected App.
func withApp(ctx context.Context, fn func(app *labops.App) error) error {
	configuration, err := config.ReadConfiguration()
	if err != nil {
		return err
	}
	logger := configureLogger(configuration.LogLevel)
	labops.BuildVersion = Version

	app, err := labops.New(ctx, configuration, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func printJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func execute(cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
