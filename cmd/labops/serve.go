package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/blutspende/labops"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrate, schedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, func(app *labops.App) error {
				return runServe(ctx, app, migrate, schedule)
			})
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "migrate the status store schema before serving")
	cmd.Flags().BoolVar(&schedule, "schedule", true, "run the LIMS transfers on TRANSFER_SCHEDULE")
	return cmd
}

func runServe(ctx context.Context, app *labops.App, migrate, schedule bool) error {
	if migrate {
		err := app.Migrate(ctx)
		if err != nil {
			return err
		}
	}

	if schedule {
		scheduler, err := app.NewScheduler()
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	errs := make(chan error, 1)
	go func() {
		errs <- app.NewAPI().Run()
	}()

	log.Info().Uint16("port", app.Config.APIPort).Msg("labops api started")
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return nil
	case err := <-errs:
		return err
	}
}
