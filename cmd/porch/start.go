package main

import (
	"os"
	"os/signal"

	"github.com/porchlabs/porch/pkg/log"
	"github.com/porchlabs/porch/pkg/srv"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Porch services",
	Long:  `Initializes storage, the provider cascade and the configured transports, then runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting porch")

		app := NewApp(ctx, true)

		srv.StartServices(ctx, app.Services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, app.Services)
		logger.Info().Msg("porch has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
