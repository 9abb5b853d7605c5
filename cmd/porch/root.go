package main

import (
	"context"
	"os"

	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "porch",
	Short: "Porch, a resilient AI assistant for real-estate portfolios",
	Long:  `Porch is a chat assistant for real-estate portfolio management that keeps answering through provider outages.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
