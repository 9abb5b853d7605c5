package main

import (
	"os"
	"os/signal"

	"github.com/porchlabs/porch/internal/transport/cli"
	"github.com/spf13/cobra"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Start an interactive chat session",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		app := NewApp(ctx, false)

		userID := chatUser
		if userID == "" {
			userID = app.AppCfg.DefaultUserID
		}

		// Run the REPL in the foreground; background services like the
		// sweeper only run under 'start'.
		repl := cli.NewREPL(app.Orchestrator, userID)
		return repl.Start(ctx)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "user id (defaults to DEFAULT_USER_ID)")
	rootCmd.AddCommand(chatCmd)
}
