package main

import (
	"fmt"

	"github.com/porchlabs/porch/pkg/log"
	"github.com/spf13/cobra"
)

var memoryUser string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and maintain the memory store",
}

var memoryStatsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Show memory statistics for a user",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		app := NewApp(ctx, false)

		userID := memoryUser
		if userID == "" {
			userID = app.AppCfg.DefaultUserID
		}

		stats, err := app.Store.Stats(ctx, userID)
		if err != nil {
			return err
		}

		fmt.Printf("user:           %s\n", stats.UserID)
		fmt.Printf("total entries:  %d\n", stats.TotalEntries)
		fmt.Printf("sessions:       %d\n", stats.Sessions)
		fmt.Printf("expiring soon:  %d\n", stats.ExpiringSoon)
		for kind, n := range stats.ByKind {
			fmt.Printf("  %-14s%d\n", kind+":", n)
		}
		return nil
	},
}

var memoryClearCmd = &cobra.Command{
	Use:          "clear",
	Short:        "Delete all memory for a user",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if memoryUser == "" {
			return fmt.Errorf("--user is required for clear")
		}

		app := NewApp(ctx, false)

		deleted, err := app.Store.ClearUser(ctx, memoryUser)
		if err != nil {
			return err
		}

		log.FromCtx(ctx).Info().Int64("deleted", deleted).Str("user", memoryUser).Msg("memory cleared")
		return nil
	},
}

var memorySweepCmd = &cobra.Command{
	Use:          "sweep",
	Short:        "Delete expired memory entries now",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		app := NewApp(ctx, false)

		deleted, err := app.Store.DeleteExpired(ctx)
		if err != nil {
			return err
		}

		log.FromCtx(ctx).Info().Int64("deleted", deleted).Msg("sweep finished")
		return nil
	},
}

var (
	toolSession   string
	toolInterface string
)

var memoryToolCmd = &cobra.Command{
	Use:          "tool [name] [result]",
	Short:        "Record a tool result into session memory",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if toolSession == "" {
			return fmt.Errorf("--session is required for tool")
		}

		app := NewApp(ctx, false)

		userID := memoryUser
		if userID == "" {
			userID = app.AppCfg.DefaultUserID
		}

		entry, err := app.Integrator.Integrate(ctx, userID, toolSession, args[0], args[1], toolInterface)
		if err != nil {
			return err
		}

		log.FromCtx(ctx).Info().
			Str("id", entry.ID).
			Str("tool", args[0]).
			Msg("tool result recorded")
		return nil
	},
}

func init() {
	memoryCmd.PersistentFlags().StringVarP(&memoryUser, "user", "u", "", "user id")
	memoryToolCmd.Flags().StringVarP(&toolSession, "session", "s", "", "session id the result belongs to")
	memoryToolCmd.Flags().StringVarP(&toolInterface, "interface", "i", "main", "interface the result came from")
	memoryCmd.AddCommand(memoryStatsCmd, memoryClearCmd, memorySweepCmd, memoryToolCmd)
	rootCmd.AddCommand(memoryCmd)
}
