package main

import (
	"fmt"
	"strings"

	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/pkg/retry"
	"github.com/spf13/cobra"
)

var (
	askUser    string
	askSession string
	askVerbose bool
)

var askCmd = &cobra.Command{
	Use:           "ask [question]",
	Short:         "Ask a single question and print the answer",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		app := NewApp(ctx, false)

		req := core.ChatRequest{
			Message:            strings.Join(args, " "),
			UserID:             askUser,
			SessionID:          askSession,
			SourceInstance:     core.SourceMain,
			CrossSessionMemory: askSession == "",
		}

		// The pipeline only errors on cancellation or an empty message, so
		// a couple of quick retries cover transient startup hiccups without
		// masking real misuse.
		var resp core.ChatResponse
		r := retry.NewRetrier(retry.NewWriteConfig())
		err := r.Do(ctx, func() error {
			var err error
			resp, err = app.Orchestrator.ProcessChat(ctx, req)
			return err
		})
		if err != nil {
			return err
		}

		fmt.Println(resp.Content)
		if askVerbose {
			fmt.Printf("\n[session=%s model=%s tier=%s cache=%v memories=%d %dms]\n",
				resp.SessionID, resp.Model,
				resp.Metadata.SourceTier, resp.Metadata.CacheHit,
				resp.Metadata.ContextUsed.RelevantMemories,
				resp.Metadata.ProcessingTimeMs)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "user id (defaults to DEFAULT_USER_ID)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id to continue")
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "print response metadata")
	rootCmd.AddCommand(askCmd)
}
