package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/pkg/env"
	"github.com/porchlabs/porch/pkg/log"
	"github.com/spf13/cobra"
)

var envWrite bool

var envCmd = &cobra.Command{
	Use:          "env",
	Short:        "Print the effective configuration in .env form",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		configs := []any{
			config.NewAppConfig(ctx),
			config.NewProviderConfig(ctx),
			config.NewDispatchConfig(ctx),
			config.NewCacheConfig(ctx),
		}

		var content string
		for _, c := range configs {
			section, err := env.MarshalEnv(c)
			if err != nil {
				return err
			}
			content += section
		}

		if !envWrite {
			fmt.Print(content)
			return nil
		}

		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0755); err != nil {
			return err
		}
		envPath := filepath.Join(runtimePath, ".env")
		if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
			return err
		}

		log.FromCtx(ctx).Info().Str("path", envPath).Msg("wrote .env file")
		return nil
	},
}

func init() {
	envCmd.Flags().BoolVarP(&envWrite, "write", "w", false, "write to the runtime .env file instead of stdout")
	rootCmd.AddCommand(envCmd)
}
