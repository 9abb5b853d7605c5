package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/porchlabs/porch/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"PORCH_RUNTIME_PATH" envDefault:".porch"`

	// Identity defaults for requests that omit a user id.
	DefaultUserID string `env:"DEFAULT_USER_ID" envDefault:"demo-user"`

	// Context Management
	ContextWindowSize  int `env:"CONTEXT_WINDOW_SIZE" envDefault:"12"`
	ContextTokenBudget int `env:"CONTEXT_TOKEN_BUDGET" envDefault:"2000"`

	// Conversation entries are short-lived; facts and preferences are durable.
	MemoryTTL        time.Duration `env:"MEMORY_TTL" envDefault:"168h"`
	SummaryThreshold int           `env:"SUMMARY_THRESHOLD" envDefault:"10"`
	SweepSchedule    string        `env:"SWEEP_SCHEDULE" envDefault:"@every 10m"`

	// Transport Flags
	EnableCLI bool `env:"ENABLE_CLI" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return resolveRuntimePath(c.RuntimePath)
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.GetRuntimePath(), "porch.db")
}
