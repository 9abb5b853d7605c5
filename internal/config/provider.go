package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/porchlabs/porch/pkg/log"
)

type ProviderConfig struct {
	// Provider family used by the unified and simplified tiers.
	Provider string `env:"LLM_PROVIDER" envDefault:"openai"`
	Model    string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	// Provider for the bare-bones direct tier; empty means reuse Provider.
	DirectProvider string `env:"LLM_DIRECT_PROVIDER"`
	DirectModel    string `env:"LLM_DIRECT_MODEL"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`

	CustomBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomAPIKey  string `env:"CUSTOM_OPENAI_API_KEY"`
}

func NewProviderConfig(ctx context.Context) *ProviderConfig {
	c := &ProviderConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Provider config")
	}
	return c
}
