package llm

import (
	"context"
	"fmt"

	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/pkg/log"
)

// NewProvider creates the CompletionProvider for the rich tiers based on
// configuration.
func NewProvider(ctx context.Context, cfg *config.ProviderConfig) (core.CompletionProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	return newProviderByName(cfg, cfg.Provider, cfg.Model)
}

// NewDirectProvider creates the minimal provider for the direct tier. It
// falls back to the primary provider family when none is configured.
func NewDirectProvider(ctx context.Context, cfg *config.ProviderConfig) (core.CompletionProvider, error) {
	name, model := cfg.DirectProvider, cfg.DirectModel
	if name == "" {
		name = cfg.Provider
	}
	if model == "" {
		model = cfg.Model
	}

	log.FromCtx(ctx).Info().
		Str("provider", name).
		Str("model", model).
		Msg("starting direct llm provider")

	return newProviderByName(cfg, name, model)
}

func newProviderByName(cfg *config.ProviderConfig, name, model string) (core.CompletionProvider, error) {
	switch name {
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, model), nil
	case "anthropic":
		return NewAnthropic(cfg.AnthropicAPIKey, model), nil
	case "openrouter":
		return NewOpenRouter(cfg.OpenRouterAPIKey, model), nil
	case "custom":
		return NewCustomOpenAI(cfg.CustomBaseURL, cfg.CustomAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
}
