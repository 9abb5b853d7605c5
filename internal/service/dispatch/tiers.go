package dispatch

import (
	"context"

	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/internal/core"
)

// BuildTiers wires the three network tiers in cascade order. The direct tier
// may use a separate, cheaper provider; when none is configured it reuses
// the primary with a bare prompt, which still drops all context assembly.
func BuildTiers(cfg *config.DispatchConfig, tokenBudget int, primary, direct core.CompletionProvider) []Tier {
	if direct == nil {
		direct = primary
	}

	return []Tier{
		{
			Name:    TierUnified,
			Timeout: cfg.UnifiedTimeout,
			Run: func(ctx context.Context, req core.ChatRequest, rc core.RelevantContext) (string, error) {
				return primary.Complete(ctx, buildUnifiedMessages(req, rc, tokenBudget), optionsFrom(req))
			},
		},
		{
			Name:    TierSimplified,
			Timeout: cfg.SimplifiedTimeout,
			Run: func(ctx context.Context, req core.ChatRequest, rc core.RelevantContext) (string, error) {
				return primary.Complete(ctx, buildSimplifiedMessages(req, rc), optionsFrom(req))
			},
		},
		{
			Name:    TierDirect,
			Timeout: cfg.DirectTimeout,
			Run: func(ctx context.Context, req core.ChatRequest, _ core.RelevantContext) (string, error) {
				messages := []core.Message{{Role: core.RoleUser, Content: req.Message}}
				opts := optionsFrom(req)
				opts.Model = "" // let the direct provider pick its own default
				return direct.Complete(ctx, messages, opts)
			},
		},
	}
}

func optionsFrom(req core.ChatRequest) core.CompletionOptions {
	return core.CompletionOptions{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}
