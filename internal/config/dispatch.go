package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/porchlabs/porch/pkg/log"
)

// DispatchConfig bounds the fallback cascade. Each tier's effective timeout
// is min(tier timeout, remaining global budget).
type DispatchConfig struct {
	GlobalBudget      time.Duration `env:"DISPATCH_GLOBAL_BUDGET" envDefault:"20s"`
	UnifiedTimeout    time.Duration `env:"DISPATCH_UNIFIED_TIMEOUT" envDefault:"10s"`
	SimplifiedTimeout time.Duration `env:"DISPATCH_SIMPLIFIED_TIMEOUT" envDefault:"6s"`
	DirectTimeout     time.Duration `env:"DISPATCH_DIRECT_TIMEOUT" envDefault:"3s"`
}

func NewDispatchConfig(ctx context.Context) *DispatchConfig {
	c := &DispatchConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Dispatch config")
	}
	return c
}

// CacheConfig controls the response cache. TTL matches observed
// "repeat the same question" usage.
type CacheConfig struct {
	TTL        time.Duration `env:"CACHE_TTL" envDefault:"120s"`
	MaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"256"`
	KeyPrefix  int           `env:"CACHE_KEY_PREFIX_LEN" envDefault:"200"`
}

func NewCacheConfig(ctx context.Context) *CacheConfig {
	c := &CacheConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Cache config")
	}
	return c
}
