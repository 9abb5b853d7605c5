package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/pkg/log"
)

// Tier names, in cascade order.
const (
	TierUnified    = "unified"
	TierSimplified = "simplified"
	TierDirect     = "direct"
	TierFallback   = "fallback"
)

// Tier is one strategy in the cascade. Run either returns usable text or an
// error; empty text counts as failure.
type Tier struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context, req core.ChatRequest, rc core.RelevantContext) (string, error)
}

// Dispatcher tries tiers in priority order and falls through on any
// failure. The deterministic offline responder sits outside the tier list,
// so a total dispatch failure is structurally impossible: the only
// non-success exit is caller cancellation.
type Dispatcher struct {
	cfg     *config.DispatchConfig
	tiers   []Tier
	offline *OfflineResponder
	now     func() time.Time
}

func NewDispatcher(cfg *config.DispatchConfig, tiers []Tier) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		tiers:   tiers,
		offline: NewOfflineResponder(),
		now:     time.Now,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req core.ChatRequest, rc core.RelevantContext) (core.DispatchOutcome, []core.DispatchAttempt, error) {
	logger := log.FromCtx(ctx)
	start := d.now()
	deadline := start.Add(d.cfg.GlobalBudget)

	var attempts []core.DispatchAttempt

	for _, tier := range d.tiers {
		if err := ctx.Err(); err != nil {
			return core.DispatchOutcome{}, attempts, err
		}

		remaining := deadline.Sub(d.now())
		if remaining <= 0 {
			// Budget exhausted; only the deterministic tail remains.
			break
		}

		timeout := tier.Timeout
		if timeout <= 0 || timeout > remaining {
			timeout = remaining
		}

		attemptStart := d.now()
		tctx, cancel := context.WithTimeout(ctx, timeout)
		content, err := tier.Run(tctx, req, rc)
		cancel()
		duration := d.now().Sub(attemptStart)

		if err == nil && strings.TrimSpace(content) == "" {
			err = core.ErrEmptyCompletion
		}

		attempts = append(attempts, core.DispatchAttempt{
			Tier:      tier.Name,
			StartedAt: attemptStart,
			Duration:  duration,
			Err:       err,
		})

		if err == nil {
			logger.Debug().
				Str("tier", tier.Name).
				Dur("duration", duration).
				Msg("tier succeeded")
			return core.DispatchOutcome{Tier: tier.Name, Content: content}, attempts, nil
		}

		// Caller cancellation stops the cascade; everything else falls
		// through to the next tier.
		if ctx.Err() != nil {
			return core.DispatchOutcome{}, attempts, ctx.Err()
		}

		logger.Warn().
			Str("tier", tier.Name).
			Dur("duration", duration).
			Err(err).
			Msg("tier failed, falling through")
	}

	content := d.offline.Respond(req.Message)
	attempts = append(attempts, core.DispatchAttempt{
		Tier:      TierFallback,
		StartedAt: d.now(),
	})

	logger.Info().
		Int("failed_tiers", len(attempts)-1).
		Msg("serving deterministic fallback response")

	return core.DispatchOutcome{Tier: TierFallback, Content: content, Fallback: true}, attempts, nil
}
