package memory

import (
	"context"

	"github.com/porchlabs/porch/pkg/log"
	"github.com/robfig/cron/v3"
)

// Sweeper eagerly deletes expired entries on a schedule. Reads filter
// expired rows on their own, so the sweep only bounds storage growth.
type Sweeper struct {
	store    *Store
	schedule string
	cron     *cron.Cron
}

func NewSweeper(store *Store, schedule string) *Sweeper {
	return &Sweeper{
		store:    store,
		schedule: schedule,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		n, err := s.store.DeleteExpired(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("memory sweep failed")
			return
		}
		if n > 0 {
			logger.Info().Int64("deleted", n).Msg("swept expired memories")
		}
	})
	if err != nil {
		return err
	}

	logger.Info().Str("schedule", s.schedule).Msg("starting memory sweeper")
	s.cron.Start()

	<-ctx.Done()
	return nil
}

func (s *Sweeper) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Stop()
	}
	return nil
}
