package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/internal/providers/llm"
	"github.com/porchlabs/porch/internal/service/cache"
	"github.com/porchlabs/porch/internal/service/chat"
	"github.com/porchlabs/porch/internal/service/dispatch"
	"github.com/porchlabs/porch/internal/service/memory"
	"github.com/porchlabs/porch/internal/service/session"
	"github.com/porchlabs/porch/internal/storage/sqlite"
	"github.com/porchlabs/porch/internal/transport/cli"
	"github.com/porchlabs/porch/pkg/log"
	"github.com/porchlabs/porch/pkg/srv"
)

// App bundles the wired orchestration core plus the background services
// that should run alongside it.
type App struct {
	AppCfg       *config.AppConfig
	Orchestrator *chat.Orchestrator
	Store        *memory.Store
	Integrator   *memory.Integrator
	Services     []srv.Service
}

// NewApp wires the whole pipeline. Transports are only attached when
// withTransports is set, so one-shot commands reuse the same wiring without
// an interactive surface.
func NewApp(ctx context.Context, withTransports bool) *App {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	provCfg := config.NewProviderConfig(ctx)
	dispatchCfg := config.NewDispatchConfig(ctx)
	cacheCfg := config.NewCacheConfig(ctx)

	// 2. Storage
	db, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	memoriesRepo := sqlite.NewMemoriesRepo(db)
	summariesRepo := sqlite.NewSummariesRepo(db)

	// 3. Memory
	store := memory.NewStore(appCfg, memoriesRepo, summariesRepo)
	services = append(services, memory.NewSweeper(store, appCfg.SweepSchedule))

	// 4. AI Providers
	primary, err := llm.NewProvider(ctx, provCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}
	direct, err := llm.NewDirectProvider(ctx, provCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize direct LLM provider")
	}

	// 5. Dispatch cascade
	tiers := dispatch.BuildTiers(dispatchCfg, appCfg.ContextTokenBudget, primary, direct)
	dispatcher := dispatch.NewDispatcher(dispatchCfg, tiers)

	// 6. Orchestration
	summarizer := memory.NewSummarizer(store, summariesRepo, primary, appCfg.SummaryThreshold)
	sessions := session.NewCoordinator(store)
	responseCache := cache.New(cacheCfg)

	orchestrator := chat.NewOrchestrator(appCfg, provCfg, store, sessions, responseCache, dispatcher, summarizer)

	// 7. Transports
	if withTransports && appCfg.EnableCLI {
		services = append(services, cli.NewREPL(orchestrator, appCfg.DefaultUserID))
	}

	return &App{
		AppCfg:       appCfg,
		Orchestrator: orchestrator,
		Store:        store,
		Integrator:   memory.NewIntegrator(store),
		Services:     services,
	}
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	return sqlite.NewDB(ctx, cfg.GetDatabasePath())
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
