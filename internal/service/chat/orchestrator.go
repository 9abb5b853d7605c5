package chat

import (
	"context"
	"strings"
	"time"

	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/internal/service/cache"
	"github.com/porchlabs/porch/internal/service/memory"
	"github.com/porchlabs/porch/internal/service/session"
	"github.com/porchlabs/porch/pkg/log"
)

// Dispatcher is the cascade as the orchestrator sees it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req core.ChatRequest, rc core.RelevantContext) (core.DispatchOutcome, []core.DispatchAttempt, error)
}

// Orchestrator runs the full request pipeline: defaults, session
// resolution, cache, memory persistence, dispatch, summarization. Every
// downstream failure except caller cancellation degrades the response
// instead of failing it.
type Orchestrator struct {
	appCfg     *config.AppConfig
	store      *memory.Store
	sessions   *session.Coordinator
	cache      *cache.ResponseCache
	dispatcher Dispatcher
	summarizer *memory.Summarizer

	defaultModel string
	now          func() time.Time
}

func NewOrchestrator(
	appCfg *config.AppConfig,
	provCfg *config.ProviderConfig,
	store *memory.Store,
	sessions *session.Coordinator,
	responseCache *cache.ResponseCache,
	dispatcher Dispatcher,
	summarizer *memory.Summarizer,
) *Orchestrator {
	return &Orchestrator{
		appCfg:       appCfg,
		store:        store,
		sessions:     sessions,
		cache:        responseCache,
		dispatcher:   dispatcher,
		summarizer:   summarizer,
		defaultModel: provCfg.Model,
		now:          time.Now,
	}
}

// ProcessChat handles one chat turn. The only error it returns is caller
// cancellation (or an empty message); everything else resolves to a
// successful, possibly degraded, response.
func (o *Orchestrator) ProcessChat(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	logger := log.FromCtx(ctx)
	start := o.now()

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return core.ChatResponse{}, core.ErrEmptyMessage
	}
	o.applyDefaults(&req)

	sessionID := o.sessions.EnsureSession(req.SessionID, req.UserID)
	req.SessionID = sessionID

	memoryOn := req.MemoryOn()
	if memoryOn && req.CrossSessionMemory {
		o.sessions.ActivateWithSharing(ctx, req.UserID, sessionID)
	}

	// A fresh identical question is answered straight from cache, before
	// any provider or storage work.
	cacheKey := o.cache.Key(req.UserID, req.Model, req.Message)
	if hit, ok := o.cache.Get(cacheKey); ok {
		logger.Debug().Str("tier", hit.Tier).Msg("cache hit")
		return o.buildResponse(req, hit.Content, hit.Tier, core.RelevantContext{}, start, true), nil
	}

	if memoryOn {
		o.saveTurn(ctx, req, core.RoleUser, req.Message)
	}

	var rc core.RelevantContext
	memoryIntegrated := false
	if memoryOn {
		loaded, err := o.store.GetRelevantContext(ctx, req.UserID, sessionID, req.Message, 0)
		if err != nil {
			// Memory trouble must not take the conversation down; the
			// dispatcher just runs without context.
			logger.Warn().Err(err).Msg("failed to load relevant context")
		} else {
			rc = loaded
			memoryIntegrated = true
		}
	}

	outcome, attempts, err := o.dispatcher.Dispatch(ctx, req, rc)
	if err != nil {
		// Caller walked away. The user turn stays recorded; nothing else
		// is written.
		logger.Info().Err(err).Int("attempts", len(attempts)).Msg("dispatch aborted")
		return core.ChatResponse{}, err
	}

	if memoryOn {
		o.saveTurn(ctx, req, core.RoleAssistant, outcome.Content)
		o.summarizer.MaybeSummarize(ctx, sessionID)
	}

	// Fallback answers are cached too; the tier travels with the entry so
	// a hit still reports degraded quality.
	o.cache.Set(cacheKey, cache.Entry{
		Content:  outcome.Content,
		Tier:     outcome.Tier,
		Fallback: outcome.Fallback,
	})

	resp := o.buildResponse(req, outcome.Content, outcome.Tier, rc, start, false)
	resp.Metadata.MemoryIntegrated = memoryIntegrated
	return resp, nil
}

// applyDefaults corrects every malformed field instead of rejecting it.
// Out-of-range sampling values are zeroed so the provider falls back to its
// own defaults rather than returning a 400 on every network tier.
func (o *Orchestrator) applyDefaults(req *core.ChatRequest) {
	if req.UserID == "" {
		req.UserID = o.appCfg.DefaultUserID
	}
	if req.Model == "" {
		req.Model = o.defaultModel
	}
	if req.SourceInstance == "" {
		req.SourceInstance = core.SourceMain
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		req.Temperature = 0
	}
	if req.MaxTokens < 0 {
		req.MaxTokens = 0
	}
}

// saveTurn persists one conversation turn with its role prefix. User turns
// are scored by content so substantial ones can cross the cross-session
// share threshold. Persistence failures are logged and swallowed; the chat
// goes on without them.
func (o *Orchestrator) saveTurn(ctx context.Context, req core.ChatRequest, role, content string) {
	attrs := memory.DefaultAttributes()
	if role == core.RoleUser {
		attrs = memory.TurnAttributes(content)
	}

	_, err := o.store.Save(ctx, req.UserID, req.SessionID, role+": "+content,
		core.KindConversation, attrs, req.SourceInstance)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("role", role).Msg("failed to save conversation turn")
	}
}

func (o *Orchestrator) buildResponse(req core.ChatRequest, content, tier string, rc core.RelevantContext, start time.Time, cacheHit bool) core.ChatResponse {
	return core.ChatResponse{
		Success:   true,
		Content:   content,
		SessionID: req.SessionID,
		Model:     req.Model,
		Metadata: core.ResponseMetadata{
			ProcessingTimeMs: o.now().Sub(start).Milliseconds(),
			ContextUsed: core.ContextUsage{
				RecentMessages:   len(rc.RecentContext),
				RelevantMemories: len(rc.RelevantMemories),
				ToolResults:      len(rc.ToolResults),
			},
			SourceTier: tier,
			CacheHit:   cacheHit,
		},
	}
}
