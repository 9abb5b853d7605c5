package chat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/internal/service/cache"
	"github.com/porchlabs/porch/internal/service/dispatch"
	"github.com/porchlabs/porch/internal/service/memory"
	"github.com/porchlabs/porch/internal/service/session"
)

type fakeRepo struct {
	mu          sync.Mutex
	entries     []core.MemoryEntry
	sharedCalls int
}

func (f *fakeRepo) Insert(_ context.Context, entry core.MemoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRepo) InsertShared(ctx context.Context, entry core.MemoryEntry, _ string) error {
	f.mu.Lock()
	f.sharedCalls++
	f.mu.Unlock()
	return f.Insert(ctx, entry)
}

func (f *fakeRepo) GetBySession(_ context.Context, sessionID string, kind core.MemoryKind, limit int, now time.Time) ([]core.MemoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.MemoryEntry
	for _, e := range f.entries {
		if e.SessionID == sessionID && e.Kind == kind && !e.Expired(now) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeRepo) GetByUser(_ context.Context, userID string, now time.Time) ([]core.MemoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.MemoryEntry
	for _, e := range f.entries {
		if e.UserID == userID && !e.Expired(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountBySession(ctx context.Context, sessionID string, kind core.MemoryKind, now time.Time) (int, error) {
	entries, err := f.GetBySession(ctx, sessionID, kind, 0, now)
	return len(entries), err
}

func (f *fakeRepo) TouchUsed(_ context.Context, _ []string, _ time.Time) error { return nil }

func (f *fakeRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func (f *fakeRepo) DeleteByUser(_ context.Context, _ string) (int64, error) { return 0, nil }

func (f *fakeRepo) count(kind core.MemoryKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type fakeSummaries struct{}

func (fakeSummaries) Upsert(_ context.Context, _ core.ConversationSummary) error { return nil }
func (fakeSummaries) GetLatest(_ context.Context, _ string) (*core.ConversationSummary, error) {
	return nil, nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	calls   int
	lastReq core.ChatRequest
	outcome core.DispatchOutcome
	err     error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req core.ChatRequest, _ core.RelevantContext) (core.DispatchOutcome, []core.DispatchAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	return f.outcome, nil, f.err
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeDispatcher) lastRequest() core.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func newTestOrchestrator(d Dispatcher) (*Orchestrator, *fakeRepo) {
	appCfg := &config.AppConfig{
		DefaultUserID:      "demo-user",
		ContextWindowSize:  12,
		ContextTokenBudget: 2000,
		MemoryTTL:          168 * time.Hour,
		SummaryThreshold:   100,
	}
	provCfg := &config.ProviderConfig{Model: "gpt-4o-mini"}
	repo := &fakeRepo{}
	summaries := fakeSummaries{}

	store := memory.NewStore(appCfg, repo, summaries)
	summarizer := memory.NewSummarizer(store, summaries, nil, appCfg.SummaryThreshold)
	responseCache := cache.New(&config.CacheConfig{TTL: time.Minute, MaxEntries: 16, KeyPrefix: 200})
	sessions := session.NewCoordinator(store)

	return NewOrchestrator(appCfg, provCfg, store, sessions, responseCache, d, summarizer), repo
}

func TestProcessChatHappyPath(t *testing.T) {
	d := &fakeDispatcher{outcome: core.DispatchOutcome{Tier: dispatch.TierUnified, Content: "the answer"}}
	o, repo := newTestOrchestrator(d)

	resp, err := o.ProcessChat(context.Background(), core.ChatRequest{Message: "how is my portfolio doing?"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "the answer", resp.Content)
	assert.Equal(t, dispatch.TierUnified, resp.Metadata.SourceTier)
	assert.Equal(t, "gpt-4o-mini", resp.Model, "model default must be applied")
	assert.NotEmpty(t, resp.SessionID, "a session id must be minted")
	assert.True(t, resp.Metadata.MemoryIntegrated)
	assert.False(t, resp.Metadata.CacheHit)
	assert.Equal(t, 2, repo.count(core.KindConversation), "user and assistant turns must both be saved")
}

func TestProcessChatEmptyMessage(t *testing.T) {
	o, _ := newTestOrchestrator(&fakeDispatcher{})

	_, err := o.ProcessChat(context.Background(), core.ChatRequest{Message: "   \n "})

	assert.ErrorIs(t, err, core.ErrEmptyMessage)
}

func TestProcessChatCacheIdempotence(t *testing.T) {
	d := &fakeDispatcher{outcome: core.DispatchOutcome{Tier: dispatch.TierUnified, Content: "cached answer"}}
	o, _ := newTestOrchestrator(d)

	req := core.ChatRequest{Message: "What is a good cap rate?", UserID: "u1"}

	first, err := o.ProcessChat(context.Background(), req)
	require.NoError(t, err)
	second, err := o.ProcessChat(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, d.callCount(), "repeat question must be served from cache without dispatch")
	assert.Equal(t, first.Content, second.Content)
	assert.False(t, first.Metadata.CacheHit)
	assert.True(t, second.Metadata.CacheHit)
	assert.Equal(t, dispatch.TierUnified, second.Metadata.SourceTier)
}

func TestProcessChatFallbackIsCachedWithTier(t *testing.T) {
	d := &fakeDispatcher{outcome: core.DispatchOutcome{Tier: dispatch.TierFallback, Content: "canned", Fallback: true}}
	o, _ := newTestOrchestrator(d)

	req := core.ChatRequest{Message: "anything at all", UserID: "u1"}

	_, err := o.ProcessChat(context.Background(), req)
	require.NoError(t, err)
	resp, err := o.ProcessChat(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.Metadata.CacheHit)
	assert.Equal(t, dispatch.TierFallback, resp.Metadata.SourceTier,
		"a cached fallback must still report degraded quality")
}

func TestProcessChatCancellationKeepsUserTurnOnly(t *testing.T) {
	d := &fakeDispatcher{err: context.Canceled}
	o, repo := newTestOrchestrator(d)

	_, err := o.ProcessChat(context.Background(), core.ChatRequest{Message: "hello"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, repo.count(core.KindConversation),
		"the user turn stays recorded, the assistant turn is never written")
}

func TestProcessChatMemoryDisabled(t *testing.T) {
	d := &fakeDispatcher{outcome: core.DispatchOutcome{Tier: dispatch.TierUnified, Content: "answer"}}
	o, repo := newTestOrchestrator(d)

	off := false
	resp, err := o.ProcessChat(context.Background(), core.ChatRequest{Message: "hello", MemoryEnabled: &off})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.Metadata.MemoryIntegrated)
	assert.Equal(t, 0, repo.count(core.KindConversation), "nothing is persisted with memory off")
}

func TestProcessChatSessionContinuity(t *testing.T) {
	d := &fakeDispatcher{outcome: core.DispatchOutcome{Tier: dispatch.TierUnified, Content: "answer"}}
	o, _ := newTestOrchestrator(d)

	first, err := o.ProcessChat(context.Background(), core.ChatRequest{Message: "first question"})
	require.NoError(t, err)

	second, err := o.ProcessChat(context.Background(), core.ChatRequest{
		Message:   "second question",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestProcessChatCrossSessionSharingCopies(t *testing.T) {
	d := &fakeDispatcher{outcome: core.DispatchOutcome{Tier: dispatch.TierUnified, Content: "answer"}}
	o, repo := newTestOrchestrator(d)

	first, err := o.ProcessChat(context.Background(), core.ChatRequest{
		Message: "what's the cap rate trend on my duplex?",
		UserID:  "u1",
	})
	require.NoError(t, err)

	second, err := o.ProcessChat(context.Background(), core.ChatRequest{
		Message:            "hello again",
		UserID:             "u1",
		CrossSessionMemory: true,
	})
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Greater(t, repo.sharedCalls, 0,
		"a substantial turn from the prior session must be copied forward")

	var copied bool
	for _, e := range repo.entries {
		if e.SessionID == second.SessionID && strings.Contains(e.Content, "cap rate trend") {
			copied = true
		}
	}
	assert.True(t, copied, "the copied turn must land in the new session")
}

func TestProcessChatCorrectsSamplingFields(t *testing.T) {
	d := &fakeDispatcher{outcome: core.DispatchOutcome{Tier: dispatch.TierUnified, Content: "answer"}}
	o, _ := newTestOrchestrator(d)

	_, err := o.ProcessChat(context.Background(), core.ChatRequest{
		Message:     "hello",
		Temperature: 5,
		MaxTokens:   -100,
	})
	require.NoError(t, err)

	got := d.lastRequest()
	assert.Zero(t, got.Temperature, "out-of-range temperature is corrected, never forwarded")
	assert.Zero(t, got.MaxTokens, "negative max tokens is corrected, never forwarded")

	_, err = o.ProcessChat(context.Background(), core.ChatRequest{
		Message:     "hello once more",
		Temperature: 1.2,
		MaxTokens:   256,
	})
	require.NoError(t, err)

	got = d.lastRequest()
	assert.Equal(t, 1.2, got.Temperature, "in-range values pass through untouched")
	assert.Equal(t, 256, got.MaxTokens)
}

func TestProcessChatStream(t *testing.T) {
	content := strings.Repeat("real estate analysis ", 20)
	d := &fakeDispatcher{outcome: core.DispatchOutcome{Tier: dispatch.TierUnified, Content: content}}
	o, _ := newTestOrchestrator(d)

	chunks, err := o.ProcessChatStream(context.Background(), core.ChatRequest{Message: "stream it"})
	require.NoError(t, err)

	var sb strings.Builder
	var last core.StreamChunk
	for c := range chunks {
		last = c
		sb.WriteString(c.Content)
	}

	assert.True(t, last.Done, "the final chunk must signal completion")
	assert.Empty(t, last.Content)
	assert.Equal(t, content, sb.String(), "chunks must reassemble to the full response")
}
