package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlabs/porch/internal/core"
)

func seedConversation(t *testing.T, store *Store, sessionID string, lines []string) {
	t.Helper()
	for _, line := range lines {
		_, err := store.Save(context.Background(), "u1", sessionID, line,
			core.KindConversation, DefaultAttributes(), core.SourceMain)
		require.NoError(t, err)
	}
}

func TestMaybeSummarizeBelowThreshold(t *testing.T) {
	store, _, summaries := newTestStore()
	s := NewSummarizer(store, summaries, nil, 10)

	seedConversation(t, store, "s1", []string{
		"user: hello",
		"assistant: hi, how can I help with your portfolio?",
	})

	s.MaybeSummarize(context.Background(), "s1")

	assert.Empty(t, summaries.byID, "no summary below the message threshold")
}

func TestMaybeSummarizeAtThreshold(t *testing.T) {
	store, _, summaries := newTestStore()
	s := NewSummarizer(store, summaries, nil, 4)

	seedConversation(t, store, "s1", []string{
		"user: how is the rental market trending?",
		"assistant: inventory is tight and pricing is firm.",
		"user: ok, we decided to hold the Maple Street duplex.",
		"assistant: noted. Need to revisit the cap rate next quarter.",
	})

	s.MaybeSummarize(context.Background(), "s1")

	summary, ok := summaries.byID["s1"]
	require.True(t, ok, "threshold reached, summary must be stored")
	assert.Contains(t, summary.KeyTopics, "market")
	require.NotEmpty(t, summary.Decisions)
	assert.Contains(t, summary.Decisions[0], "decided to hold")
	require.NotEmpty(t, summary.ActionItems)
	assert.Contains(t, summary.ActionItems[0], "Need to revisit")
}

func TestSummarizeDeduplicatesRepeatedLines(t *testing.T) {
	store, _, summaries := newTestStore()
	s := NewSummarizer(store, summaries, nil, 2)

	entries := []core.MemoryEntry{
		{Content: "We decided to refinance."},
		{Content: "we decided to refinance."},
	}

	summary := s.Summarize(context.Background(), "s1", entries)
	assert.Len(t, summary.Decisions, 1)
}

func TestSummarizeAlwaysUsable(t *testing.T) {
	store, _, summaries := newTestStore()
	s := NewSummarizer(store, summaries, nil, 2)

	summary := s.Summarize(context.Background(), "s1", nil)

	assert.Equal(t, "s1", summary.SessionID)
	assert.WithinDuration(t, time.Now(), summary.GeneratedAt, time.Second)
	assert.Empty(t, summary.KeyTopics)
}

type slowProvider struct{ calls int }

func (p *slowProvider) Complete(ctx context.Context, _ []core.Message, _ core.CompletionOptions) (string, error) {
	p.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSummarizeProviderFailureFallsBack(t *testing.T) {
	store, _, summaries := newTestStore()
	provider := &slowProvider{}
	s := NewSummarizer(store, summaries, provider, 2)

	entries := []core.MemoryEntry{
		{Content: "user: what is the market doing?"},
		{Content: "assistant: market demand is up."},
	}

	summary := s.Summarize(context.Background(), "s1", entries)

	assert.Equal(t, 1, provider.calls)
	assert.Contains(t, summary.KeyTopics, "market",
		"deterministic extraction must survive a provider timeout")
}

type cannedProvider struct{ response string }

func (p *cannedProvider) Complete(_ context.Context, _ []core.Message, _ core.CompletionOptions) (string, error) {
	return p.response, nil
}

func TestSummarizeProviderTopicsWin(t *testing.T) {
	store, _, summaries := newTestStore()
	provider := &cannedProvider{response: "- refinancing options\n- duplex valuation\n"}
	s := NewSummarizer(store, summaries, provider, 2)

	summary := s.Summarize(context.Background(), "s1", []core.MemoryEntry{
		{Content: "user: thoughts on the market?"},
	})

	assert.Equal(t, []string{"refinancing options", "duplex valuation"}, summary.KeyTopics)
}
