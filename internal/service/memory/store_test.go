package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlabs/porch/internal/core"
)

func TestSaveAppliesDefaults(t *testing.T) {
	store, repo, _ := newTestStore()

	entry, err := store.Save(context.Background(), "u1", "s1", "prefers duplexes",
		core.KindFact, Attributes{Importance: 99, Confidence: -2}, core.SourceMain)

	require.NoError(t, err)
	assert.Equal(t, 5, entry.Importance, "out-of-range importance falls back to default")
	assert.Equal(t, 0.8, entry.Confidence, "out-of-range confidence falls back to default")
	assert.NotEmpty(t, entry.ID)
	assert.Len(t, repo.entries, 1)
}

func TestSaveRejectsEmptyContent(t *testing.T) {
	store, repo, _ := newTestStore()

	_, err := store.Save(context.Background(), "u1", "s1", "  \n\t ",
		core.KindConversation, DefaultAttributes(), core.SourceMain)

	assert.ErrorIs(t, err, core.ErrEmptyMessage)
	assert.Empty(t, repo.entries)
}

func TestSaveExpirySetByKind(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	tests := []struct {
		kind    core.MemoryKind
		expires bool
	}{
		{core.KindConversation, true},
		{core.KindToolResult, true},
		{core.KindPreference, false},
		{core.KindFact, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			entry, err := store.Save(ctx, "u1", "s1", "content", tt.kind, DefaultAttributes(), core.SourceMain)
			require.NoError(t, err)
			if tt.expires {
				require.NotNil(t, entry.ExpiresAt)
				assert.WithinDuration(t, entry.CreatedAt.Add(168*time.Hour), *entry.ExpiresAt, time.Second)
			} else {
				assert.Nil(t, entry.ExpiresAt)
			}
		})
	}
}

func TestTurnAttributes(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		importance int
	}{
		{"stated preference", "I prefer cash-flow positive properties", 8},
		{"style preference", "keep answers short please", 8},
		{"on-topic question", "what's the cap rate trend on my duplex?", 7},
		{"financial question", "can you model the mortgage and cash flow?", 7},
		{"generic chatter", "hey, how are you doing today", 5},
		{"empty-ish", "ok", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := TurnAttributes(tt.content)
			assert.Equal(t, tt.importance, attrs.Importance)
			if tt.importance >= shareImportanceMin {
				assert.GreaterOrEqual(t, attrs.Importance, shareImportanceMin,
					"substantial turns must be eligible for cross-session sharing")
			}
		})
	}
}

func TestShareAcrossSessionsCopiesImportantOnly(t *testing.T) {
	store, repo, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Save(ctx, "u1", "old", "prefers cash-flow positive properties",
		core.KindPreference, Attributes{Importance: 8, Confidence: 0.9}, core.SourceMain)
	require.NoError(t, err)
	_, err = store.Save(ctx, "u1", "old", "small talk about the weather",
		core.KindConversation, Attributes{Importance: 3, Confidence: 0.9}, core.SourceMain)
	require.NoError(t, err)

	require.NoError(t, store.ShareAcrossSessions(ctx, "u1", "old", "new"))

	var inNew []core.MemoryEntry
	for _, e := range repo.entries {
		if e.SessionID == "new" {
			inNew = append(inNew, e)
		}
	}
	require.Len(t, inNew, 1, "only entries at or above the importance threshold travel")
	assert.Equal(t, core.KindPreference, inNew[0].Kind)
	assert.Len(t, repo.entries, 3, "sharing copies, never moves")
}

func TestShareAcrossSessionsIsIdempotent(t *testing.T) {
	store, repo, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Save(ctx, "u1", "old", "important fact",
		core.KindFact, Attributes{Importance: 9, Confidence: 0.9}, core.SourceMain)
	require.NoError(t, err)

	require.NoError(t, store.ShareAcrossSessions(ctx, "u1", "old", "new"))
	require.NoError(t, store.ShareAcrossSessions(ctx, "u1", "old", "new"))

	assert.Len(t, repo.entries, 2, "re-sharing the same pair must not duplicate entries")
}

func TestShareAcrossSessionsNoopCases(t *testing.T) {
	store, repo, _ := newTestStore()
	ctx := context.Background()

	assert.NoError(t, store.ShareAcrossSessions(ctx, "u1", "", "new"))
	assert.NoError(t, store.ShareAcrossSessions(ctx, "u1", "same", "same"))
	assert.Empty(t, repo.entries)
}

func TestDeleteExpired(t *testing.T) {
	store, repo, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Save(ctx, "u1", "s1", "short-lived turn", core.KindConversation, DefaultAttributes(), core.SourceMain)
	require.NoError(t, err)
	_, err = store.Save(ctx, "u1", "s1", "durable fact", core.KindFact, DefaultAttributes(), core.SourceMain)
	require.NoError(t, err)

	// Jump past the TTL.
	store.now = func() time.Time { return time.Now().Add(200 * time.Hour) }

	deleted, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, core.KindFact, repo.entries[0].Kind)
}

func TestClearUser(t *testing.T) {
	store, repo, _ := newTestStore()
	ctx := context.Background()

	for _, user := range []string{"u1", "u1", "u2"} {
		_, err := store.Save(ctx, user, "s1", "content", core.KindFact, DefaultAttributes(), core.SourceMain)
		require.NoError(t, err)
	}

	deleted, err := store.ClearUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "u2", repo.entries[0].UserID)
}

func TestStats(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Save(ctx, "u1", "s1", "turn one", core.KindConversation, DefaultAttributes(), core.SourceMain)
	require.NoError(t, err)
	_, err = store.Save(ctx, "u1", "s2", "a fact", core.KindFact, DefaultAttributes(), core.SourceMain)
	require.NoError(t, err)

	stats, err := store.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ByKind[core.KindConversation])
	assert.Equal(t, 1, stats.ByKind[core.KindFact])
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 0, stats.ExpiringSoon, "a week-long TTL is not expiring soon")
}
