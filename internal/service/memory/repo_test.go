package memory

import (
	"context"
	"time"

	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/internal/core"
)

// memRepo is an in-memory MemoryRepository mirroring the sqlite
// implementation's read semantics, including expiry filtering and
// origin-based share dedup.
type memRepo struct {
	entries []core.MemoryEntry
	origins map[string]map[string]struct{} // originID -> session ids
	touched []string

	insertErr error
}

func newMemRepo() *memRepo {
	return &memRepo{origins: make(map[string]map[string]struct{})}
}

func (r *memRepo) Insert(_ context.Context, entry core.MemoryEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memRepo) InsertShared(ctx context.Context, entry core.MemoryEntry, originID string) error {
	sessions, ok := r.origins[originID]
	if !ok {
		sessions = make(map[string]struct{})
		r.origins[originID] = sessions
	}
	if _, dup := sessions[entry.SessionID]; dup {
		return nil
	}
	sessions[entry.SessionID] = struct{}{}
	return r.Insert(ctx, entry)
}

func (r *memRepo) GetBySession(_ context.Context, sessionID string, kind core.MemoryKind, limit int, now time.Time) ([]core.MemoryEntry, error) {
	var out []core.MemoryEntry
	for _, e := range r.entries {
		if e.SessionID == sessionID && e.Kind == kind && !e.Expired(now) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memRepo) GetByUser(_ context.Context, userID string, now time.Time) ([]core.MemoryEntry, error) {
	var out []core.MemoryEntry
	for _, e := range r.entries {
		if e.UserID == userID && !e.Expired(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) CountBySession(ctx context.Context, sessionID string, kind core.MemoryKind, now time.Time) (int, error) {
	entries, err := r.GetBySession(ctx, sessionID, kind, 0, now)
	return len(entries), err
}

func (r *memRepo) TouchUsed(_ context.Context, ids []string, now time.Time) error {
	r.touched = append(r.touched, ids...)
	for i := range r.entries {
		for _, id := range ids {
			if r.entries[i].ID == id {
				r.entries[i].LastUsedAt = now
			}
		}
	}
	return nil
}

func (r *memRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var kept []core.MemoryEntry
	var deleted int64
	for _, e := range r.entries {
		if e.Expired(now) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

func (r *memRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	var kept []core.MemoryEntry
	var deleted int64
	for _, e := range r.entries {
		if e.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

type memSummaries struct {
	byID map[string]core.ConversationSummary
}

func newMemSummaries() *memSummaries {
	return &memSummaries{byID: make(map[string]core.ConversationSummary)}
}

func (s *memSummaries) Upsert(_ context.Context, summary core.ConversationSummary) error {
	if prev, ok := s.byID[summary.SessionID]; ok && summary.GeneratedAt.Before(prev.GeneratedAt) {
		return nil
	}
	s.byID[summary.SessionID] = summary
	return nil
}

func (s *memSummaries) GetLatest(_ context.Context, sessionID string) (*core.ConversationSummary, error) {
	summary, ok := s.byID[sessionID]
	if !ok {
		return nil, nil
	}
	return &summary, nil
}

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		DefaultUserID:      "demo-user",
		ContextWindowSize:  12,
		ContextTokenBudget: 2000,
		MemoryTTL:          168 * time.Hour,
		SummaryThreshold:   10,
	}
}

func newTestStore() (*Store, *memRepo, *memSummaries) {
	repo := newMemRepo()
	summaries := newMemSummaries()
	return NewStore(testAppConfig(), repo, summaries), repo, summaries
}
