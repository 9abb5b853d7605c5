package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/porchlabs/porch/internal/config"
	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/internal/service/intent"
	"github.com/porchlabs/porch/pkg/log"
)

const (
	defaultImportance = 5
	defaultConfidence = 0.8

	// Entries at or above this importance travel across sessions.
	shareImportanceMin = 7
)

// Attributes are the optional quality signals on a write. Out-of-range
// values are corrected with defaults rather than rejected: the write path
// must never fail because a caller sent a sloppy score.
type Attributes struct {
	Importance int
	Confidence float64
}

func DefaultAttributes() Attributes {
	return Attributes{Importance: defaultImportance, Confidence: defaultConfidence}
}

func (a Attributes) normalized() Attributes {
	if a.Importance < 0 || a.Importance > 10 {
		a.Importance = defaultImportance
	}
	if a.Confidence <= 0 || a.Confidence > 1 {
		a.Confidence = defaultConfidence
	}
	return a
}

// TurnAttributes scores a user turn for storage. Stated preferences and
// on-topic questions score at or above the cross-session share threshold;
// generic chatter stays at the default and never travels.
func TurnAttributes(content string) Attributes {
	switch {
	case looksLikePreference(content):
		return Attributes{Importance: 8, Confidence: 0.9}
	case intent.Classify(content) != intent.CategoryGeneral:
		return Attributes{Importance: shareImportanceMin, Confidence: defaultConfidence}
	default:
		return DefaultAttributes()
	}
}

var preferenceMarkers = []string{
	"i prefer", "i like", "i always", "i never", "i want", "i'd rather",
	"my goal", "keep answers", "call me",
}

func looksLikePreference(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range preferenceMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

type Store struct {
	cfg       *config.AppConfig
	repo      core.MemoryRepository
	summaries core.SummaryRepository
	now       func() time.Time
}

func NewStore(cfg *config.AppConfig, repo core.MemoryRepository, summaries core.SummaryRepository) *Store {
	return &Store{
		cfg:       cfg,
		repo:      repo,
		summaries: summaries,
		now:       time.Now,
	}
}

// Save writes one memory entry. Conversation and tool-result entries are
// short-lived and carry an expiry; preferences and facts are durable.
func (s *Store) Save(ctx context.Context, userID, sessionID, content string, kind core.MemoryKind, attrs Attributes, sourceInterface string) (core.MemoryEntry, error) {
	if strings.TrimSpace(content) == "" {
		return core.MemoryEntry{}, core.ErrEmptyMessage
	}

	attrs = attrs.normalized()
	now := s.now()

	entry := core.MemoryEntry{
		ID:              uuid.NewString(),
		UserID:          userID,
		SessionID:       sessionID,
		Kind:            kind,
		Content:         content,
		Importance:      attrs.Importance,
		Confidence:      attrs.Confidence,
		SourceInterface: sourceInterface,
		CreatedAt:       now,
		LastUsedAt:      now,
	}

	if kind == core.KindConversation || kind == core.KindToolResult {
		expires := now.Add(s.cfg.MemoryTTL)
		entry.ExpiresAt = &expires
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return core.MemoryEntry{}, fmt.Errorf("save memory: %w", err)
	}
	return entry, nil
}

// ShareAcrossSessions copies (never moves) high-importance entries from one
// session into another. The repository dedupes on the origin entry id, so
// re-sharing the same pair is a no-op.
func (s *Store) ShareAcrossSessions(ctx context.Context, userID, fromSessionID, toSessionID string) error {
	if fromSessionID == "" || fromSessionID == toSessionID {
		return nil
	}

	entries, err := s.repo.GetByUser(ctx, userID, s.now())
	if err != nil {
		return fmt.Errorf("share memories: %w", err)
	}

	shared := 0
	for _, e := range entries {
		if e.SessionID != fromSessionID || e.Importance < shareImportanceMin {
			continue
		}

		cp := e
		cp.ID = uuid.NewString()
		cp.SessionID = toSessionID
		if err := s.repo.InsertShared(ctx, cp, e.ID); err != nil {
			return fmt.Errorf("share memories: %w", err)
		}
		shared++
	}

	log.FromCtx(ctx).Debug().
		Str("from", fromSessionID).
		Str("to", toSessionID).
		Int("count", shared).
		Msg("shared memories across sessions")
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

// ClearUser irreversibly drops everything stored for a user.
func (s *Store) ClearUser(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}

func (s *Store) Stats(ctx context.Context, userID string) (core.MemoryStats, error) {
	entries, err := s.repo.GetByUser(ctx, userID, s.now())
	if err != nil {
		return core.MemoryStats{}, fmt.Errorf("memory stats: %w", err)
	}

	stats := core.MemoryStats{
		UserID: userID,
		ByKind: make(map[core.MemoryKind]int),
	}

	sessions := make(map[string]struct{})
	soon := s.now().Add(24 * time.Hour)
	for _, e := range entries {
		stats.TotalEntries++
		stats.ByKind[e.Kind]++
		sessions[e.SessionID] = struct{}{}
		if e.ExpiresAt != nil && e.ExpiresAt.Before(soon) {
			stats.ExpiringSoon++
		}
	}
	stats.Sessions = len(sessions)

	return stats, nil
}
