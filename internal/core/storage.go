package core

import (
	"context"
	"time"
)

// MemoryRepository is the durable store behind the memory service. All read
// queries take a now argument and must never surface expired rows,
// regardless of sweep timing.
type MemoryRepository interface {
	Insert(ctx context.Context, entry MemoryEntry) error
	// InsertShared copies an entry into another session, deduplicated by
	// the origin entry's id; re-sharing the same entry is a no-op.
	InsertShared(ctx context.Context, entry MemoryEntry, originID string) error
	GetBySession(ctx context.Context, sessionID string, kind MemoryKind, limit int, now time.Time) ([]MemoryEntry, error)
	GetByUser(ctx context.Context, userID string, now time.Time) ([]MemoryEntry, error)
	CountBySession(ctx context.Context, sessionID string, kind MemoryKind, now time.Time) (int, error)
	TouchUsed(ctx context.Context, ids []string, now time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type SummaryRepository interface {
	Upsert(ctx context.Context, summary ConversationSummary) error
	GetLatest(ctx context.Context, sessionID string) (*ConversationSummary, error)
}
