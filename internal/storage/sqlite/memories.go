package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/pkg/retry"
)

const notExpired = `(expires_at IS NULL OR expires_at > ?)`

type MemoriesRepo struct {
	db      *sql.DB
	retrier *retry.Retrier
}

func NewMemoriesRepo(db *sql.DB) *MemoriesRepo {
	return &MemoriesRepo{
		db:      db,
		retrier: retry.NewRetrier(retry.NewWriteConfig()),
	}
}

func (r *MemoriesRepo) Insert(ctx context.Context, entry core.MemoryEntry) error {
	query := `INSERT INTO memories
		(id, user_id, session_id, kind, content, importance, confidence, source_interface, created_at, expires_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return r.retrier.Do(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			entry.ID, entry.UserID, entry.SessionID, string(entry.Kind), entry.Content,
			entry.Importance, entry.Confidence, entry.SourceInterface,
			entry.CreatedAt, nullTime(entry.ExpiresAt), entry.LastUsedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert memory: %w", err)
		}
		return nil
	})
}

// InsertShared copies an entry into another session. The partial unique
// index on (origin_id, session_id) makes re-sharing a no-op.
func (r *MemoriesRepo) InsertShared(ctx context.Context, entry core.MemoryEntry, originID string) error {
	query := `INSERT INTO memories
		(id, user_id, session_id, kind, content, importance, confidence, source_interface, origin_id, created_at, expires_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(origin_id, session_id) WHERE origin_id IS NOT NULL DO NOTHING`

	return r.retrier.Do(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			entry.ID, entry.UserID, entry.SessionID, string(entry.Kind), entry.Content,
			entry.Importance, entry.Confidence, entry.SourceInterface, originID,
			entry.CreatedAt, nullTime(entry.ExpiresAt), entry.LastUsedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert shared memory: %w", err)
		}
		return nil
	})
}

func (r *MemoriesRepo) GetBySession(ctx context.Context, sessionID string, kind core.MemoryKind, limit int, now time.Time) ([]core.MemoryEntry, error) {
	// Fetch the LAST 'limit' entries by ordering DESC, then reverse back to
	// chronological order for the prompt.
	query := `SELECT ` + entryColumns + ` FROM memories
		WHERE session_id = ? AND kind = ? AND ` + notExpired + `
		ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sessionID, string(kind), now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session memories: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (r *MemoriesRepo) GetByUser(ctx context.Context, userID string, now time.Time) ([]core.MemoryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM memories
		WHERE user_id = ? AND ` + notExpired + `
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query user memories: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *MemoriesRepo) CountBySession(ctx context.Context, sessionID string, kind core.MemoryKind, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM memories WHERE session_id = ? AND kind = ? AND ` + notExpired

	var count int
	if err := r.db.QueryRowContext(ctx, query, sessionID, string(kind), now).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count session memories: %w", err)
	}
	return count, nil
}

// TouchUsed refreshes last_used_at and nudges confidence on reuse, capped
// at 1.0.
func (r *MemoriesRepo) TouchUsed(ctx context.Context, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	query := `UPDATE memories SET last_used_at = ?, confidence = MIN(confidence + 0.02, 1.0) WHERE id IN (` + placeholders + `)`

	args := make([]any, 0, len(ids)+1)
	args = append(args, now)
	for _, id := range ids {
		args = append(args, id)
	}

	return r.retrier.Do(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query, args...)
		return err
	})
}

func (r *MemoriesRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memories WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired memories: %w", err)
	}
	return res.RowsAffected()
}

func (r *MemoriesRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memories WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user memories: %w", err)
	}
	return res.RowsAffected()
}

const entryColumns = `id, user_id, session_id, kind, content, importance, confidence, source_interface, created_at, expires_at, last_used_at`

func scanEntries(rows *sql.Rows) ([]core.MemoryEntry, error) {
	var entries []core.MemoryEntry
	for rows.Next() {
		var e core.MemoryEntry
		var kind string
		var expiresAt sql.NullTime

		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &kind, &e.Content,
			&e.Importance, &e.Confidence, &e.SourceInterface,
			&e.CreatedAt, &expiresAt, &e.LastUsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}

		e.Kind = core.MemoryKind(kind)
		if expiresAt.Valid {
			t := expiresAt.Time
			e.ExpiresAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
