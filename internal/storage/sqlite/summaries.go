package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/pkg/retry"
)

type SummariesRepo struct {
	db      *sql.DB
	retrier *retry.Retrier
}

func NewSummariesRepo(db *sql.DB) *SummariesRepo {
	return &SummariesRepo{
		db:      db,
		retrier: retry.NewRetrier(retry.NewWriteConfig()),
	}
}

// Upsert replaces the session's summary. The generated_at guard keeps the
// stored summary monotonic even if two summarize runs race.
func (r *SummariesRepo) Upsert(ctx context.Context, summary core.ConversationSummary) error {
	topics, err := json.Marshal(summary.KeyTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal topics: %w", err)
	}
	decisions, err := json.Marshal(summary.Decisions)
	if err != nil {
		return fmt.Errorf("failed to marshal decisions: %w", err)
	}
	actions, err := json.Marshal(summary.ActionItems)
	if err != nil {
		return fmt.Errorf("failed to marshal action items: %w", err)
	}

	query := `INSERT INTO summaries (session_id, key_topics, decisions, action_items, generated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			key_topics = excluded.key_topics,
			decisions = excluded.decisions,
			action_items = excluded.action_items,
			generated_at = excluded.generated_at
		WHERE excluded.generated_at >= summaries.generated_at`

	return r.retrier.Do(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			summary.SessionID, string(topics), string(decisions), string(actions), summary.GeneratedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert summary: %w", err)
		}
		return nil
	})
}

func (r *SummariesRepo) GetLatest(ctx context.Context, sessionID string) (*core.ConversationSummary, error) {
	query := `SELECT key_topics, decisions, action_items, generated_at FROM summaries WHERE session_id = ?`

	var topics, decisions, actions string
	s := core.ConversationSummary{SessionID: sessionID}

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&topics, &decisions, &actions, &s.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}

	if err := json.Unmarshal([]byte(topics), &s.KeyTopics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
	}
	if err := json.Unmarshal([]byte(decisions), &s.Decisions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decisions: %w", err)
	}
	if err := json.Unmarshal([]byte(actions), &s.ActionItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action items: %w", err)
	}

	return &s, nil
}
