package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/pkg/log"
)

const (
	// Relevance decays with an e-folding time of one week.
	recencyHalfLifeHours = 168.0

	maxToolResults = 5
)

// GetRelevantContext assembles everything the dispatcher needs for one
// query: recent conversation turns, relevance-ranked memories across the
// user's full history, recent tool results, the session summary, and the
// derived profile. Expired entries never appear here; the repository
// filters them on read.
func (s *Store) GetRelevantContext(ctx context.Context, userID, sessionID, queryText string, limit int) (core.RelevantContext, error) {
	logger := log.FromCtx(ctx)
	now := s.now()

	recent, err := s.repo.GetBySession(ctx, sessionID, core.KindConversation, s.cfg.ContextWindowSize, now)
	if err != nil {
		return core.RelevantContext{}, err
	}

	all, err := s.repo.GetByUser(ctx, userID, now)
	if err != nil {
		return core.RelevantContext{}, err
	}

	seen := make(map[string]struct{}, len(recent))
	for _, e := range recent {
		seen[e.ID] = struct{}{}
	}

	queryTerms := tokenize(queryText)

	type scored struct {
		entry core.MemoryEntry
		score float64
	}

	var candidates []scored
	var toolResults []core.MemoryEntry
	for _, e := range all {
		if e.Kind == core.KindToolResult && e.SessionID == sessionID && len(toolResults) < maxToolResults {
			toolResults = append(toolResults, e)
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		candidates = append(candidates, scored{entry: e, score: scoreEntry(e, queryTerms, now)})
	}

	// Higher score first; ties broken by recency.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.CreatedAt.After(candidates[j].entry.CreatedAt)
	})

	if limit <= 0 {
		limit = 5
	}
	relevant := make([]core.MemoryEntry, 0, limit)
	for _, c := range candidates {
		if len(relevant) == limit {
			break
		}
		relevant = append(relevant, c.entry)
	}

	// Everything surfaced counts as reused: recent turns, ranked memories
	// and tool results all get the refresh. Best-effort; a failed touch
	// never blocks the read.
	touched := make([]string, 0, len(recent)+len(relevant)+len(toolResults))
	touchSeen := make(map[string]struct{})
	for _, group := range [][]core.MemoryEntry{recent, relevant, toolResults} {
		for _, e := range group {
			if _, dup := touchSeen[e.ID]; dup {
				continue
			}
			touchSeen[e.ID] = struct{}{}
			touched = append(touched, e.ID)
		}
	}
	if err := s.repo.TouchUsed(ctx, touched, now); err != nil {
		logger.Warn().Err(err).Msg("failed to refresh memory usage")
	}

	summary, err := s.summaries.GetLatest(ctx, sessionID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load conversation summary")
		summary = nil
	}

	return core.RelevantContext{
		RecentContext:    recent,
		RelevantMemories: relevant,
		ToolResults:      toolResults,
		Summary:          summary,
		Profile:          buildProfile(userID, all),
	}, nil
}

// scoreEntry ranks by importance*confidence*recencyDecay, biased up by
// lexical overlap with the query. Any monotonic combination works; this one
// keeps each factor in [0,1] so the bias term dominates only on real
// keyword matches.
func scoreEntry(e core.MemoryEntry, queryTerms []string, now time.Time) float64 {
	ageHours := now.Sub(e.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	decay := math.Exp(-ageHours / recencyHalfLifeHours)

	return float64(e.Importance) / 10.0 * e.Confidence * decay * (1.0 + lexicalOverlap(queryTerms, e.Content))
}

func lexicalOverlap(queryTerms []string, content string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	hits := 0
	for _, term := range queryTerms {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTerms))
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "what": {}, "whats": {},
	"about": {}, "tell": {}, "can": {}, "you": {}, "how": {}, "are": {},
	"this": {}, "that": {}, "was": {}, "have": {}, "from": {},
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	var terms []string
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
