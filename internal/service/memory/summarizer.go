package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/porchlabs/porch/internal/core"
	"github.com/porchlabs/porch/internal/service/intent"
	"github.com/porchlabs/porch/pkg/log"
)

const providerSummaryTimeout = 2 * time.Second

// Summarizer compresses a session's visible history once it crosses the
// message threshold. Extraction is deterministic; when a provider is
// configured it is consulted best-effort for key topics with a short
// timeout, and its failure never blocks anything.
type Summarizer struct {
	store     *Store
	summaries core.SummaryRepository
	provider  core.CompletionProvider // optional
	threshold int
	now       func() time.Time
}

func NewSummarizer(store *Store, summaries core.SummaryRepository, provider core.CompletionProvider, threshold int) *Summarizer {
	return &Summarizer{
		store:     store,
		summaries: summaries,
		provider:  provider,
		threshold: threshold,
		now:       time.Now,
	}
}

// MaybeSummarize regenerates the session summary when the visible message
// count has reached the threshold. Later summaries supersede earlier ones.
func (s *Summarizer) MaybeSummarize(ctx context.Context, sessionID string) {
	logger := log.FromCtx(ctx)

	count, err := s.store.repo.CountBySession(ctx, sessionID, core.KindConversation, s.now())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to count session messages")
		return
	}
	if count < s.threshold {
		return
	}

	entries, err := s.store.repo.GetBySession(ctx, sessionID, core.KindConversation, s.threshold*2, s.now())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load session messages for summary")
		return
	}

	summary := s.Summarize(ctx, sessionID, entries)
	if err := s.summaries.Upsert(ctx, summary); err != nil {
		logger.Warn().Err(err).Msg("failed to store conversation summary")
		return
	}

	logger.Debug().
		Str("session", sessionID).
		Int("topics", len(summary.KeyTopics)).
		Msg("conversation summarized")
}

// Summarize extracts topics, decisions, and action items from the given
// entries. It always returns a usable summary.
func (s *Summarizer) Summarize(ctx context.Context, sessionID string, entries []core.MemoryEntry) core.ConversationSummary {
	summary := core.ConversationSummary{
		SessionID:   sessionID,
		KeyTopics:   extractTopics(entries),
		Decisions:   extractByPatterns(entries, decisionPatterns),
		ActionItems: extractByPatterns(entries, actionPatterns),
		GeneratedAt: s.now(),
	}

	if s.provider != nil {
		if topics := s.providerTopics(ctx, entries); len(topics) > 0 {
			summary.KeyTopics = topics
		}
	}

	return summary
}

// providerTopics asks the completion provider for a topic list. Best-effort
// only: any error or timeout falls back to the deterministic extraction.
func (s *Summarizer) providerTopics(ctx context.Context, entries []core.MemoryEntry) []string {
	ctx, cancel := context.WithTimeout(ctx, providerSummaryTimeout)
	defer cancel()

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Content)
		b.WriteByte('\n')
	}

	resp, err := s.provider.Complete(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "List the key topics of this conversation, one per line, max five. Output only the topics."},
		{Role: core.RoleUser, Content: b.String()},
	}, core.CompletionOptions{MaxTokens: 100})
	if err != nil {
		log.FromCtx(ctx).Debug().Err(err).Msg("provider summary skipped")
		return nil
	}

	var topics []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line != "" && len(topics) < 5 {
			topics = append(topics, line)
		}
	}
	return topics
}

func extractTopics(entries []core.MemoryEntry) []string {
	counts := make(map[intent.Category]int)
	for _, e := range entries {
		cat := intent.Classify(e.Content)
		if cat != intent.CategoryGeneral {
			counts[cat]++
		}
	}

	topics := make([]string, 0, len(counts))
	for cat := range counts {
		topics = append(topics, string(cat))
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[intent.Category(topics[i])] != counts[intent.Category(topics[j])] {
			return counts[intent.Category(topics[i])] > counts[intent.Category(topics[j])]
		}
		return topics[i] < topics[j]
	})
	return topics
}

var decisionPatterns = []string{
	"we will", "decided to", "let's go with", "agreed to", "going with",
	"the plan is",
}

var actionPatterns = []string{
	"need to", "todo", "to-do", "follow up", "remind me", "action item",
	"next step", "don't forget",
}

func extractByPatterns(entries []core.MemoryEntry, patterns []string) []string {
	var matches []string
	seen := make(map[string]struct{})

	for _, e := range entries {
		for _, sentence := range splitSentences(e.Content) {
			lower := strings.ToLower(sentence)
			for _, p := range patterns {
				if strings.Contains(lower, p) {
					if _, dup := seen[lower]; !dup {
						seen[lower] = struct{}{}
						matches = append(matches, sentence)
					}
					break
				}
			}
		}
	}
	return matches
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, strings.TrimRight(s, ".!?\n"))
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
