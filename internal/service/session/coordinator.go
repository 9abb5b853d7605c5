package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/porchlabs/porch/pkg/log"
)

const maxRecentSessions = 10

// MemorySharer is what the coordinator needs from the memory store.
type MemorySharer interface {
	ShareAcrossSessions(ctx context.Context, userID, fromSessionID, toSessionID string) error
}

// Coordinator mints session ids and propagates memory between a user's
// prior and current session when cross-session sharing is requested. Its
// maps are process-wide state, so it is an explicit injectable component
// rather than package-level singletons.
type Coordinator struct {
	sharer MemorySharer

	mu     sync.Mutex
	recent map[string][]string // userID -> session ids, most recent first
	shared map[string]struct{} // "from\x00to" pairs already activated
}

func NewCoordinator(sharer MemorySharer) *Coordinator {
	return &Coordinator{
		sharer: sharer,
		recent: make(map[string][]string),
		shared: make(map[string]struct{}),
	}
}

// EnsureSession returns the provided id when non-empty, otherwise mints a
// new one. Either way the session is recorded as the user's most recent.
func (c *Coordinator) EnsureSession(providedID, userID string) string {
	sessionID := providedID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	c.mu.Lock()
	c.touch(userID, sessionID)
	c.mu.Unlock()

	return sessionID
}

// ActivateWithSharing copies memory from the user's most recent prior
// session into the given one, exactly once per session pair.
func (c *Coordinator) ActivateWithSharing(ctx context.Context, userID, sessionID string) {
	c.mu.Lock()
	prior := c.priorSession(userID, sessionID)
	if prior == "" {
		c.mu.Unlock()
		return
	}

	pairKey := prior + "\x00" + sessionID
	if _, done := c.shared[pairKey]; done {
		c.mu.Unlock()
		return
	}
	c.shared[pairKey] = struct{}{}
	c.mu.Unlock()

	// The share itself is idempotent too, so marking the pair before the
	// call can at worst skip a retry after a failed share.
	if err := c.sharer.ShareAcrossSessions(ctx, userID, prior, sessionID); err != nil {
		log.FromCtx(ctx).Warn().Err(err).
			Str("from", prior).
			Str("to", sessionID).
			Msg("cross-session memory share failed")
	}
}

// touch records the session as most recent, bounded to the last
// maxRecentSessions per user. Caller holds the lock.
func (c *Coordinator) touch(userID, sessionID string) {
	sessions := c.recent[userID]

	filtered := make([]string, 0, len(sessions)+1)
	filtered = append(filtered, sessionID)
	for _, s := range sessions {
		if s != sessionID {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) > maxRecentSessions {
		filtered = filtered[:maxRecentSessions]
	}
	c.recent[userID] = filtered
}

// priorSession returns the most recent session other than the current one.
// Caller holds the lock.
func (c *Coordinator) priorSession(userID, current string) string {
	for _, s := range c.recent[userID] {
		if s != current {
			return s
		}
	}
	return ""
}
