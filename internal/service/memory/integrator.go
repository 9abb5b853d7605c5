package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/porchlabs/porch/internal/core"
)

// Integrator records side-tool results into memory as structured
// tool_result entries, tagged with the interface they came from. Two
// surfaces writing tool context for the same session both stay visible and
// attributable.
type Integrator struct {
	store *Store
}

func NewIntegrator(store *Store) *Integrator {
	return &Integrator{store: store}
}

func (i *Integrator) Integrate(ctx context.Context, userID, sessionID, toolName, result, sourceInterface string) (core.MemoryEntry, error) {
	tc := core.ToolContext{
		ToolName:        toolName,
		Result:          result,
		SourceInterface: sourceInterface,
		Timestamp:       i.store.now(),
	}

	payload, err := json.Marshal(tc)
	if err != nil {
		return core.MemoryEntry{}, fmt.Errorf("encode tool context: %w", err)
	}

	return i.store.Save(ctx, userID, sessionID, string(payload), core.KindToolResult,
		Attributes{Importance: 6, Confidence: 0.9}, sourceInterface)
}
