package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porchlabs/porch/internal/core"
)

func TestIntegrateStoresStructuredToolResult(t *testing.T) {
	store, _, _ := newTestStore()
	integrator := NewIntegrator(store)

	entry, err := integrator.Integrate(context.Background(), "u1", "s1",
		"comps_lookup", "3 comps found near Maple St", core.SourceFloating)

	require.NoError(t, err)
	assert.Equal(t, core.KindToolResult, entry.Kind)
	assert.Equal(t, core.SourceFloating, entry.SourceInterface)
	require.NotNil(t, entry.ExpiresAt, "tool results are short-lived")

	var tc core.ToolContext
	require.NoError(t, json.Unmarshal([]byte(entry.Content), &tc))
	assert.Equal(t, "comps_lookup", tc.ToolName)
	assert.Equal(t, "3 comps found near Maple St", tc.Result)
	assert.Equal(t, core.SourceFloating, tc.SourceInterface)
	assert.False(t, tc.Timestamp.IsZero())
}

func TestIntegrateAttributableAcrossInterfaces(t *testing.T) {
	store, repo, _ := newTestStore()
	integrator := NewIntegrator(store)
	ctx := context.Background()

	_, err := integrator.Integrate(ctx, "u1", "s1", "valuation", "est. $420k", core.SourceMain)
	require.NoError(t, err)
	_, err = integrator.Integrate(ctx, "u1", "s1", "valuation", "est. $425k", core.SourceFloating)
	require.NoError(t, err)

	require.Len(t, repo.entries, 2)
	assert.NotEqual(t, repo.entries[0].SourceInterface, repo.entries[1].SourceInterface,
		"both surfaces stay visible and attributable")
}
