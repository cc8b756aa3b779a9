package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workspacetypes "github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

func TestMergeHistoryAndStream_CopiesResponseByPrompt(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	historical := []workspacetypes.Chat{
		{ID: "db-1", Prompt: "add an ingress", CreatedAt: createdAt, RevisionNumber: 3},
	}
	streaming := []workspacetypes.Chat{
		{ID: "client-1", Prompt: "add an ingress", Response: "Added an ingress template.", IsComplete: true, IsIntentComplete: true},
	}

	merged := MergeHistoryAndStream(historical, streaming)

	require.Len(t, merged, 1)
	assert.Equal(t, "db-1", merged[0].ID)
	assert.Equal(t, "Added an ingress template.", merged[0].Response)
	assert.True(t, merged[0].IsComplete)
	assert.True(t, merged[0].IsIntentComplete)

	// historical fields other than the copied ones are preserved
	assert.Equal(t, createdAt, merged[0].CreatedAt)
	assert.Equal(t, 3, merged[0].RevisionNumber)
}

func TestMergeHistoryAndStream_PromptMatchIsTrimmed(t *testing.T) {
	historical := []workspacetypes.Chat{{ID: "db-1", Prompt: "  add an ingress  "}}
	streaming := []workspacetypes.Chat{{ID: "client-1", Prompt: "add an ingress", Response: "done"}}

	merged := MergeHistoryAndStream(historical, streaming)
	require.Len(t, merged, 1)
	assert.Equal(t, "done", merged[0].Response)
}

func TestMergeHistoryAndStream_NoDuplicateIDs(t *testing.T) {
	historical := []workspacetypes.Chat{
		{ID: "db-1", Prompt: "first", Response: "first response"},
		{ID: "shared", Prompt: "second", Response: "second response"},
	}
	streaming := []workspacetypes.Chat{
		{ID: "shared", Prompt: "second", Response: "stale copy"},
		{ID: "client-3", Prompt: "third", Response: "third response"},
	}

	merged := MergeHistoryAndStream(historical, streaming)

	seen := map[string]int{}
	for _, turn := range merged {
		seen[turn.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "id %s appears %d times", id, count)
	}

	// the historical copy wins for the shared id
	require.Len(t, merged, 3)
	assert.Equal(t, "second response", merged[1].Response)
}

func TestMergeHistoryAndStream_OrderIsHistoricalFirst(t *testing.T) {
	historical := []workspacetypes.Chat{
		{ID: "db-1", Prompt: "a", Response: "ra"},
		{ID: "db-2", Prompt: "b", Response: "rb"},
	}
	streaming := []workspacetypes.Chat{
		{ID: "client-1", Prompt: "c", Response: "rc"},
		{ID: "client-2", Prompt: "d", Response: "rd"},
	}

	merged := MergeHistoryAndStream(historical, streaming)

	require.Len(t, merged, 4)
	assert.Equal(t, []string{"db-1", "db-2", "client-1", "client-2"}, []string{merged[0].ID, merged[1].ID, merged[2].ID, merged[3].ID})
}

func TestMergeHistoryAndStream_MergedPromptNotAppended(t *testing.T) {
	// the streaming turn that filled in a historical response must not
	// also show up as its own entry
	historical := []workspacetypes.Chat{{ID: "db-1", Prompt: "add an ingress"}}
	streaming := []workspacetypes.Chat{
		{ID: "client-1", Prompt: "add an ingress", Response: "done"},
	}

	merged := MergeHistoryAndStream(historical, streaming)
	require.Len(t, merged, 1)
}

func TestMergeHistoryAndStream_StreamingWithoutResponseNotMatched(t *testing.T) {
	historical := []workspacetypes.Chat{{ID: "db-1", Prompt: "add an ingress"}}
	streaming := []workspacetypes.Chat{
		{ID: "client-1", Prompt: "add an ingress"},
	}

	merged := MergeHistoryAndStream(historical, streaming)

	require.Len(t, merged, 2)
	assert.Empty(t, merged[0].Response)
	assert.Equal(t, "client-1", merged[1].ID)
}

func TestMergeHistoryAndStream_HistoricalWithResponseUntouched(t *testing.T) {
	historical := []workspacetypes.Chat{
		{ID: "db-1", Prompt: "add an ingress", Response: "persisted response", IsComplete: true},
	}
	streaming := []workspacetypes.Chat{
		{ID: "client-1", Prompt: "add an ingress", Response: "newer but irrelevant"},
	}

	merged := MergeHistoryAndStream(historical, streaming)

	require.Len(t, merged, 2)
	assert.Equal(t, "persisted response", merged[0].Response)
}

func TestMergeHistoryAndStream_EmptyInputs(t *testing.T) {
	assert.Empty(t, MergeHistoryAndStream(nil, nil))

	streaming := []workspacetypes.Chat{{ID: "client-1", Prompt: "a", Response: "ra"}}
	merged := MergeHistoryAndStream(nil, streaming)
	require.Len(t, merged, 1)
	assert.Equal(t, "client-1", merged[0].ID)

	historical := []workspacetypes.Chat{{ID: "db-1", Prompt: "a"}}
	merged = MergeHistoryAndStream(historical, nil)
	require.Len(t, merged, 1)
	assert.Equal(t, "db-1", merged[0].ID)
}

func TestMergeHistoryAndStream_DuplicatePromptsCrossMatch(t *testing.T) {
	// identical prompt text cannot tell two logical turns apart: the one
	// streaming response fans out to every response-less historical turn
	// with that prompt
	historical := []workspacetypes.Chat{
		{ID: "db-1", Prompt: "retry that"},
		{ID: "db-2", Prompt: "retry that"},
	}
	streaming := []workspacetypes.Chat{
		{ID: "client-1", Prompt: "retry that", Response: "second attempt"},
	}

	merged := MergeHistoryAndStream(historical, streaming)

	require.Len(t, merged, 2)
	assert.Equal(t, "second attempt", merged[0].Response)
	assert.Equal(t, "second attempt", merged[1].Response)
}

func TestIsActivelyStreaming(t *testing.T) {
	assert.True(t, IsActivelyStreaming("msg-123", "msg-123"))
	assert.False(t, IsActivelyStreaming("msg-123", ""))
	assert.False(t, IsActivelyStreaming("msg-123", "msg-456"))
	assert.False(t, IsActivelyStreaming("", ""))
}
