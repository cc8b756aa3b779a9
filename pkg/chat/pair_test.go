package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userFragment(id, text string) Fragment {
	return Fragment{ID: id, Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

func assistantFragment(id, text string) Fragment {
	return Fragment{ID: id, Role: RoleAssistant, Parts: []Part{TextPart{Text: text}}}
}

func TestPairTurns_AlternatingSequence(t *testing.T) {
	// N alternating fragments yield N/2 turns, all with prompt and response
	for _, n := range []int{2, 4, 8} {
		var fragments []Fragment
		for i := 0; i < n/2; i++ {
			fragments = append(fragments,
				userFragment(fmt.Sprintf("u-%d", i), fmt.Sprintf("prompt %d", i)),
				assistantFragment(fmt.Sprintf("a-%d", i), fmt.Sprintf("response %d", i)),
			)
		}

		turns := PairTurns(fragments, PairOptions{})
		require.Len(t, turns, n/2, "n=%d", n)

		for i, turn := range turns {
			assert.Equal(t, fmt.Sprintf("prompt %d", i), turn.Prompt)
			assert.Equal(t, fmt.Sprintf("response %d", i), turn.Response)
			assert.True(t, turn.IsComplete)
			assert.True(t, turn.IsIntentComplete)
			assert.False(t, turn.IsCanceled)
		}
	}
}

func TestPairTurns_UserOnlyTurn(t *testing.T) {
	turns := PairTurns([]Fragment{
		userFragment("u-1", "first"),
		userFragment("u-2", "second"),
		assistantFragment("a-1", "answer to second"),
	}, PairOptions{})

	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Prompt)
	assert.Empty(t, turns[0].Response)
	assert.Equal(t, "second", turns[1].Prompt)
	assert.Equal(t, "answer to second", turns[1].Response)
}

func TestPairTurns_LeadingAssistant(t *testing.T) {
	turns := PairTurns([]Fragment{
		assistantFragment("a-0", "welcome back"),
		userFragment("u-1", "hi"),
	}, PairOptions{})

	require.Len(t, turns, 2)
	assert.Empty(t, turns[0].Prompt)
	assert.Equal(t, "welcome back", turns[0].Response)
	assert.Equal(t, "hi", turns[1].Prompt)
}

func TestPairTurns_OrphanAssistantMidStreamDropped(t *testing.T) {
	turns := PairTurns([]Fragment{
		userFragment("u-1", "q1"),
		assistantFragment("a-1", "r1"),
		assistantFragment("a-2", "orphan"),
		userFragment("u-2", "q2"),
	}, PairOptions{})

	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Prompt)
	assert.Equal(t, "r1", turns[0].Response)
	assert.Equal(t, "q2", turns[1].Prompt)
}

func TestPairTurns_StreamingClearsLastTurnOnly(t *testing.T) {
	turns := PairTurns([]Fragment{
		userFragment("u-1", "q1"),
		assistantFragment("a-1", "r1"),
		userFragment("u-2", "q2"),
		assistantFragment("a-2", "r2 so far"),
	}, PairOptions{IsStreaming: true})

	require.Len(t, turns, 2)

	assert.True(t, turns[0].IsComplete)
	assert.True(t, turns[0].IsIntentComplete)
	assert.False(t, turns[0].IsStreaming)

	assert.False(t, turns[1].IsComplete)
	assert.False(t, turns[1].IsIntentComplete)
	assert.True(t, turns[1].IsStreaming)
}

func TestPairTurns_CancellationMarksLastTurnOnly(t *testing.T) {
	turns := PairTurns([]Fragment{
		userFragment("u-1", "q1"),
		assistantFragment("a-1", "r1"),
		userFragment("u-2", "q2"),
	}, PairOptions{IsCanceled: true})

	require.Len(t, turns, 2)
	assert.False(t, turns[0].IsCanceled)
	assert.True(t, turns[1].IsCanceled)
}

func TestPairTurns_Empty(t *testing.T) {
	assert.Empty(t, PairTurns(nil, PairOptions{}))
	assert.Empty(t, PairTurns([]Fragment{}, PairOptions{IsStreaming: true}))
}

func TestPairTurns_ToolPartsExcludedFromText(t *testing.T) {
	turns := PairTurns([]Fragment{
		userFragment("u-1", "bump the chart version"),
		{
			ID:   "a-1",
			Role: RoleAssistant,
			Parts: []Part{
				TextPart{Text: "Updating Chart.yaml now."},
				ToolInvocationPart{ToolName: "edit_file"},
				ToolResultPart{ToolName: "edit_file"},
			},
		},
	}, PairOptions{})

	require.Len(t, turns, 1)
	assert.Equal(t, "Updating Chart.yaml now.", turns[0].Response)
	assert.True(t, turns[0].ModifiesFiles)
}

func TestMapStatusToFlags(t *testing.T) {
	tests := []struct {
		status SessionStatus
		want   Flags
	}{
		{StatusSubmitted, Flags{IsThinking: true}},
		{StatusStreaming, Flags{IsStreaming: true}},
		{StatusReady, Flags{IsIntentComplete: true, IsComplete: true}},
		{StatusError, Flags{IsIntentComplete: true, IsComplete: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := MapStatusToFlags(tt.status)
			assert.Equal(t, tt.want, got)

			// thinking and streaming are mutually exclusive
			assert.False(t, got.IsThinking && got.IsStreaming)
		})
	}
}
