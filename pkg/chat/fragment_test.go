package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFragments(t *testing.T) {
	data := []byte(`[
		{"id": "u-1", "role": "user", "parts": [{"type": "text", "text": "bump the version"}]},
		{"id": "a-1", "role": "assistant", "parts": [
			{"type": "text", "text": "On it. "},
			{"type": "tool-edit_file", "args": {"path": "Chart.yaml"}},
			{"type": "tool-edit_file", "result": {"ok": true}},
			{"type": "text", "text": "Done."},
			{"type": "step-start"}
		]}
	]`)

	fragments, err := ParseFragments(data)
	require.NoError(t, err)
	require.Len(t, fragments, 2)

	assert.Equal(t, RoleUser, fragments[0].Role)
	assert.Equal(t, "bump the version", fragments[0].Text())
	assert.False(t, fragments[0].ModifiesFiles())

	assistant := fragments[1]
	assert.Equal(t, RoleAssistant, assistant.Role)

	// tool parts do not contribute text; unknown parts are dropped
	assert.Equal(t, "On it. Done.", assistant.Text())
	require.Len(t, assistant.Parts, 4)
	assert.True(t, assistant.ModifiesFiles())
}

func TestParseFragments_ExplicitToolParts(t *testing.T) {
	data := []byte(`[
		{"id": "a-1", "role": "assistant", "parts": [
			{"type": "tool-invocation", "toolName": "create_file", "args": {"path": "values.yaml"}},
			{"type": "tool-result", "toolName": "create_file", "result": {"ok": true}}
		]}
	]`)

	fragments, err := ParseFragments(data)
	require.NoError(t, err)
	require.Len(t, fragments, 1)

	inv, ok := fragments[0].Parts[0].(ToolInvocationPart)
	require.True(t, ok)
	assert.Equal(t, "create_file", inv.ToolName)

	res, ok := fragments[0].Parts[1].(ToolResultPart)
	require.True(t, ok)
	assert.Equal(t, "create_file", res.ToolName)

	assert.True(t, fragments[0].ModifiesFiles())
	assert.Empty(t, fragments[0].Text())
}

func TestParseFragments_NonFileTool(t *testing.T) {
	data := []byte(`[
		{"id": "a-1", "role": "assistant", "parts": [
			{"type": "tool-invocation", "toolName": "latest_subchart_version", "args": {"chart_name": "redis"}}
		]}
	]`)

	fragments, err := ParseFragments(data)
	require.NoError(t, err)
	assert.False(t, fragments[0].ModifiesFiles())
}

func TestParseFragments_InvalidJSON(t *testing.T) {
	_, err := ParseFragments([]byte(`{"not": "an array"`))
	assert.Error(t, err)
}
