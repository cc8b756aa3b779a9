package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveToolCall(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		input    string
		expected interface{}
		wantErr  bool
	}{
		{
			name:     "edit_file queues the patch",
			tool:     "edit_file",
			input:    `{"path":"values.yaml","patch":"--- values.yaml\n+++ values.yaml\n@@ -1 +1 @@\n-a: 1\n+a: 2\n"}`,
			expected: "queued",
		},
		{
			name:    "edit_file without a patch errors",
			tool:    "edit_file",
			input:   `{"path":"values.yaml"}`,
			wantErr: true,
		},
		{
			name:    "edit_file with bad json errors",
			tool:    "edit_file",
			input:   `{`,
			wantErr: true,
		},
		{
			name:     "kubernetes major version",
			tool:     "latest_kubernetes_version",
			input:    `{"semver_field":"major"}`,
			expected: "1",
		},
		{
			name:     "kubernetes minor version",
			tool:     "latest_kubernetes_version",
			input:    `{"semver_field":"minor"}`,
			expected: "1.33",
		},
		{
			name:     "kubernetes patch version is the default",
			tool:     "latest_kubernetes_version",
			input:    `{"semver_field":"patch"}`,
			expected: "1.33.4",
		},
		{
			name:    "unknown tool errors",
			tool:    "latest_subchart_version",
			input:   `{"chart_name":"redis"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveToolCall(tt.tool, json.RawMessage(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
