package workspace

import (
	"testing"

	"github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartVersion(t *testing.T) {
	tests := []struct {
		name     string
		files    []types.File
		expected string
		wantErr  bool
	}{
		{
			name: "reads version from Chart.yaml",
			files: []types.File{
				{FilePath: "Chart.yaml", Content: "apiVersion: v2\nname: nginx\nversion: 1.2.3\n"},
				{FilePath: "values.yaml", Content: "replicaCount: 1\n"},
			},
			expected: "1.2.3",
		},
		{
			name: "missing version field defaults",
			files: []types.File{
				{FilePath: "Chart.yaml", Content: "apiVersion: v2\nname: nginx\n"},
			},
			expected: "0.1.0",
		},
		{
			name: "no Chart.yaml defaults",
			files: []types.File{
				{FilePath: "values.yaml", Content: "replicaCount: 1\n"},
			},
			expected: "0.1.0",
		},
		{
			name:     "empty chart defaults",
			files:    nil,
			expected: "0.1.0",
		},
		{
			name: "invalid yaml errors",
			files: []types.File{
				{FilePath: "Chart.yaml", Content: "version: [unclosed\n  bad yaml"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chart := &types.Chart{Name: "nginx", Files: tt.files}
			version, err := ChartVersion(chart)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, version)
		})
	}
}
