package listener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePatchFor(t *testing.T) {
	multiFilePatch := `--- a/values.yaml
+++ b/values.yaml
@@ -1,2 +1,2 @@
-replicaCount: 1
+replicaCount: 3
 image: nginx
--- a/Chart.yaml
+++ b/Chart.yaml
@@ -1,2 +1,2 @@
-version: 0.1.0
+version: 0.2.0
 name: nginx
`

	singleFilePatch := `--- a/values.yaml
+++ b/values.yaml
@@ -1,2 +1,2 @@
-replicaCount: 1
+replicaCount: 3
 image: nginx
`

	tests := []struct {
		name        string
		patch       string
		filePath    string
		contains    string
		notContains string
	}{
		{
			name:        "multi-file patch extracts the matching file",
			patch:       multiFilePatch,
			filePath:    "values.yaml",
			contains:    "+replicaCount: 3",
			notContains: "version: 0.2.0",
		},
		{
			name:        "multi-file patch extracts the second file",
			patch:       multiFilePatch,
			filePath:    "Chart.yaml",
			contains:    "+version: 0.2.0",
			notContains: "replicaCount",
		},
		{
			name:     "single-file patch is returned unchanged",
			patch:    singleFilePatch,
			filePath: "values.yaml",
			contains: "+replicaCount: 3",
		},
		{
			name:     "unknown path falls back to the whole patch",
			patch:    multiFilePatch,
			filePath: "templates/deployment.yaml",
			contains: "+replicaCount: 3",
		},
		{
			name:     "unparseable patch is returned unchanged",
			patch:    "not a diff at all",
			filePath: "values.yaml",
			contains: "not a diff at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filePatchFor(tt.patch, tt.filePath)
			assert.Contains(t, got, tt.contains)
			if tt.notContains != "" {
				assert.NotContains(t, got, tt.notContains)
			}
		})
	}
}

func TestStripDiffPath(t *testing.T) {
	assert.Equal(t, "values.yaml", stripDiffPath("a/values.yaml"))
	assert.Equal(t, "values.yaml", stripDiffPath("b/values.yaml"))
	assert.Equal(t, "values.yaml", stripDiffPath("values.yaml"))
	assert.Equal(t, "templates/svc.yaml", stripDiffPath("b/templates/svc.yaml"))
}

func TestPreviewPatchLockKeyExtractor(t *testing.T) {
	key, err := previewPatchLockKeyExtractor([]byte(`{"workspaceId":"w1","fileId":"file-123","patch":"..."}`))
	require.NoError(t, err)
	assert.Equal(t, "file-123", key)

	_, err = previewPatchLockKeyExtractor([]byte(`{"workspaceId":"w1"}`))
	require.Error(t, err)

	_, err = previewPatchLockKeyExtractor([]byte(`not json`))
	require.Error(t, err)
}
