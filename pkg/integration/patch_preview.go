package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/replicatedhq/chartsmith-preview/pkg/patch"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace"
)

// IntegrationTest_PatchPreview applies a patch to a stored file and verifies
// the preview lands in content_pending without touching the committed
// content.
func IntegrationTest_PatchPreview() error {
	fmt.Printf("Integration test: PatchPreview\n")

	ctx := context.Background()

	w, err := workspace.GetWorkspace(ctx, IntegrationTestOpts.WorkspaceID)
	if err != nil {
		return fmt.Errorf("failed to get workspace: %w", err)
	}

	file, err := workspace.GetFileByPath(ctx, w.ID, w.CurrentRevision, "values.yaml")
	if err != nil {
		return fmt.Errorf("failed to get values.yaml: %w", err)
	}

	patchText := `--- values.yaml
+++ values.yaml
@@ -1,4 +1,4 @@
-replicaCount: 1
+replicaCount: 3
`

	updated := patch.Apply(file.Content, patchText)
	if updated == file.Content {
		return fmt.Errorf("expected patch to change the file")
	}
	if !strings.Contains(updated, "replicaCount: 3") {
		return fmt.Errorf("expected updated content to contain new replica count, got: %q", updated)
	}

	if err := workspace.SetFileContentPending(ctx, file.ID, file.RevisionNumber, &updated); err != nil {
		return fmt.Errorf("failed to set pending content: %w", err)
	}

	stored, err := workspace.GetFile(ctx, file.ID, file.RevisionNumber)
	if err != nil {
		return fmt.Errorf("failed to get file after preview: %w", err)
	}
	if stored.ContentPending == nil || *stored.ContentPending != updated {
		return fmt.Errorf("expected pending content to be stored")
	}
	if stored.Content != file.Content {
		return fmt.Errorf("expected committed content to be unchanged")
	}

	// clearing the preview resets the file
	if err := workspace.SetFileContentPending(ctx, file.ID, file.RevisionNumber, nil); err != nil {
		return fmt.Errorf("failed to clear pending content: %w", err)
	}

	cleared, err := workspace.GetFile(ctx, file.ID, file.RevisionNumber)
	if err != nil {
		return fmt.Errorf("failed to get file after clearing preview: %w", err)
	}
	if cleared.ContentPending != nil {
		return fmt.Errorf("expected pending content to be cleared")
	}

	return nil
}
