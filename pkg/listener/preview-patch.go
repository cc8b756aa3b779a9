package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/replicatedhq/chartsmith-preview/pkg/logger"
	"github.com/replicatedhq/chartsmith-preview/pkg/patch"
	"github.com/replicatedhq/chartsmith-preview/pkg/realtime"
	realtimetypes "github.com/replicatedhq/chartsmith-preview/pkg/realtime/types"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace"
	"go.uber.org/zap"
)

func handlePreviewPatchNotification(ctx context.Context, payload string) error {
	logger.Info("Handling preview patch notification",
		zap.String("payload", payload))

	var p previewPatchPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	file, err := workspace.GetFile(ctx, p.FileID, p.RevisionNumber)
	if err != nil {
		return fmt.Errorf("error getting file: %w", err)
	}

	userIDs, err := workspace.ListUserIDsForWorkspace(ctx, p.WorkspaceID)
	if err != nil {
		return fmt.Errorf("error getting user IDs for workspace: %w", err)
	}

	patchText := filePatchFor(p.Patch, file.FilePath)

	updated := patch.Apply(file.Content, patchText)
	if updated == file.Content {
		logger.Info("patch produced no change",
			zap.String("fileId", file.ID),
			zap.String("filePath", file.FilePath))
	}

	if err := workspace.SetFileContentPending(ctx, file.ID, p.RevisionNumber, &updated); err != nil {
		return fmt.Errorf("error setting pending content: %w", err)
	}

	file.ContentPending = &updated

	e := realtimetypes.FilePreviewUpdatedEvent{
		WorkspaceID: p.WorkspaceID,
		File:        file,
	}
	if err := realtime.SendEvent(ctx, realtimetypes.Recipient{UserIDs: userIDs}, e); err != nil {
		return fmt.Errorf("failed to send file preview update: %w", err)
	}

	return nil
}

// filePatchFor extracts the portion of a possibly multi-file unified diff that
// targets filePath. Single-file patches, and anything the diff parser can't
// make sense of, are returned unchanged so the preview applier can still take
// its best shot at them.
func filePatchFor(patchText string, filePath string) string {
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(patchText))
	if err != nil || len(fileDiffs) <= 1 {
		return patchText
	}

	for _, fileDiff := range fileDiffs {
		if stripDiffPath(fileDiff.NewName) != filePath && stripDiffPath(fileDiff.OrigName) != filePath {
			continue
		}
		printed, err := godiff.PrintFileDiff(fileDiff)
		if err != nil {
			return patchText
		}
		return string(printed)
	}

	return patchText
}

func stripDiffPath(name string) string {
	name = strings.TrimPrefix(name, "a/")
	name = strings.TrimPrefix(name, "b/")
	return name
}
