package types

import (
	workspacetypes "github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

var _ Event = FilePreviewUpdatedEvent{}

// FilePreviewUpdatedEvent is published after a patch preview lands in
// content_pending so the editor can refresh its diff view.
type FilePreviewUpdatedEvent struct {
	WorkspaceID string               `json:"workspaceId"`
	File        *workspacetypes.File `json:"file"`
}

func (e FilePreviewUpdatedEvent) GetMessageData() (map[string]interface{}, error) {
	return map[string]interface{}{
		"workspaceId": e.WorkspaceID,
		"eventType":   "filepreview-updated",
		"file":        e.File,
	}, nil
}

func (e FilePreviewUpdatedEvent) GetChannelName() string {
	return e.WorkspaceID
}
