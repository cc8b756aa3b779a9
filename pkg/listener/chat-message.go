package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/replicatedhq/chartsmith-preview/pkg/chat"
	"github.com/replicatedhq/chartsmith-preview/pkg/llm"
	"github.com/replicatedhq/chartsmith-preview/pkg/logger"
	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/realtime"
	realtimetypes "github.com/replicatedhq/chartsmith-preview/pkg/realtime/types"
	"github.com/replicatedhq/chartsmith-preview/pkg/slack"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace"
	"go.uber.org/zap"
)

type newChatMessagePayload struct {
	ChatMessageID string `json:"chatMessageId"`
}

type previewPatchPayload struct {
	WorkspaceID    string `json:"workspaceId"`
	FileID         string `json:"fileId"`
	RevisionNumber int    `json:"revisionNumber"`
	Patch          string `json:"patch"`
}

func handleNewChatMessageNotification(ctx context.Context, payload string) error {
	logger.Info("Handling new chat message notification",
		zap.String("payload", payload))

	var p newChatMessagePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	chatMessage, err := workspace.GetChatMessage(ctx, p.ChatMessageID)
	if err != nil {
		return fmt.Errorf("error getting chat message: %w", err)
	}

	if chatMessage.IsCanceled {
		logger.Info("chat message was canceled before processing started",
			zap.String("chatMessageId", chatMessage.ID))
		return nil
	}

	w, err := workspace.GetWorkspace(ctx, chatMessage.WorkspaceID)
	if err != nil {
		return fmt.Errorf("error getting workspace: %w", err)
	}

	userIDs, err := workspace.ListUserIDsForWorkspace(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("error getting user IDs for workspace: %w", err)
	}

	realtimeRecipient := realtimetypes.Recipient{
		UserIDs: userIDs,
	}

	streamCh := make(chan chat.Part, 1)
	doneCh := make(chan error, 1)
	go func() {
		if err := llm.ConversationalChatMessage(ctx, streamCh, doneCh, w, chatMessage); err != nil {
			logger.Error(fmt.Errorf("failed to create conversational chat message: %w", err))
		}
	}()

	var buffer strings.Builder
	modifiesFiles := false
	done := false
	for !done {
		select {
		case part := <-streamCh:
			switch part := part.(type) {
			case chat.TextPart:
				buffer.WriteString(part.Text)

				chatMessage.Response = buffer.String()
				chatMessage.IsStreaming = true
				e := realtimetypes.ChatMessageUpdatedEvent{
					WorkspaceID: w.ID,
					ChatMessage: chatMessage,
				}
				if err := realtime.SendEvent(ctx, realtimeRecipient, e); err != nil {
					return fmt.Errorf("failed to send chat message update: %w", err)
				}

				if err := workspace.AppendChatMessageResponse(ctx, chatMessage.ID, part.Text); err != nil {
					return fmt.Errorf("failed to write chat message response to database: %w", err)
				}
			case chat.ToolInvocationPart:
				if part.ToolName != "edit_file" {
					continue
				}
				modifiesFiles = true
				if err := enqueueFilePreview(ctx, w.ID, w.CurrentRevision, part.Args); err != nil {
					return fmt.Errorf("failed to enqueue file preview: %w", err)
				}
			}
		case err := <-doneCh:
			if err != nil {
				return fmt.Errorf("error streaming chat message: %w", err)
			}
			done = true

			if err := workspace.SetChatMessageComplete(ctx, chatMessage.ID, modifiesFiles); err != nil {
				return fmt.Errorf("failed to set chat message complete: %w", err)
			}

			chatMessage.IsThinking = false
			chatMessage.IsStreaming = false
			chatMessage.IsIntentComplete = true
			chatMessage.IsComplete = true
			chatMessage.ModifiesFiles = modifiesFiles
			e := realtimetypes.ChatMessageUpdatedEvent{
				WorkspaceID: w.ID,
				ChatMessage: chatMessage,
			}
			if err := realtime.SendEvent(ctx, realtimeRecipient, e); err != nil {
				return fmt.Errorf("failed to send chat message update: %w", err)
			}

			if err := slack.EnqueueChatCompletedNotification(ctx, w.ID, chatMessage.ID); err != nil {
				// notifications are best effort
				logger.Error(fmt.Errorf("failed to enqueue slack notification: %w", err))
			}
		}
	}

	return nil
}

// enqueueFilePreview resolves the edit_file tool args to a workspace file and
// queues the patch for preview application.
func enqueueFilePreview(ctx context.Context, workspaceID string, revisionNumber int, args json.RawMessage) error {
	var toolArgs struct {
		Path  string `json:"path"`
		Patch string `json:"patch"`
	}
	if err := json.Unmarshal(args, &toolArgs); err != nil {
		return fmt.Errorf("failed to unmarshal edit_file args: %w", err)
	}

	file, err := workspace.GetFileByPath(ctx, workspaceID, revisionNumber, toolArgs.Path)
	if err != nil {
		return fmt.Errorf("failed to get file %s: %w", toolArgs.Path, err)
	}

	return persistence.EnqueueWork(ctx, "preview_patch", previewPatchPayload{
		WorkspaceID:    workspaceID,
		FileID:         file.ID,
		RevisionNumber: revisionNumber,
		Patch:          toolArgs.Patch,
	})
}
