package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/replicatedhq/chartsmith-preview/pkg/logger"
)

func StartListeners(ctx context.Context) error {
	l := NewListener()

	l.AddHandler(ctx, "new_chat_message", 5, time.Minute*5, func(notification *pgconn.Notification) error {
		if err := handleNewChatMessageNotification(ctx, notification.Payload); err != nil {
			logger.Error(fmt.Errorf("failed to handle new chat message notification: %w", err))
			return fmt.Errorf("failed to handle new chat message notification: %w", err)
		}
		return nil
	}, nil)

	// previews for the same file are serialized so a slow patch can't
	// interleave with a newer one
	l.AddHandler(ctx, "preview_patch", 10, time.Second*30, func(notification *pgconn.Notification) error {
		if err := handlePreviewPatchNotification(ctx, notification.Payload); err != nil {
			logger.Error(fmt.Errorf("failed to handle preview patch notification: %w", err))
			return fmt.Errorf("failed to handle preview patch notification: %w", err)
		}
		return nil
	}, previewPatchLockKeyExtractor)

	l.AddHandler(ctx, "slack_notification", 5, time.Second*10, func(notification *pgconn.Notification) error {
		if err := handleSlackNotification(ctx, notification.Payload); err != nil {
			logger.Error(fmt.Errorf("failed to handle slack notification: %w", err))
			return fmt.Errorf("failed to handle slack notification: %w", err)
		}
		return nil
	}, nil)

	l.Start(ctx)
	defer l.Stop(ctx)

	<-ctx.Done()

	return nil
}

func previewPatchLockKeyExtractor(payload []byte) (string, error) {
	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		return "", fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	fileID, ok := payloadMap["fileId"].(string)
	if !ok || fileID == "" {
		return "", fmt.Errorf("fileId not found in payload or is not a string: %v", payloadMap)
	}
	return fileID, nil
}
