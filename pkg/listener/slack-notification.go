package listener

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/replicatedhq/chartsmith-preview/pkg/slack"
)

type slackNotificationPayload struct {
	ID string `json:"id"`
}

func handleSlackNotification(ctx context.Context, payload string) error {
	var p slackNotificationPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	slackNotification, err := slack.GetSlackNotification(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get slack notification: %w", err)
	}

	if err := slack.SendNotificationToSlack(slackNotification); err != nil {
		return fmt.Errorf("failed to send notification to slack: %w", err)
	}

	return nil
}
