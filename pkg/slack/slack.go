package slack

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/replicatedhq/chartsmith-preview/pkg/param"
	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/slack/types"
	"github.com/slack-go/slack"
	"github.com/tuvistavie/securerandom"
)

var (
	slackClient *slack.Client
)

func SendNotificationToSlack(e types.SlackNotification) error {
	if e == nil {
		return nil
	}

	if param.Get().SlackToken == "" {
		// slack is optional; drop the notification when not configured
		return nil
	}

	if slackClient == nil {
		slackClient = slack.New(param.Get().SlackToken)
	}

	headerSection := slack.NewSectionBlock(e.GetHeader(), nil, nil)
	fieldsSection := slack.NewSectionBlock(nil, e.GetTextBlockObjects(), nil)

	blocks := make([]slack.Block, 0)
	blocks = append(blocks, *headerSection)
	blocks = append(blocks, *fieldsSection)

	msg := slack.NewBlockMessage(blocks...)

	_, _, err := slackClient.PostMessage(param.Get().SlackChannel, slack.MsgOptionBlocks(msg.Msg.Blocks.BlockSet...))
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}

	return nil
}

func GetSlackNotification(ctx context.Context, id string) (types.SlackNotification, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		slack_notification.id,
		slack_notification.created_at,
		slack_notification.user_id,
		slack_notification.workspace_id,
		slack_notification.notification_type,
		slack_notification.additional_data
	FROM
		slack_notification
	WHERE
		slack_notification.id = $1`

	row := conn.QueryRow(ctx, query, id)
	raw := types.SlackNotificationRaw{}
	var userID, workspaceID sql.NullString
	var additionalData sql.NullString
	err := row.Scan(
		&raw.ID,
		&raw.CreatedAt,
		&userID,
		&workspaceID,
		&raw.NotificationType,
		&additionalData,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning slack notification: %w", err)
	}

	if userID.Valid {
		raw.UserID = &userID.String
	}
	if workspaceID.Valid {
		raw.WorkspaceID = &workspaceID.String
	}
	if additionalData.Valid {
		raw.AdditionalData = &additionalData.String
	}

	switch raw.NotificationType {
	case "chat_completed":
		e := types.ChatCompleted{}
		if err := e.FromData(raw); err != nil {
			return nil, fmt.Errorf("error parsing chat completed slack notification: %w", err)
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("unknown slack notification type: %s", raw.NotificationType)
	}
}

// EnqueueChatCompletedNotification records a chat_completed notification and
// queues it for delivery.
func EnqueueChatCompletedNotification(ctx context.Context, workspaceID string, chatMessageID string) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	var userID sql.NullString
	if err := conn.QueryRow(ctx, `SELECT created_by_user_id FROM workspace WHERE id = $1`, workspaceID).Scan(&userID); err != nil {
		return fmt.Errorf("failed to get workspace user: %w", err)
	}

	var prompt string
	var modifiesFiles bool
	if err := conn.QueryRow(ctx, `SELECT prompt, modifies_files FROM workspace_chat WHERE id = $1`, chatMessageID).Scan(&prompt, &modifiesFiles); err != nil {
		return fmt.Errorf("failed to get chat message: %w", err)
	}

	additionalData, err := json.Marshal(map[string]interface{}{
		"prompt":        prompt,
		"modifiesFiles": modifiesFiles,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal additional data: %w", err)
	}

	id, err := securerandom.Hex(12)
	if err != nil {
		return fmt.Errorf("failed to generate id: %w", err)
	}

	query := `INSERT INTO slack_notification (id, created_at, user_id, workspace_id, notification_type, additional_data)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := conn.Exec(ctx, query, id, time.Now(), userID, workspaceID, "chat_completed", string(additionalData)); err != nil {
		return fmt.Errorf("failed to insert slack notification: %w", err)
	}

	payload, err := json.Marshal(map[string]string{"id": id})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return persistence.EnqueueWork(ctx, "slack_notification", json.RawMessage(payload))
}
