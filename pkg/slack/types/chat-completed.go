package types

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/slack-go/slack"
)

type ChatCompleted struct {
	ID string

	UserID    string
	UserName  string
	UserEmail string

	WorkspaceID string

	CreatedAt time.Time

	// additional data
	Prompt        string
	ModifiesFiles bool
}

func (e *ChatCompleted) FromData(raw SlackNotificationRaw) error {
	e.ID = raw.ID
	e.CreatedAt = raw.CreatedAt

	if raw.UserID != nil {
		e.UserID = *raw.UserID

		conn := persistence.MustGetPooledPostgresSession()
		defer conn.Release()

		query := `SELECT
			chartsmith_user.name,
			chartsmith_user.email
		FROM
			chartsmith_user
		WHERE
			chartsmith_user.id = $1`

		row := conn.QueryRow(context.Background(), query, *raw.UserID)
		var userName, userEmail sql.NullString
		err := row.Scan(
			&userName,
			&userEmail,
		)
		if err != nil {
			return fmt.Errorf("error scanning user: %w", err)
		}

		if userName.Valid {
			e.UserName = userName.String
		}
		if userEmail.Valid {
			e.UserEmail = userEmail.String
		}
	}
	if raw.WorkspaceID != nil {
		e.WorkspaceID = *raw.WorkspaceID
	}

	if raw.AdditionalData == nil {
		return fmt.Errorf("missing additional data")
	}

	var additionalData map[string]interface{}
	if err := json.Unmarshal([]byte(*raw.AdditionalData), &additionalData); err != nil {
		return fmt.Errorf("error unmarshaling additional data: %w", err)
	}

	prompt, ok := additionalData["prompt"].(string)
	if !ok {
		return fmt.Errorf("invalid prompt in additional data")
	}
	e.Prompt = prompt

	modifiesFiles, ok := additionalData["modifiesFiles"].(bool)
	if ok {
		e.ModifiesFiles = modifiesFiles
	}

	return nil
}

func (e ChatCompleted) GetID() string {
	return e.ID
}

func (e ChatCompleted) GetCreatedAt() time.Time {
	return e.CreatedAt
}

func (e ChatCompleted) GetHeader() *slack.TextBlockObject {
	return slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Chartsmith Chat Completed* for %s (%s)", e.UserName, e.UserEmail), false, false)
}

func (e ChatCompleted) GetTextBlockObjects() []*slack.TextBlockObject {
	modified := "no"
	if e.ModifiesFiles {
		modified = "yes"
	}
	return []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Prompt:* %s", e.Prompt), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Proposed file edits:* %s", modified), false, false),
	}
}

func (e ChatCompleted) GetMessageOptions() []slack.MsgOption {
	return []slack.MsgOption{
		slack.MsgOptionText(e.WorkspaceID, false),
	}
}

var _ SlackNotification = (*ChatCompleted)(nil)
