package workspace

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
	"github.com/tuvistavie/securerandom"
)

func CreateChatMessage(ctx context.Context, workspaceID string, prompt string, sentBy string) (*types.Chat, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	w, err := GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	id, err := securerandom.Hex(12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random ID: %w", err)
	}

	query := `INSERT INTO workspace_chat (
		id,
		workspace_id,
		created_at,
		sent_by,
		prompt,
		response,
		revision_number,
		is_thinking,
		is_streaming,
		is_intent_complete,
		is_complete,
		is_canceled,
		modifies_files
	)
	VALUES ($1, $2, now(), $3, $4, '', $5, true, false, false, false, false, false)`
	_, err = conn.Exec(ctx, query, id, workspaceID, sentBy, prompt, w.CurrentRevision)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat message: %w", err)
	}

	if err := persistence.EnqueueWork(ctx, "new_chat_message", map[string]string{"chatMessageId": id}); err != nil {
		return nil, fmt.Errorf("failed to enqueue chat message work: %w", err)
	}

	return GetChatMessage(ctx, id)
}

func GetChatMessage(ctx context.Context, chatMessageID string) (*types.Chat, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		workspace_chat.id,
		workspace_chat.workspace_id,
		workspace_chat.prompt,
		workspace_chat.response,
		workspace_chat.created_at,
		workspace_chat.is_thinking,
		workspace_chat.is_streaming,
		workspace_chat.is_intent_complete,
		workspace_chat.is_complete,
		workspace_chat.is_canceled,
		workspace_chat.modifies_files,
		workspace_chat.revision_number
	FROM
		workspace_chat
	WHERE
		workspace_chat.id = $1`

	row := conn.QueryRow(ctx, query, chatMessageID)

	var chat types.Chat
	var response sql.NullString

	err := row.Scan(
		&chat.ID,
		&chat.WorkspaceID,
		&chat.Prompt,
		&response,
		&chat.CreatedAt,
		&chat.IsThinking,
		&chat.IsStreaming,
		&chat.IsIntentComplete,
		&chat.IsComplete,
		&chat.IsCanceled,
		&chat.ModifiesFiles,
		&chat.RevisionNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat message in getChatMessage: %w", err)
	}

	chat.Response = response.String

	return &chat, nil
}

// ListChatMessagesForWorkspace returns the persisted history in the
// order the turns happened; this is the "historical" side of
// chat.MergeHistoryAndStream.
func ListChatMessagesForWorkspace(ctx context.Context, workspaceID string) ([]types.Chat, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		id, workspace_id, prompt, response, created_at,
		is_thinking, is_streaming, is_intent_complete, is_complete, is_canceled,
		modifies_files, revision_number
	FROM workspace_chat
	WHERE workspace_id = $1
	ORDER BY created_at ASC`

	rows, err := conn.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []types.Chat
	for rows.Next() {
		var chat types.Chat
		var response sql.NullString
		if err := rows.Scan(
			&chat.ID,
			&chat.WorkspaceID,
			&chat.Prompt,
			&response,
			&chat.CreatedAt,
			&chat.IsThinking,
			&chat.IsStreaming,
			&chat.IsIntentComplete,
			&chat.IsComplete,
			&chat.IsCanceled,
			&chat.ModifiesFiles,
			&chat.RevisionNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat message in listChatMessagesForWorkspace: %w", err)
		}

		chat.Response = response.String
		chats = append(chats, chat)
	}

	return chats, nil
}

func AppendChatMessageResponse(ctx context.Context, chatMessageID string, response string) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `UPDATE workspace_chat SET
		response = COALESCE(response, '') || $1,
		is_thinking = false,
		is_streaming = true
	WHERE id = $2`
	_, err := conn.Exec(ctx, query, response, chatMessageID)
	if err != nil {
		return fmt.Errorf("error updating chat message response: %w", err)
	}

	return nil
}

func SetChatMessageComplete(ctx context.Context, chatMessageID string, modifiesFiles bool) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `UPDATE workspace_chat SET
		is_thinking = false,
		is_streaming = false,
		is_intent_complete = true,
		is_complete = true,
		modifies_files = $1
	WHERE id = $2`
	_, err := conn.Exec(ctx, query, modifiesFiles, chatMessageID)
	if err != nil {
		return fmt.Errorf("failed to mark chat message complete: %w", err)
	}

	return nil
}

func CancelChatMessage(ctx context.Context, chatMessageID string) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `UPDATE workspace_chat SET
		is_thinking = false,
		is_streaming = false,
		is_intent_complete = true,
		is_complete = true,
		is_canceled = true
	WHERE id = $1`
	_, err := conn.Exec(ctx, query, chatMessageID)
	if err != nil {
		return fmt.Errorf("failed to cancel chat message: %w", err)
	}

	return nil
}
