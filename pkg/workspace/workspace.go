package workspace

import (
	"context"
	"fmt"

	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

func GetWorkspace(ctx context.Context, id string) (*types.Workspace, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		workspace.id,
		workspace.created_at,
		workspace.last_updated_at,
		workspace.name,
		workspace.current_revision_number
	FROM
		workspace
	WHERE
		workspace.id = $1`

	row := conn.QueryRow(ctx, query, id)
	var workspace types.Workspace
	err := row.Scan(
		&workspace.ID,
		&workspace.CreatedAt,
		&workspace.LastUpdatedAt,
		&workspace.Name,
		&workspace.CurrentRevision,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning workspace: %w", err)
	}

	charts, err := listChartsForWorkspace(ctx, workspace.ID, workspace.CurrentRevision)
	if err != nil {
		return nil, fmt.Errorf("error listing charts for workspace: %w", err)
	}
	workspace.Charts = charts

	files, err := listFilesWithoutChartsForWorkspace(ctx, workspace.ID, workspace.CurrentRevision)
	if err != nil {
		return nil, fmt.Errorf("error listing files for workspace: %w", err)
	}
	workspace.Files = files

	return &workspace, nil
}

func ListUserIDsForWorkspace(ctx context.Context, workspaceID string) ([]string, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		workspace.created_by_user_id
	FROM
		workspace
	WHERE
		workspace.id = $1`

	row := conn.QueryRow(ctx, query, workspaceID)
	var userID string
	if err := row.Scan(&userID); err != nil {
		return nil, fmt.Errorf("error scanning user ID: %w", err)
	}

	return []string{userID}, nil
}

func listFilesWithoutChartsForWorkspace(ctx context.Context, workspaceID string, revisionNumber int) ([]types.File, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		id,
		revision_number,
		workspace_id,
		file_path,
		content,
		content_pending
	FROM
		workspace_file
	WHERE
		workspace_id = $1 AND revision_number = $2 AND chart_id IS NULL`

	rows, err := conn.Query(ctx, query, workspaceID, revisionNumber)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	defer rows.Close()

	var files []types.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}

	return files, nil
}
