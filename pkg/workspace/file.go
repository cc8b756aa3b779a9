package workspace

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

func GetFile(ctx context.Context, fileID string, revisionNumber int) (*types.File, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		id,
		revision_number,
		chart_id,
		workspace_id,
		file_path,
		content,
		content_pending
	FROM
		workspace_file
	WHERE
		id = $1 AND revision_number = $2`

	row := conn.QueryRow(ctx, query, fileID, revisionNumber)

	var file types.File
	var chartID sql.NullString
	var contentPending sql.NullString

	err := row.Scan(&file.ID, &file.RevisionNumber, &chartID, &file.WorkspaceID, &file.FilePath, &file.Content, &contentPending)
	if err != nil {
		return nil, fmt.Errorf("error scanning file: %w", err)
	}

	file.ChartID = chartID.String
	if contentPending.Valid {
		file.ContentPending = &contentPending.String
	}

	return &file, nil
}

func GetFileByPath(ctx context.Context, workspaceID string, revisionNumber int, filePath string) (*types.File, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT
		id,
		revision_number,
		chart_id,
		workspace_id,
		file_path,
		content,
		content_pending
	FROM
		workspace_file
	WHERE
		workspace_id = $1 AND revision_number = $2 AND file_path = $3`

	row := conn.QueryRow(ctx, query, workspaceID, revisionNumber, filePath)

	var file types.File
	var chartID sql.NullString
	var contentPending sql.NullString

	err := row.Scan(&file.ID, &file.RevisionNumber, &chartID, &file.WorkspaceID, &file.FilePath, &file.Content, &contentPending)
	if err != nil {
		return nil, fmt.Errorf("error scanning file: %w", err)
	}

	file.ChartID = chartID.String
	if contentPending.Valid {
		file.ContentPending = &contentPending.String
	}

	return &file, nil
}

// SetFileContentPending stores the previewed content for a file without
// touching the committed content. Passing nil clears the preview.
func SetFileContentPending(ctx context.Context, fileID string, revisionNumber int, contentPending *string) error {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `UPDATE workspace_file SET content_pending = $1 WHERE id = $2 AND revision_number = $3`
	_, err := conn.Exec(ctx, query, contentPending, fileID, revisionNumber)
	if err != nil {
		return fmt.Errorf("error updating file content_pending: %w", err)
	}

	return nil
}

func scanFile(row pgx.Row) (*types.File, error) {
	var file types.File
	var contentPending sql.NullString

	if err := row.Scan(&file.ID, &file.RevisionNumber, &file.WorkspaceID, &file.FilePath, &file.Content, &contentPending); err != nil {
		return nil, fmt.Errorf("error scanning file row: %w", err)
	}

	if contentPending.Valid {
		file.ContentPending = &contentPending.String
	}

	return &file, nil
}
