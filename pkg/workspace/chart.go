package workspace

import (
	"context"
	"fmt"

	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
	"gopkg.in/yaml.v3"
)

func listChartsForWorkspace(ctx context.Context, workspaceID string, revisionNumber int) ([]types.Chart, error) {
	conn := persistence.MustGetPooledPostgresSession()
	defer conn.Release()

	query := `SELECT id, name FROM workspace_chart WHERE workspace_id = $1 AND revision_number = $2`
	rows, err := conn.Query(ctx, query, workspaceID, revisionNumber)
	if err != nil {
		return nil, fmt.Errorf("error listing charts: %w", err)
	}
	defer rows.Close()

	var charts []types.Chart
	for rows.Next() {
		var chart types.Chart
		if err := rows.Scan(&chart.ID, &chart.Name); err != nil {
			return nil, fmt.Errorf("error scanning chart: %w", err)
		}
		charts = append(charts, chart)
	}
	rows.Close()

	for i := range charts {
		files, err := listFilesForChart(ctx, charts[i].ID, revisionNumber)
		if err != nil {
			return nil, fmt.Errorf("error listing files for chart: %w", err)
		}
		charts[i].Files = files
	}

	return charts, nil
}

func listFilesForChart(ctx context.Context, chartID string, revisionNumber int) ([]types.File, error) {
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
		chart_id = $1 AND revision_number = $2`

	rows, err := conn.Query(ctx, query, chartID, revisionNumber)
	if err != nil {
		return nil, fmt.Errorf("error listing chart files: %w", err)
	}
	defer rows.Close()

	var files []types.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		file.ChartID = chartID
		files = append(files, *file)
	}

	return files, nil
}

// ChartVersion reads the version field out of the chart's Chart.yaml.
// Charts without one report the default 0.1.0.
func ChartVersion(chart *types.Chart) (string, error) {
	for _, file := range chart.Files {
		if file.FilePath != "Chart.yaml" {
			continue
		}

		var chartYaml struct {
			Version string `yaml:"version"`
		}
		if err := yaml.Unmarshal([]byte(file.Content), &chartYaml); err != nil {
			return "", fmt.Errorf("failed to unmarshal chart yaml: %w", err)
		}

		if chartYaml.Version != "" {
			return chartYaml.Version, nil
		}
	}

	return "0.1.0", nil
}
