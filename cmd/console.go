package cmd

import (
	"fmt"
	"os"

	"github.com/replicatedhq/chartsmith-preview/pkg/debugcli"
	"github.com/replicatedhq/chartsmith-preview/pkg/param"
	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/realtime"
	realtimetypes "github.com/replicatedhq/chartsmith-preview/pkg/realtime/types"
	"github.com/spf13/cobra"
)

func ConsoleCmd() *cobra.Command {
	var workspaceID string
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "console [command] [flags]",
		Short: "Interactive console for chartsmith previews",
		Long: `A development tool that provides an interactive console for inspecting workspaces,
previewing patches, and exercising the chat pipeline without the web frontend.

When run without arguments, it launches an interactive console mode.
When run with a command, it executes that command and exits, suitable for scripting.

Examples:
  # Interactive mode
  console

  # Run a single command (non-interactive mode)
  console preview-patch values.yaml fix.patch --workspace-id abc123
  console list-chat --workspace-id abc123`,
		Args: cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// params come from os env here, never from aws
			if err := param.Init(nil); err != nil {
				return fmt.Errorf("failed to init params: %w", err)
			}

			pgOpts := persistence.PostgresOpts{
				URI: os.Getenv("DB_URI"),
			}
			if err := persistence.InitPostgres(pgOpts); err != nil {
				return fmt.Errorf("failed to initialize postgres connection: %w", err)
			}

			realtime.Init(&realtimetypes.Config{
				Address: param.Get().CentrifugoAddress,
				APIKey:  param.Get().CentrifugoAPIKey,
			})

			if len(args) > 0 {
				nonInteractive = true
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := debugcli.ConsoleOptions{
				WorkspaceID:    workspaceID,
				NonInteractive: nonInteractive,
				Command:        args,
			}
			return debugcli.RunConsole(opts)
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "Workspace ID to use for commands")

	return cmd
}
