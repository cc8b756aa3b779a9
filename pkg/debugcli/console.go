package debugcli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/replicatedhq/chartsmith-preview/pkg/chat"
	"github.com/replicatedhq/chartsmith-preview/pkg/logger"
	"github.com/replicatedhq/chartsmith-preview/pkg/patch"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace"
	workspacetypes "github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

var (
	boldBlue   = color.New(color.FgBlue, color.Bold).SprintFunc()
	boldGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	boldYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	dimText    = color.New(color.Faint).SprintFunc()

	// To track double Ctrl+C for exit
	lastInterrupt *time.Time
)

// ConsoleOptions defines configuration options for the debug console
type ConsoleOptions struct {
	WorkspaceID    string   // Workspace ID to use for commands
	NonInteractive bool     // If true, run in non-interactive mode (execute command and exit)
	Command        []string // Command to execute in non-interactive mode
}

// DebugConsole represents the debug console state
type DebugConsole struct {
	ctx             context.Context
	pgClient        *pgxpool.Pool
	activeWorkspace *workspacetypes.Workspace
	readline        *readline.Instance
	options         ConsoleOptions
}

// RunConsole initializes and runs the debug console with the given options
func RunConsole(options ConsoleOptions) error {
	logger.SetDebug()
	ctx := context.Background()

	dbURI := os.Getenv("DB_URI")
	if dbURI == "" {
		return errors.New("DB_URI environment variable not set")
	}

	pgConfig, err := pgxpool.ParseConfig(dbURI)
	if err != nil {
		return errors.Wrap(err, "failed to parse postgres URI")
	}

	pgClient, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		return errors.Wrap(err, "failed to connect to postgres")
	}
	defer pgClient.Close()

	console := &DebugConsole{
		ctx:      ctx,
		pgClient: pgClient,
		options:  options,
	}

	if options.WorkspaceID != "" {
		if err := console.selectWorkspaceById(options.WorkspaceID); err != nil {
			return errors.Wrapf(err, "failed to select workspace with ID %s", options.WorkspaceID)
		}
	}

	if options.NonInteractive {
		if len(options.Command) == 0 {
			return errors.New("no command specified in non-interactive mode")
		}

		if console.activeWorkspace == nil && options.WorkspaceID == "" {
			return errors.New("workspace ID is required for non-interactive mode")
		}

		return console.executeNonInteractiveCommand(options.Command)
	}

	if err := console.run(); err != nil {
		return errors.Wrap(err, "console error")
	}

	return nil
}

func (c *DebugConsole) run() error {
	fmt.Println(boldBlue("Chartsmith Preview Console"))
	fmt.Println(dimText("Type 'help' for available commands, 'exit' to quit"))
	fmt.Println(dimText("Use '/workspace <id>' to select a workspace"))
	fmt.Println(dimText("Press Ctrl+C twice in quick succession to exit"))
	fmt.Println()

	var historyFile string
	usr, err := user.Current()
	if err == nil {
		historyFile = filepath.Join(usr.HomeDir, ".chartsmith_preview_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 boldYellow("[NO WORKSPACE]> "),
		HistoryFile:            historyFile,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		HistorySearchFold:      true,
		DisableAutoSaveHistory: false,
		HistoryLimit:           1000,
		VimMode:                false,
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("/workspace"),
			readline.PcItem("/help"),
			readline.PcItem("help"),
			readline.PcItem("list-files"),
			readline.PcItem("show-file"),
			readline.PcItem("preview-patch"),
			readline.PcItem("list-chat"),
			readline.PcItem("chat"),
			readline.PcItem("pair-fragments"),
			readline.PcItem("exit"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize readline")
	}
	defer rl.Close()

	c.readline = rl

	for {
		if c.activeWorkspace != nil {
			rl.SetPrompt(boldGreen(fmt.Sprintf("workspace[%s]> ", c.activeWorkspace.Name)))
		} else {
			rl.SetPrompt(boldYellow("[NO WORKSPACE]> "))
		}

		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println("^C")
				if lastInterrupt != nil && time.Since(*lastInterrupt) < 2*time.Second {
					fmt.Println("Exiting...")
					return nil
				}
				now := time.Now()
				lastInterrupt = &now
				continue
			} else if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "failed to read input")
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" {
			return nil
		}

		if strings.HasPrefix(input, "/") {
			parts := strings.Fields(input)
			cmd := parts[0][1:]
			args := parts[1:]

			switch cmd {
			case "workspace":
				if len(args) == 1 {
					if err := c.selectWorkspaceById(args[0]); err != nil {
						fmt.Println(boldRed("Error:"), err)
					}
				} else if len(args) == 0 {
					if err := c.listAvailableWorkspaces(); err != nil {
						fmt.Println(boldRed("Error:"), err)
					}
				} else {
					fmt.Println(boldRed("Error: Invalid workspace command format. Use '/workspace' or '/workspace <id>'"))
				}
			case "help":
				c.showHelp()
			default:
				fmt.Printf(boldRed("Error: Unknown command '/%s'\n"), cmd)
			}
			continue
		}

		parts := strings.Fields(input)
		cmd := parts[0]
		args := parts[1:]

		if err := c.executeCommand(cmd, args); err != nil {
			fmt.Println(boldRed("Error:"), err)
		}
	}
}

// executeNonInteractiveCommand handles execution of a command in non-interactive mode
func (c *DebugConsole) executeNonInteractiveCommand(args []string) error {
	if len(args) == 0 {
		return errors.New("no command specified")
	}

	cmd := args[0]
	cmdArgs := []string{}
	if len(args) > 1 {
		cmdArgs = args[1:]
	}

	// strip flags cobra already consumed
	filteredArgs := []string{}
	for i := 0; i < len(cmdArgs); i++ {
		if strings.HasPrefix(cmdArgs[i], "--workspace-id=") {
			continue
		}
		if cmdArgs[i] == "--workspace-id" {
			i++
			continue
		}
		filteredArgs = append(filteredArgs, cmdArgs[i])
	}

	return c.executeCommand(cmd, filteredArgs)
}

func (c *DebugConsole) executeCommand(cmd string, args []string) error {
	if c.activeWorkspace == nil && cmd != "help" && cmd != "workspace" && cmd != "pair-fragments" {
		if c.options.NonInteractive {
			return errors.New("workspace ID is required. Use --workspace-id flag")
		}
		return errors.New("no workspace selected. Use '/workspace <id>' to select a workspace")
	}

	switch cmd {
	case "help":
		c.showHelp()
	case "workspace":
		return c.listAvailableWorkspaces()
	case "list-files":
		return c.listFiles()
	case "show-file":
		return c.showFile(args)
	case "preview-patch":
		return c.previewPatch(args)
	case "list-chat":
		return c.listChat()
	case "chat":
		return c.sendChat(args)
	case "pair-fragments":
		return c.pairFragments(args)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

// selectWorkspaceById selects a workspace by its ID
func (c *DebugConsole) selectWorkspaceById(id string) error {
	w, err := workspace.GetWorkspace(c.ctx, id)
	if err != nil {
		return errors.Wrapf(err, "failed to get workspace with ID: %s", id)
	}

	c.activeWorkspace = w

	if !c.options.NonInteractive {
		fmt.Printf(boldGreen("Selected workspace: %s (ID: %s)\n"), w.Name, w.ID)
		if len(w.Charts) > 0 {
			fmt.Printf(dimText("Found %d chart(s)\n"), len(w.Charts))
		} else {
			fmt.Println(dimText("No charts found for this workspace"))
		}
	}

	return nil
}

// listAvailableWorkspaces shows available workspaces without selecting one
func (c *DebugConsole) listAvailableWorkspaces() error {
	query := `SELECT id, name FROM workspace ORDER BY created_at DESC LIMIT 50`
	rows, err := c.pgClient.Query(c.ctx, query)
	if err != nil {
		return errors.Wrap(err, "failed to list workspaces")
	}
	defer rows.Close()

	count := 0
	fmt.Println(boldBlue("Available Workspaces:"))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return errors.Wrap(err, "failed to scan workspace")
		}
		count++
		fmt.Printf("  %d. %s (ID: %s)\n", count, name, id)
	}

	if count == 0 {
		fmt.Println(dimText("No workspaces found"))
		return nil
	}

	fmt.Println()
	fmt.Println(dimText("Use '/workspace <id>' to select a workspace"))
	return nil
}

func (c *DebugConsole) showHelp() {
	if c.options.NonInteractive {
		return
	}

	fmt.Println(boldBlue("Slash Commands:"))
	fmt.Println("  " + boldGreen("/help") + "                 Show this help")
	fmt.Println("  " + boldGreen("/workspace") + "            List available workspaces")
	fmt.Println("  " + boldGreen("/workspace") + " <id>       Select a workspace by ID")
	fmt.Println()

	fmt.Println(boldBlue("Workspace Commands:"))
	fmt.Println("  " + boldGreen("list-files") + "            List files in the current workspace")
	fmt.Println("  " + boldGreen("show-file") + " <path> [--pending]  Print a file's content (or its pending preview)")
	fmt.Println("  " + boldGreen("preview-patch") + " <file-path> <patch-path> [--content-based] [--save]  Apply a patch and print the preview")
	fmt.Println("  " + boldGreen("list-chat") + "             List chat messages with their status flags")
	fmt.Println("  " + boldGreen("chat") + " <prompt>         Create a chat message and queue it for processing")
	fmt.Println("  " + boldGreen("pair-fragments") + " <path> Pair message fragments from a JSON file into turns")
	fmt.Println()

	fmt.Println(boldBlue("General Commands:"))
	fmt.Println("  " + boldGreen("help") + "                  Show this help")
	fmt.Println("  " + boldGreen("exit") + "                  Exit the console")
	fmt.Println()

	fmt.Println(boldBlue("Command-line Usage:"))
	fmt.Println("  These commands can also be run directly from the command line:")
	fmt.Println("  " + boldGreen("console preview-patch values.yaml fix.patch --workspace-id <id>"))
	fmt.Println("  " + boldGreen("console list-chat --workspace-id <id>"))
	fmt.Println()
}

func (c *DebugConsole) listFiles() error {
	fmt.Println(boldBlue("Files:"))
	for _, chart := range c.activeWorkspace.Charts {
		for _, file := range chart.Files {
			marker := ""
			if file.ContentPending != nil {
				marker = boldYellow(" (pending preview)")
			}
			fmt.Printf("  %s%s\n", file.FilePath, marker)
		}
	}
	for _, file := range c.activeWorkspace.Files {
		marker := ""
		if file.ContentPending != nil {
			marker = boldYellow(" (pending preview)")
		}
		fmt.Printf("  %s%s\n", file.FilePath, marker)
	}
	return nil
}

func (c *DebugConsole) showFile(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: show-file <path> [--pending]")
	}

	showPending := false
	path := args[0]
	for _, arg := range args[1:] {
		if arg == "--pending" {
			showPending = true
		}
	}

	file, err := workspace.GetFileByPath(c.ctx, c.activeWorkspace.ID, c.activeWorkspace.CurrentRevision, path)
	if err != nil {
		return errors.Wrapf(err, "failed to get file %s", path)
	}

	if showPending {
		if file.ContentPending == nil {
			return errors.New("file has no pending content")
		}
		fmt.Println(*file.ContentPending)
		return nil
	}

	fmt.Println(file.Content)
	return nil
}

func (c *DebugConsole) previewPatch(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: preview-patch <file-path> <patch-path> [--content-based] [--save]")
	}

	filePath := args[0]
	patchPath := args[1]

	contentBased := false
	save := false
	for _, arg := range args[2:] {
		switch arg {
		case "--content-based":
			contentBased = true
		case "--save":
			save = true
		}
	}

	patchBytes, err := os.ReadFile(patchPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read patch file %s", patchPath)
	}

	file, err := workspace.GetFileByPath(c.ctx, c.activeWorkspace.ID, c.activeWorkspace.CurrentRevision, filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to get file %s", filePath)
	}

	var result string
	if contentBased {
		result = patch.ApplyByContent(file.Content, string(patchBytes))
	} else {
		result = patch.Apply(file.Content, string(patchBytes))
	}

	if result == file.Content {
		fmt.Println(boldYellow("Patch produced no change"))
	}

	fmt.Println(boldBlue("--- preview ---"))
	fmt.Println(result)

	if save {
		if err := workspace.SetFileContentPending(c.ctx, file.ID, c.activeWorkspace.CurrentRevision, &result); err != nil {
			return errors.Wrap(err, "failed to save pending content")
		}
		fmt.Println(boldGreen("Saved as pending content"))
	}

	return nil
}

func (c *DebugConsole) listChat() error {
	chats, err := workspace.ListChatMessagesForWorkspace(c.ctx, c.activeWorkspace.ID)
	if err != nil {
		return errors.Wrap(err, "failed to list chat messages")
	}

	if len(chats) == 0 {
		fmt.Println(dimText("No chat messages found"))
		return nil
	}

	for _, msg := range chats {
		status := "complete"
		switch {
		case msg.IsCanceled:
			status = boldRed("canceled")
		case msg.IsStreaming:
			status = boldYellow("streaming")
		case msg.IsThinking:
			status = boldYellow("thinking")
		}
		fmt.Printf("%s [%s] %s\n", dimText(msg.ID), status, truncate(msg.Prompt, 80))
		if msg.Response != "" {
			fmt.Printf("    %s\n", dimText(truncate(msg.Response, 120)))
		}
	}

	return nil
}

func (c *DebugConsole) sendChat(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: chat <prompt>")
	}

	prompt := strings.Join(args, " ")
	msg, err := workspace.CreateChatMessage(c.ctx, c.activeWorkspace.ID, prompt, "console")
	if err != nil {
		return errors.Wrap(err, "failed to create chat message")
	}

	fmt.Printf(boldGreen("Created chat message %s, queued for processing\n"), msg.ID)
	return nil
}

func (c *DebugConsole) pairFragments(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: pair-fragments <path>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to read fragments file %s", args[0])
	}

	fragments, err := chat.ParseFragments(data)
	if err != nil {
		return errors.Wrap(err, "failed to parse fragments")
	}

	turns := chat.PairTurns(fragments, chat.PairOptions{})
	for _, turn := range turns {
		fmt.Printf("%s\n", boldBlue(turn.ID))
		fmt.Printf("  prompt:   %s\n", truncate(turn.Prompt, 80))
		fmt.Printf("  response: %s\n", truncate(turn.Response, 80))
		fmt.Printf("  flags:    complete=%v streaming=%v modifiesFiles=%v\n", turn.IsComplete, turn.IsStreaming, turn.ModifiesFiles)
	}

	return nil
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
