package llm

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/replicatedhq/chartsmith-preview/pkg/chat"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace"
	workspacetypes "github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

const maxContextFiles = 10

// ConversationalChatMessage streams the assistant response for a chat message.
// Text deltas and tool invocations are sent on streamCh as they arrive; the
// final error (or nil) is sent on doneCh.
func ConversationalChatMessage(ctx context.Context, streamCh chan chat.Part, doneCh chan error, w *workspacetypes.Workspace, chatMessage *workspacetypes.Chat) error {
	client, err := newAnthropicClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create anthropic client: %w", err)
	}

	messages := []anthropic.MessageParam{
		anthropic.NewAssistantMessage(anthropic.NewTextBlock(chatSystemPrompt)),
	}

	if len(w.Charts) > 0 {
		c := &w.Charts[0]

		messages = append(messages,
			anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(fmt.Sprintf(`I am working on a Helm chart that has the following structure: %s`, chartStructure(c))),
			),
		)

		maxFiles := maxContextFiles
		if len(c.Files) < maxFiles {
			maxFiles = len(c.Files)
		}
		for _, file := range c.Files[:maxFiles] {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(fmt.Sprintf(`File: %s, Content: %s`, file.FilePath, file.Content))))
		}
	}

	previousChatMessages, err := workspace.ListChatMessagesForWorkspace(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("failed to list chat messages: %w", err)
	}
	for _, previous := range previousChatMessages {
		if previous.ID == chatMessage.ID || !previous.IsComplete {
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(previous.Prompt)))
		if previous.Response != "" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(previous.Response)))
		}
	}

	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(chatMessage.Prompt)))

	tools := []anthropic.ToolParam{
		{
			Name:        anthropic.F("edit_file"),
			Description: anthropic.F("Propose an edit to a chart file as a unified diff patch"),
			InputSchema: anthropic.F(interface{}(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "The path of the file to edit",
					},
					"patch": map[string]interface{}{
						"type":        "string",
						"description": "A unified diff patch to apply to the current file contents",
					},
				},
				"required": []string{"path", "patch"},
			})),
		},
		{
			Name:        anthropic.F("latest_kubernetes_version"),
			Description: anthropic.F("Return the latest version of Kubernetes"),
			InputSchema: anthropic.F(interface{}(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"semver_field": map[string]interface{}{
						"type":        "string",
						"description": "One of 'major', 'minor', or 'patch'",
					},
				},
				"required": []string{"semver_field"},
			})),
		},
	}

	toolUnionParams := make([]anthropic.ToolUnionUnionParam, len(tools))
	for i, tool := range tools {
		toolUnionParams[i] = tool
	}

	for {
		if err := claudeRateLimiter.Wait(ctx); err != nil {
			doneCh <- err
			return err
		}

		stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
			Model:     anthropic.F(DefaultModel),
			MaxTokens: anthropic.F(int64(8192)),
			Messages:  anthropic.F(messages),
			Tools:     anthropic.F(toolUnionParams),
		})

		message := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()
			err := message.Accumulate(event)
			if err != nil {
				doneCh <- fmt.Errorf("failed to accumulate message: %w", err)
				return err
			}

			switch event := event.AsUnion().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if event.Delta.Text != "" {
					streamCh <- chat.TextPart{Text: event.Delta.Text}
				}
			}
		}

		if stream.Err() != nil {
			doneCh <- stream.Err()
			return stream.Err()
		}

		messages = append(messages, message.ToParam())

		hasToolCalls := false
		toolResults := []anthropic.ContentBlockParamUnion{}

		for _, block := range message.Content {
			if block.Type == anthropic.ContentBlockTypeToolUse {
				hasToolCalls = true

				streamCh <- chat.ToolInvocationPart{
					ToolName: block.Name,
					Args:     json.RawMessage(block.Input),
				}

				response, err := resolveToolCall(block.Name, block.Input)
				if err != nil {
					doneCh <- err
					return err
				}

				b, err := json.Marshal(response)
				if err != nil {
					doneCh <- fmt.Errorf("failed to marshal tool response: %w", err)
					return err
				}

				streamCh <- chat.ToolResultPart{
					ToolName: block.Name,
					Result:   json.RawMessage(b),
				}

				toolResults = append(toolResults, anthropic.NewToolResultBlock(block.ID, string(b), false))
			}
		}

		if !hasToolCalls {
			break
		}

		messages = append(messages, anthropic.MessageParam{
			Role:    anthropic.F(anthropic.MessageParamRoleUser),
			Content: anthropic.F(toolResults),
		})
	}

	doneCh <- nil
	return nil
}

func resolveToolCall(name string, input json.RawMessage) (interface{}, error) {
	switch name {
	case "edit_file":
		var args struct {
			Path  string `json:"path"`
			Patch string `json:"patch"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool input: %w", err)
		}
		if args.Path == "" || args.Patch == "" {
			return nil, fmt.Errorf("edit_file tool call missing path or patch")
		}
		// the edit itself is applied downstream, after the caller has seen the
		// invocation
		return "queued", nil
	case "latest_kubernetes_version":
		var args struct {
			SemverField string `json:"semver_field"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool input: %w", err)
		}

		switch args.SemverField {
		case "major":
			return "1", nil
		case "minor":
			return "1.33", nil
		default:
			return "1.33.4", nil
		}
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func chartStructure(c *workspacetypes.Chart) string {
	structure := ""
	for _, file := range c.Files {
		structure += fmt.Sprintf(`File: %s`, file.FilePath)
	}
	return structure
}
