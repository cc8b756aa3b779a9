package integration

import (
	"context"
	"fmt"

	"github.com/replicatedhq/chartsmith-preview/pkg/chat"
	"github.com/replicatedhq/chartsmith-preview/pkg/persistence"
	"github.com/replicatedhq/chartsmith-preview/pkg/workspace"
	workspacetypes "github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

type TestOpts struct {
	WorkspaceID string
	ChartID     string
}

var IntegrationTestOpts = TestOpts{
	WorkspaceID: "workspace-preview-test",
	ChartID:     "chart-preview-test",
}

// IntegrationTest_ChatMessageLifecycle drives a chat message through the
// store the same way the listener does: create, stream appends, complete,
// then reconcile the persisted turns with a live streaming snapshot.
func IntegrationTest_ChatMessageLifecycle() error {
	fmt.Printf("Integration test: ChatMessageLifecycle\n")

	ctx := context.Background()

	chatMessage, err := workspace.CreateChatMessage(ctx, IntegrationTestOpts.WorkspaceID, "add a pod disruption budget", "integration")
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}

	if !chatMessage.IsThinking {
		return fmt.Errorf("expected new chat message to be thinking")
	}
	if chatMessage.IsComplete || chatMessage.IsStreaming {
		return fmt.Errorf("expected new chat message to be incomplete and not streaming")
	}

	// creating the message must queue work for the listener
	conn := persistence.MustGetPooledPostgresSession()
	var queued int
	err = conn.QueryRow(ctx, `SELECT COUNT(*) FROM work_queue WHERE channel = 'new_chat_message' AND completed_at IS NULL`).Scan(&queued)
	conn.Release()
	if err != nil {
		return fmt.Errorf("failed to count queued work: %w", err)
	}
	if queued == 0 {
		return fmt.Errorf("expected a queued new_chat_message work item")
	}

	for _, delta := range []string{"Sure, ", "adding a PodDisruptionBudget."} {
		if err := workspace.AppendChatMessageResponse(ctx, chatMessage.ID, delta); err != nil {
			return fmt.Errorf("failed to append response: %w", err)
		}
	}

	streaming, err := workspace.GetChatMessage(ctx, chatMessage.ID)
	if err != nil {
		return fmt.Errorf("failed to get chat message: %w", err)
	}
	if !streaming.IsStreaming {
		return fmt.Errorf("expected chat message to be streaming after append")
	}
	if streaming.Response != "Sure, adding a PodDisruptionBudget." {
		return fmt.Errorf("unexpected response: %q", streaming.Response)
	}

	if err := workspace.SetChatMessageComplete(ctx, chatMessage.ID, true); err != nil {
		return fmt.Errorf("failed to complete chat message: %w", err)
	}

	completed, err := workspace.GetChatMessage(ctx, chatMessage.ID)
	if err != nil {
		return fmt.Errorf("failed to get completed chat message: %w", err)
	}
	if !completed.IsComplete || !completed.IsIntentComplete {
		return fmt.Errorf("expected chat message to be complete")
	}
	if completed.IsStreaming || completed.IsThinking {
		return fmt.Errorf("expected completed chat message to not be thinking or streaming")
	}
	if !completed.ModifiesFiles {
		return fmt.Errorf("expected completed chat message to record file modifications")
	}

	// a second turn that is still streaming client-side merges into history
	// by prompt
	pending, err := workspace.CreateChatMessage(ctx, IntegrationTestOpts.WorkspaceID, "now add resource limits", "integration")
	if err != nil {
		return fmt.Errorf("failed to create second chat message: %w", err)
	}

	historical, err := workspace.ListChatMessagesForWorkspace(ctx, IntegrationTestOpts.WorkspaceID)
	if err != nil {
		return fmt.Errorf("failed to list chat messages: %w", err)
	}
	if len(historical) < 2 {
		return fmt.Errorf("expected at least 2 chat messages, got %d", len(historical))
	}
	if historical[len(historical)-1].ID != pending.ID {
		return fmt.Errorf("expected newest chat message last")
	}

	streamingSnapshot := *pending
	streamingSnapshot.ID = "session-" + pending.ID
	streamingSnapshot.Response = "Adding resource limits now..."
	streamingSnapshot.IsComplete = true
	streamingSnapshot.IsIntentComplete = true

	merged := chat.MergeHistoryAndStream(historical, []workspacetypes.Chat{streamingSnapshot})
	if len(merged) != len(historical) {
		return fmt.Errorf("expected merge to fold streaming turn into history, got %d turns", len(merged))
	}
	last := merged[len(merged)-1]
	if last.Response != "Adding resource limits now..." {
		return fmt.Errorf("expected streaming response merged into persisted turn, got %q", last.Response)
	}

	if err := workspace.CancelChatMessage(ctx, pending.ID); err != nil {
		return fmt.Errorf("failed to cancel chat message: %w", err)
	}
	canceled, err := workspace.GetChatMessage(ctx, pending.ID)
	if err != nil {
		return fmt.Errorf("failed to get canceled chat message: %w", err)
	}
	if !canceled.IsCanceled {
		return fmt.Errorf("expected chat message to be canceled")
	}

	return nil
}
