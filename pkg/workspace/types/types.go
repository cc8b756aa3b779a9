package types

import (
	"time"
)

type File struct {
	ID             string  `json:"id"`
	RevisionNumber int     `json:"revision_number"`
	ChartID        string  `json:"chart_id,omitempty"`
	WorkspaceID    string  `json:"workspace_id"`
	FilePath       string  `json:"filePath"`
	Content        string  `json:"content"`
	ContentPending *string `json:"content_pending,omitempty"`
}

type Chart struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Files []File `json:"files"`
}

type Workspace struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	Name          string    `json:"name"`

	CurrentRevision int `json:"current_revision"`

	Charts []Chart `json:"charts"`
	Files  []File  `json:"files"`
}

// Chat is one conversational turn: a user prompt and its (possibly
// still-streaming) assistant response. The live session and the
// database assign different IDs to the same logical turn, so callers
// holding both sides reconcile them through pkg/chat.
type Chat struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"-"`
	Prompt      string    `json:"prompt"`
	Response    string    `json:"response"`
	CreatedAt   time.Time `json:"createdAt"`

	IsThinking       bool `json:"isThinking"`
	IsStreaming      bool `json:"isStreaming"`
	IsIntentComplete bool `json:"isIntentComplete"`
	IsComplete       bool `json:"isComplete"`
	IsCanceled       bool `json:"isCanceled"`

	// ModifiesFiles is set when the assistant turn carried a
	// file-modifying tool call, which is what gates the patch preview.
	ModifiesFiles bool `json:"modifiesFiles"`

	RevisionNumber int `json:"revisionNumber"`
}
