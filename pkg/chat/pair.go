package chat

import (
	workspacetypes "github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

// SessionStatus is the four-state status reported by the streaming
// layer for the session as a whole.
type SessionStatus string

const (
	StatusSubmitted SessionStatus = "submitted"
	StatusStreaming SessionStatus = "streaming"
	StatusReady     SessionStatus = "ready"
	StatusError     SessionStatus = "error"
)

// Flags is the per-turn status derived from a session status.
type Flags struct {
	IsThinking       bool
	IsStreaming      bool
	IsIntentComplete bool
	IsComplete       bool
}

// MapStatusToFlags derives turn flags from a session status. Thinking
// and streaming are mutually exclusive; both terminal statuses (ready
// and error) mark the turn complete.
func MapStatusToFlags(status SessionStatus) Flags {
	switch status {
	case StatusSubmitted:
		return Flags{IsThinking: true}
	case StatusStreaming:
		return Flags{IsStreaming: true}
	default:
		// ready, error, and anything unrecognized settle as complete
		return Flags{IsIntentComplete: true, IsComplete: true}
	}
}

type PairOptions struct {
	IsStreaming bool
	IsCanceled  bool
}

// PairTurns folds an ordered fragment sequence into turns with a single
// left-to-right scan. A user fragment opens a turn; an immediately
// following assistant fragment completes it. An orphaned assistant
// fragment is only honored at the head of the sequence, where it yields
// a response-only turn; anywhere else it is dropped.
//
// Every turn is emitted complete except the last one of a session that
// is still streaming. Cancellation only ever marks the last turn.
func PairTurns(fragments []Fragment, opts PairOptions) []workspacetypes.Chat {
	var turns []workspacetypes.Chat

	i := 0
	for i < len(fragments) {
		frag := fragments[i]

		switch frag.Role {
		case RoleUser:
			turn := workspacetypes.Chat{
				ID:     frag.ID,
				Prompt: frag.Text(),
			}
			if i+1 < len(fragments) && fragments[i+1].Role == RoleAssistant {
				turn.Response = fragments[i+1].Text()
				turn.ModifiesFiles = fragments[i+1].ModifiesFiles()
				i += 2
			} else {
				i++
			}
			turns = append(turns, turn)
		case RoleAssistant:
			if i == 0 {
				turns = append(turns, workspacetypes.Chat{
					ID:            frag.ID,
					Response:      frag.Text(),
					ModifiesFiles: frag.ModifiesFiles(),
				})
			}
			i++
		default:
			i++
		}
	}

	for idx := range turns {
		last := idx == len(turns)-1

		turns[idx].IsComplete = true
		turns[idx].IsIntentComplete = true

		if last && opts.IsStreaming {
			turns[idx].IsComplete = false
			turns[idx].IsIntentComplete = false
			turns[idx].IsStreaming = true
		}
		if last && opts.IsCanceled {
			turns[idx].IsCanceled = true
		}
	}

	return turns
}
