package chat

import (
	"strings"

	workspacetypes "github.com/replicatedhq/chartsmith-preview/pkg/workspace/types"
)

// MergeHistoryAndStream reconciles a live streaming session against the
// persisted message history. Historical turns are authoritative for
// identity and metadata; streaming turns are authoritative for in-flight
// response text. The stream assigns client-side IDs and the database
// assigns its own, so a historical turn with no response yet is matched
// to its streaming counterpart by trimmed prompt text. Two distinct
// turns with identical prompts can therefore cross-match; that is an
// accepted property of the prompt key, not something this function
// tries to detect.
//
// The result preserves historical order, never repeats an ID, and
// appends unmatched streaming turns in arrival order.
func MergeHistoryAndStream(historical []workspacetypes.Chat, streaming []workspacetypes.Chat) []workspacetypes.Chat {
	merged := make([]workspacetypes.Chat, 0, len(historical)+len(streaming))

	historicalIDs := make(map[string]bool, len(historical))
	mergedPrompts := make(map[string]bool)

	for _, h := range historical {
		historicalIDs[h.ID] = true

		if h.Response == "" && strings.TrimSpace(h.Prompt) != "" {
			for _, s := range streaming {
				if s.Response == "" {
					continue
				}
				if strings.TrimSpace(s.Prompt) != strings.TrimSpace(h.Prompt) {
					continue
				}

				h.Response = s.Response
				h.IsComplete = s.IsComplete
				h.IsIntentComplete = s.IsIntentComplete
				h.IsCanceled = s.IsCanceled
				mergedPrompts[strings.TrimSpace(s.Prompt)] = true
				break
			}
		}

		merged = append(merged, h)
	}

	for _, s := range streaming {
		if historicalIDs[s.ID] {
			continue
		}
		if p := strings.TrimSpace(s.Prompt); p != "" && mergedPrompts[p] {
			continue
		}
		merged = append(merged, s)
	}

	return merged
}

// IsActivelyStreaming reports whether turnID is the distinguished active
// streaming turn. An empty activeID means nothing is streaming.
func IsActivelyStreaming(turnID string, activeID string) bool {
	if activeID == "" {
		return false
	}
	return turnID == activeID
}
