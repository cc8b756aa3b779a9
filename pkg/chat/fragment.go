package chat

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is one typed unit of fragment content. The streaming layer hands
// us loosely-typed parts discriminated by a "type" string; they are
// resolved into this closed set once, at the boundary, so nothing past
// this package sniffs type prefixes.
type Part interface {
	isPart()
}

type TextPart struct {
	Text string
}

type ToolInvocationPart struct {
	ToolName string
	Args     json.RawMessage
}

type ToolResultPart struct {
	ToolName string
	Result   json.RawMessage
}

func (TextPart) isPart()           {}
func (ToolInvocationPart) isPart() {}
func (ToolResultPart) isPart()     {}

// Fragment is one role-tagged message unit as emitted by the token
// stream, before pairing into turns.
type Fragment struct {
	ID    string
	Role  Role
	Parts []Part
}

// Text concatenates the fragment's text parts. Tool parts never
// contribute to the textual content.
func (f Fragment) Text() string {
	var sb strings.Builder
	for _, p := range f.Parts {
		if tp, ok := p.(TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// tool names the assistant uses to touch workspace files
var fileModifyingTools = map[string]bool{
	"create_file": true,
	"edit_file":   true,
	"delete_file": true,
}

// ModifiesFiles reports whether any tool invocation in the fragment
// targets a workspace file.
func (f Fragment) ModifiesFiles() bool {
	for _, p := range f.Parts {
		switch part := p.(type) {
		case ToolInvocationPart:
			if fileModifyingTools[part.ToolName] {
				return true
			}
		case ToolResultPart:
			if fileModifyingTools[part.ToolName] {
				return true
			}
		}
	}
	return false
}

type rawPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ToolName string          `json:"toolName,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
}

type rawFragment struct {
	ID    string    `json:"id"`
	Role  string    `json:"role"`
	Parts []rawPart `json:"parts"`
}

// ParseFragments decodes the stream layer's JSON representation of
// fragments, resolving each part into the closed Part set. Part types
// nobody recognizes are dropped rather than failing the whole decode;
// the stream format grows faster than we do.
func ParseFragments(data []byte) ([]Fragment, error) {
	var raw []rawFragment
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	fragments := make([]Fragment, 0, len(raw))
	for _, rf := range raw {
		f := Fragment{
			ID:   rf.ID,
			Role: Role(rf.Role),
		}
		for _, rp := range rf.Parts {
			if p, ok := resolvePart(rp); ok {
				f.Parts = append(f.Parts, p)
			}
		}
		fragments = append(fragments, f)
	}

	return fragments, nil
}

func resolvePart(rp rawPart) (Part, bool) {
	switch {
	case rp.Type == "text":
		return TextPart{Text: rp.Text}, true
	case rp.Type == "tool-invocation":
		return ToolInvocationPart{ToolName: rp.ToolName, Args: rp.Args}, true
	case rp.Type == "tool-result":
		return ToolResultPart{ToolName: rp.ToolName, Result: rp.Result}, true
	case strings.HasPrefix(rp.Type, "tool-"):
		// AI SDK style: the tool name is embedded in the type tag, and
		// the presence of a result distinguishes invocation from result
		name := strings.TrimPrefix(rp.Type, "tool-")
		if rp.ToolName != "" {
			name = rp.ToolName
		}
		if len(rp.Result) > 0 {
			return ToolResultPart{ToolName: name, Result: rp.Result}, true
		}
		return ToolInvocationPart{ToolName: name, Args: rp.Args}, true
	default:
		return nil, false
	}
}
